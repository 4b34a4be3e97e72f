package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"videofetch/config"
	"videofetch/internal/extractor"
	"videofetch/internal/handler"
	"videofetch/internal/progress"
	"videofetch/internal/service"
	"videofetch/internal/storage"
	"videofetch/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Video Download Server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("ytdlp", cfg.Extractor.BinPath),
	)

	// Initialize storage manager
	storageManager := storage.NewManager(&cfg.Storage)
	if err := storageManager.EnsureDownloadDir(); err != nil {
		logger.Logger.Fatal("Failed to create download directory", zap.Error(err))
	}
	storageManager.Start()
	defer storageManager.Stop()

	// Initialize progress store
	progressStore := progress.NewStore(
		time.Duration(cfg.Downloads.ProgressTTLSeconds)*time.Second,
		time.Duration(cfg.Downloads.ProgressCleanupInterval)*time.Second,
	)
	progressStore.Start()
	defer progressStore.Stop()

	// Initialize services
	ytdlp := extractor.New(cfg.Extractor.BinPath, time.Duration(cfg.Extractor.MetadataTimeout)*time.Second)
	videoService := service.NewVideoService(ytdlp)
	downloadService := service.NewDownloadService(ytdlp, progressStore, storageManager, cfg.Downloads.MaxConcurrent)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.GinLogger())

	// API handlers
	videoHandler := handler.NewVideoHandler(videoService, cfg)
	downloadHandler := handler.NewDownloadHandler(downloadService, progressStore, storageManager, cfg)

	// Routes
	router.POST("/get_video_info", videoHandler.GetVideoInfo)
	router.POST("/download", downloadHandler.StartDownload)
	router.GET("/check_download_status", downloadHandler.CheckStatus)
	router.GET("/download_file", downloadHandler.GetFile)
	router.GET("/health", videoHandler.HealthCheck)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.Timeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.Timeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server stopped")
}
