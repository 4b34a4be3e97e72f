package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"videofetch/internal/model"
	"videofetch/internal/progress"
	"videofetch/internal/service"
	"videofetch/internal/storage"
	"videofetch/pkg/logger"
	"videofetch/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DownloadHandler handles download, status-poll and file-serving requests
type DownloadHandler struct {
	downloadService *service.DownloadService
	store           *progress.Store
	storage         *storage.Manager
	cfg             *model.Config
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(ds *service.DownloadService, store *progress.Store, sm *storage.Manager, cfg *model.Config) *DownloadHandler {
	return &DownloadHandler{
		downloadService: ds,
		store:           store,
		storage:         sm,
		cfg:             cfg,
	}
}

// StartDownload handles POST /download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req model.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "URL and format ID are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !validator.ValidateURL(req.URL, h.cfg.Security.AllowedDomains) || !validator.ValidateFormatID(req.FormatID) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "URL or format ID is invalid",
			Code:    http.StatusBadRequest,
		})
		return
	}

	resp, err := h.downloadService.StartDownload(c.Request.Context(), req.URL, req.FormatID)
	if err != nil {
		logger.Logger.Error("Download start failed", zap.Error(err), zap.String("url", req.URL))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "download_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckStatus handles GET /check_download_status
func (h *DownloadHandler) CheckStatus(c *gin.Context) {
	jobID := c.Query("video_id")
	filename := c.Query("filename")
	if jobID == "" || filename == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "video_id and filename are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	job := h.store.Get(jobID)
	if job.Status != model.StatusComplete {
		c.JSON(http.StatusOK, job)
		return
	}

	path, size, err := h.resolveOutput(job, filename)
	if err != nil {
		status := http.StatusInternalServerError
		kind := "file_missing"
		if errors.Is(err, model.ErrCorruptFile) {
			kind = "corrupt_file"
		}
		logger.Logger.Error("Completed download could not be resolved",
			zap.String("job_id", jobID),
			zap.Error(err))
		c.JSON(status, model.ErrorResponse{
			Error:   kind,
			Message: err.Error(),
			Code:    status,
		})
		return
	}

	c.JSON(http.StatusOK, model.StatusCompleteResponse{
		Status:       model.StatusComplete,
		DownloadPath: "/download_file?path=" + url.QueryEscape(filepath.Base(path)),
		FileSizeMB:   float64(size) / (1024 * 1024),
	})
}

// resolveOutput finds the produced file. The path yt-dlp reported is
// authoritative when present; the directory heuristics cover the cases
// where it is not (or the store was wiped and only the client's filename
// survives).
func (h *DownloadHandler) resolveOutput(job model.Job, clientFilename string) (string, int64, error) {
	if job.OutputPath != "" {
		if size, err := storage.CheckFile(job.OutputPath); err == nil {
			return job.OutputPath, size, nil
		} else if errors.Is(err, model.ErrCorruptFile) {
			return "", 0, err
		}
	}

	sanitized := job.SanitizedFilename
	if sanitized == "" {
		sanitized = validator.SanitizeTitle(clientFilename)
	}
	original := job.OriginalFilename
	if original == "" {
		original = clientFilename
	}

	ext := "mp4"
	if job.IsAudioOnly {
		ext = "mp3"
	}

	return storage.Resolve(h.storage.DownloadDir(), original, sanitized, ext)
}

// GetFile handles GET /download_file
func (h *DownloadHandler) GetFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "No file path provided",
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Bare filenames only; the download directory is the boundary.
	filePath := h.storage.FilePath(path)
	if _, err := os.Stat(filePath); err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "File not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.Header("Content-Disposition", buildContentDispositionHeader(filepath.Base(filePath)))
	c.Header("Content-Type", "application/octet-stream")
	c.File(filePath)

	logger.Logger.Info("File served", zap.String("path", filePath))
}

// buildContentDispositionHeader builds a proper Content-Disposition header
// with RFC 5987 encoding for unicode and special characters
func buildContentDispositionHeader(filename string) string {
	needsEncoding := false
	for _, r := range filename {
		if r > 127 || r == '"' || r == '\\' || r == ';' || r == ',' {
			needsEncoding = true
			break
		}
	}

	if strings.ContainsAny(filename, " \t\n\r") {
		needsEncoding = true
	}

	if !needsEncoding {
		return fmt.Sprintf(`attachment; filename="%s"`, filename)
	}

	encodedFilename := url.QueryEscape(filename)
	return fmt.Sprintf(`attachment; filename*=UTF-8''%s`, encodedFilename)
}
