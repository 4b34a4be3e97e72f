package handler

import (
	"errors"
	"net/http"

	"videofetch/internal/model"
	"videofetch/internal/service"
	"videofetch/pkg/logger"
	"videofetch/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoHandler handles video info requests
type VideoHandler struct {
	videoService *service.VideoService
	cfg          *model.Config
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(vs *service.VideoService, cfg *model.Config) *VideoHandler {
	return &VideoHandler{
		videoService: vs,
		cfg:          cfg,
	}
}

// GetVideoInfo handles POST /get_video_info
func (h *VideoHandler) GetVideoInfo(c *gin.Context) {
	var req model.InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "No URL provided",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !validator.ValidateURL(req.URL, h.cfg.Security.AllowedDomains) {
		logger.Logger.Warn("Invalid URL", zap.String("url", req.URL))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_url",
			Message: "URL is invalid or its domain is not allowed",
			Code:    http.StatusBadRequest,
		})
		return
	}

	info, err := h.videoService.GetVideoInfo(c.Request.Context(), req.URL)
	if err != nil {
		status := http.StatusInternalServerError
		kind := "fetch_failed"
		if errors.Is(err, model.ErrNoFormats) {
			kind = "no_formats"
		}
		c.JSON(status, model.ErrorResponse{
			Error:   kind,
			Message: err.Error(),
			Code:    status,
		})
		return
	}

	c.JSON(http.StatusOK, info)
}

// HealthCheck handles GET /health
func (h *VideoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "video-downloader",
	})
}
