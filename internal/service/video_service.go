package service

import (
	"context"
	"fmt"

	"videofetch/internal/extractor"
	"videofetch/internal/model"
	"videofetch/pkg/logger"

	"go.uber.org/zap"
)

// Extractor is the media-extraction collaborator. The real implementation
// shells out to yt-dlp; tests substitute a stub.
type Extractor interface {
	ExtractMetadata(ctx context.Context, videoURL string) (*extractor.Metadata, error)
	Download(ctx context.Context, videoURL string, opts extractor.Options, progress extractor.ProgressFunc) (string, error)
}

// VideoService handles video metadata extraction
type VideoService struct {
	extractor Extractor
}

// NewVideoService creates a new video service
func NewVideoService(ext Extractor) *VideoService {
	return &VideoService{extractor: ext}
}

// GetVideoInfo fetches video metadata and shapes the format list. An empty
// surviving format list is an error, never an empty success payload.
func (s *VideoService) GetVideoInfo(ctx context.Context, videoURL string) (*model.VideoInfo, error) {
	meta, err := s.extractor.ExtractMetadata(ctx, videoURL)
	if err != nil {
		logger.Logger.Error("Failed to get video info", zap.Error(err), zap.String("url", videoURL))
		return nil, fmt.Errorf("%w: %v", model.ErrExtraction, err)
	}

	formats, err := normalizeFormats(meta)
	if err != nil {
		logger.Logger.Warn("No usable formats", zap.String("url", videoURL))
		return nil, err
	}

	info := &model.VideoInfo{
		Title:     orUnknown(meta.Title),
		Uploader:  orUnknown(meta.Uploader),
		Duration:  meta.Duration,
		Thumbnail: meta.Thumbnail,
		Formats:   formats,
	}

	logger.Logger.Info("Video info retrieved",
		zap.String("title", info.Title),
		zap.Int("formats", len(info.Formats)))
	return info, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
