package service

import (
	"context"
	"fmt"

	"videofetch/internal/extractor"
	"videofetch/internal/model"
	"videofetch/internal/progress"
	"videofetch/internal/storage"
	"videofetch/pkg/logger"
	"videofetch/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audio handling targets. Video streams are never re-encoded; audio is
// re-encoded to AAC so the merged stream always fits the mp4 container.
const (
	audioOnlyCodec    = "mp3"
	audioOnlyQuality  = "192K"
	mergeContainer    = "mp4"
	mergeAudioEncoder = "ffmpeg:-c:v copy -c:a aac -b:a 192k"
)

// DownloadService orchestrates asynchronous downloads: it probes metadata,
// registers a job, and hands the actual transfer to a bounded pool of
// background workers that report into the progress store.
type DownloadService struct {
	extractor Extractor
	store     *progress.Store
	storage   *storage.Manager
	sem       chan struct{}
}

// NewDownloadService creates a new download service. maxConcurrent bounds
// the number of simultaneous downloads; excess jobs wait in "starting".
func NewDownloadService(ext Extractor, store *progress.Store, sm *storage.Manager, maxConcurrent int) *DownloadService {
	return &DownloadService{
		extractor: ext,
		store:     store,
		storage:   sm,
		sem:       make(chan struct{}, maxConcurrent),
	}
}

// StartDownload accepts a download request and returns immediately with a
// minted job id. The job is registered in the store before this returns, so
// a client that polls right away never sees a missing job.
func (s *DownloadService) StartDownload(ctx context.Context, videoURL, formatID string) (*model.DownloadResponse, error) {
	meta, err := s.extractor.ExtractMetadata(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrExtraction, err)
	}

	original := fmt.Sprintf("%s - %s", orUnknown(meta.Uploader), orUnknown(meta.Title))
	sanitized := validator.SanitizeTitle(original)

	isAudioOnly, hasAudio := classifyFormat(meta.Formats, formatID)

	jobID := uuid.New().String()
	job := model.Job{
		Status:            model.StatusStarting,
		IsAudioOnly:       isAudioOnly,
		OriginalFilename:  original,
		SanitizedFilename: sanitized,
	}
	s.store.Set(jobID, job)

	opts := buildOptions(formatID, isAudioOnly, hasAudio, s.storage.OutputTemplate(sanitized))

	go s.runWorker(jobID, videoURL, opts, job)

	logger.Logger.Info("Download accepted",
		zap.String("job_id", jobID),
		zap.String("video_id", meta.ID),
		zap.String("format_id", formatID),
		zap.Bool("audio_only", isAudioOnly))

	return &model.DownloadResponse{
		Success:  true,
		VideoID:  jobID,
		Filename: sanitized,
		Message:  "Download started",
	}, nil
}

// classifyFormat reports whether formatID denotes an audio-only stream and
// whether it already carries audio. An id absent from the list counts as a
// video format without embedded audio, which yt-dlp then resolves itself.
func classifyFormat(formats []extractor.RawFormat, formatID string) (isAudioOnly, hasAudio bool) {
	for _, f := range formats {
		if f.FormatID != formatID {
			continue
		}
		if f.VCodec == "none" {
			isAudioOnly = true
		}
		if f.ACodec != "" && f.ACodec != "none" {
			hasAudio = true
		}
	}
	return isAudioOnly, hasAudio
}

// buildOptions selects the yt-dlp invocation for the requested format class.
func buildOptions(formatID string, isAudioOnly, hasAudio bool, outputTemplate string) extractor.Options {
	if isAudioOnly {
		return extractor.Options{
			FormatSpec:     formatID,
			OutputTemplate: outputTemplate,
			ExtractAudio:   true,
			AudioFormat:    audioOnlyCodec,
			AudioQuality:   audioOnlyQuality,
		}
	}

	opts := extractor.Options{
		FormatSpec:     formatID,
		OutputTemplate: outputTemplate,
		MergeFormat:    mergeContainer,
	}
	if !hasAudio {
		opts.FormatSpec = formatID + "+bestaudio"
		opts.PostprocessorArgs = mergeAudioEncoder
	}
	return opts
}

// runWorker drives one download to a terminal state. Whatever happens inside
// -- extractor failure, panic -- the job always ends complete or error.
func (s *DownloadService) runWorker(jobID, videoURL string, opts extractor.Options, base model.Job) {
	defer func() {
		if r := recover(); r != nil {
			base.Status = model.StatusError
			base.Error = fmt.Sprintf("download worker panic: %v", r)
			s.store.Set(jobID, base)
			if logger.Logger != nil {
				logger.Logger.Error("Download worker panicked",
					zap.String("job_id", jobID),
					zap.Any("panic", r))
			}
		}
	}()

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	outputPath, err := s.extractor.Download(context.Background(), videoURL, opts, func(ev extractor.ProgressEvent) {
		job := base
		switch ev.Status {
		case extractor.EventFinished:
			job.Status = model.StatusProcessing
			job.Percent = 100
		default:
			job.Status = model.StatusDownloading
			job.Percent = ev.Percent
			job.DownloadedBytes = ev.DownloadedBytes
			job.TotalBytes = ev.TotalBytes
			job.Speed = ev.Speed
			job.ETA = ev.ETA
		}
		s.store.Set(jobID, job)
	})

	if err != nil {
		base.Status = model.StatusError
		base.Error = err.Error()
		s.store.Set(jobID, base)
		if logger.Logger != nil {
			logger.Logger.Error("Download failed", zap.String("job_id", jobID), zap.Error(err))
		}
		return
	}

	base.Status = model.StatusComplete
	base.Percent = 100
	base.OutputPath = outputPath
	s.store.Set(jobID, base)

	if logger.Logger != nil {
		logger.Logger.Info("Download complete",
			zap.String("job_id", jobID),
			zap.String("output_path", outputPath))
	}
}
