package model

import (
	"encoding/json"
	"math"
	"time"
)

// Job status values. A job only ever moves forward:
// starting -> downloading -> processing -> complete, or any state -> error.
const (
	StatusStarting    = "starting"
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
	StatusComplete    = "complete"
	StatusError       = "error"
	StatusUnknown     = "unknown"
)

// Job is the lifecycle record of one download request. It is written only by
// the background worker that owns it and read by status-poll handlers.
type Job struct {
	Status            string    `json:"status"`
	Percent           float64   `json:"percent"`
	DownloadedBytes   int64     `json:"downloaded_bytes"`
	TotalBytes        int64     `json:"total_bytes"`
	Speed             string    `json:"speed"`
	ETA               string    `json:"eta"`
	IsAudioOnly       bool      `json:"is_audio_only"`
	OriginalFilename  string    `json:"original_filename"`
	SanitizedFilename string    `json:"sanitized_filename"`
	OutputPath        string    `json:"-"`
	Error             string    `json:"error,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j Job) Terminal() bool {
	return j.Status == StatusComplete || j.Status == StatusError
}

// VideoInfo is the response payload of the info endpoint.
type VideoInfo struct {
	Title     string         `json:"title"`
	Uploader  string         `json:"uploader"`
	Duration  float64        `json:"duration"`
	Thumbnail string         `json:"thumbnail"`
	Formats   []FormatOption `json:"formats"`
}

// FormatOption is one user-facing row of the format list. Video rows carry
// codec and resolution data; audio rows use the "Audio only" resolution
// marker with acodec/audio_quality instead.
type FormatOption struct {
	FormatID         string  `json:"format_id"`
	Resolution       string  `json:"resolution"`
	Extension        string  `json:"extension"`
	Fps              Fps     `json:"fps"`
	VideoCodec       string  `json:"vcodec,omitempty"`
	CodecDescription string  `json:"codec_description,omitempty"`
	AudioCodec       string  `json:"acodec,omitempty"`
	AudioQuality     string  `json:"audio_quality,omitempty"`
	Bitrate          float64 `json:"bitrate"`
	HasAudio         bool    `json:"has_audio"`
	SizeMB           SizeMB  `json:"size_mb"`
	FinalSizeMB      SizeMB  `json:"final_size_mb"`
}

// SizeMB is a size estimate in megabytes that may be unknown. It marshals as
// a number rounded to two decimals, or the string "Unknown".
type SizeMB struct {
	Value float64
	Known bool
}

// KnownSizeMB builds a known size estimate.
func KnownSizeMB(v float64) SizeMB { return SizeMB{Value: v, Known: true} }

func (s SizeMB) MarshalJSON() ([]byte, error) {
	if !s.Known {
		return json.Marshal("Unknown")
	}
	return json.Marshal(math.Round(s.Value*100) / 100)
}

// Fps marshals as a number for video rows, "N/A" for audio rows, or
// "Unknown" when the extractor did not report it.
type Fps struct {
	Value     float64
	Known     bool
	AudioOnly bool
}

func (f Fps) MarshalJSON() ([]byte, error) {
	if f.AudioOnly {
		return json.Marshal("N/A")
	}
	if !f.Known {
		return json.Marshal("Unknown")
	}
	return json.Marshal(f.Value)
}

// DownloadRequest represents a user's download request.
type DownloadRequest struct {
	URL      string `json:"url" binding:"required"`
	FormatID string `json:"format_id" binding:"required"`
}

// InfoRequest represents a video info request.
type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// DownloadResponse acknowledges an accepted download request. VideoID carries
// the locally minted job id; the original client contract keeps the field name.
type DownloadResponse struct {
	Success  bool   `json:"success"`
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// StatusCompleteResponse is returned by the status endpoint once the produced
// file has been located on disk.
type StatusCompleteResponse struct {
	Status       string  `json:"status"`
	DownloadPath string  `json:"download_path"`
	FileSizeMB   float64 `json:"file_size_mb"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
