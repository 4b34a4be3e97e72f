package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"videofetch/pkg/logger"

	"go.uber.org/zap"
)

// RawFormat is one format record as reported by yt-dlp. Numeric fields are
// pointers because yt-dlp omits or nulls them freely.
type RawFormat struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	Height   *int     `json:"height"`
	Fps      *float64 `json:"fps"`
	VCodec   string   `json:"vcodec"`
	ACodec   string   `json:"acodec"`
	TBR      *float64 `json:"tbr"`
	ABR      *float64 `json:"abr"`
	Filesize *int64   `json:"filesize"`
}

// Metadata is the subset of yt-dlp's info JSON this service consumes.
type Metadata struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Uploader  string      `json:"uploader"`
	Duration  float64     `json:"duration"`
	Thumbnail string      `json:"thumbnail"`
	Formats   []RawFormat `json:"formats"`
}

// Progress event statuses, mirroring yt-dlp's hook states.
const (
	EventDownloading = "downloading"
	EventFinished    = "finished"
)

// ProgressEvent is one progress callback invocation.
type ProgressEvent struct {
	Status          string
	Percent         float64
	DownloadedBytes int64
	TotalBytes      int64
	Speed           string
	ETA             string
}

// ProgressFunc receives progress events during a download.
type ProgressFunc func(ProgressEvent)

// Options select what yt-dlp does with the chosen format.
type Options struct {
	FormatSpec        string
	OutputTemplate    string
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	MergeFormat       string
	PostprocessorArgs string
}

// Client runs the yt-dlp binary.
type Client struct {
	binPath         string
	metadataTimeout time.Duration
}

// New creates a yt-dlp client. metadataTimeout bounds metadata probes only;
// downloads run until yt-dlp finishes or fails.
func New(binPath string, metadataTimeout time.Duration) *Client {
	return &Client{
		binPath:         binPath,
		metadataTimeout: metadataTimeout,
	}
}

// ExtractMetadata fetches video metadata without downloading anything.
func (c *Client) ExtractMetadata(ctx context.Context, videoURL string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.metadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binPath, "-J", "--no-warnings", "--no-playlist", videoURL)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		logger.Logger.Error("Metadata fetch failed",
			zap.String("url", videoURL),
			zap.String("stderr", tail(stderr.String())),
			zap.Error(err))
		return nil, fmt.Errorf("yt-dlp metadata fetch: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata decode: %w", err)
	}
	if meta.ID == "" && len(meta.Formats) == 0 {
		return nil, fmt.Errorf("yt-dlp returned no metadata for %s", videoURL)
	}

	logger.Logger.Info("Metadata retrieved",
		zap.String("id", meta.ID),
		zap.String("title", meta.Title),
		zap.Int("formats", len(meta.Formats)))
	return &meta, nil
}

// Download runs yt-dlp for the given URL, streaming progress events to the
// callback. Returns the output path when yt-dlp reported one.
func (c *Client) Download(ctx context.Context, videoURL string, opts Options, progress ProgressFunc) (string, error) {
	args := buildDownloadArgs(videoURL, opts)
	cmd := exec.CommandContext(ctx, c.binPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("yt-dlp start: %w", err)
	}

	var state lineParser
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ev, ok := state.parse(scanner.Text()); ok && progress != nil {
			progress(ev)
		}
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w: %s", err, tail(stderr.String()))
	}

	return state.outputPath(), nil
}

func buildDownloadArgs(videoURL string, opts Options) []string {
	args := []string{
		"--newline",
		"--no-warnings",
		"--no-playlist",
		"--force-overwrites",
		"-f", opts.FormatSpec,
		"-o", opts.OutputTemplate,
	}
	if opts.ExtractAudio {
		args = append(args, "-x",
			"--audio-format", opts.AudioFormat,
			"--audio-quality", opts.AudioQuality)
	} else {
		args = append(args, "--merge-output-format", opts.MergeFormat)
		if opts.PostprocessorArgs != "" {
			args = append(args, "--postprocessor-args", opts.PostprocessorArgs)
		}
	}
	return append(args, videoURL)
}

// tail keeps error messages readable when yt-dlp dumps a long trace.
func tail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
