package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"videofetch/internal/extractor"
	"videofetch/internal/model"
)

const bytesPerMB = 1024 * 1024

// normalizeFormats shapes yt-dlp's raw format list into the user-facing
// rows: video formats first, ordered by resolution then bitrate descending,
// audio-only formats appended after. Video formats lacking embedded audio
// get a combined size estimate that includes the best audio track they would
// be merged with.
func normalizeFormats(meta *extractor.Metadata) ([]model.FormatOption, error) {
	bestAudio := findBestAudio(meta.Formats)

	type videoRow struct {
		opt     model.FormatOption
		height  int
		bitrate float64
	}
	var videos []videoRow

	for _, f := range meta.Formats {
		if f.Height == nil || f.VCodec == "none" {
			continue
		}
		if f.FormatID == "" || f.Ext == "" {
			continue
		}

		hasAudio := f.ACodec != "none"
		size := estimateSize(f.Filesize, f.TBR, meta.Duration)

		finalSize := size
		if !hasAudio && bestAudio != nil {
			audioSize := estimateSize(bestAudio.Filesize, bestAudio.ABR, meta.Duration)
			switch {
			case size.Known && audioSize.Known:
				finalSize = model.KnownSizeMB(size.Value + audioSize.Value)
			case audioSize.Known:
				finalSize = audioSize
			}
		}

		bitrate := 0.0
		if f.TBR != nil {
			bitrate = *f.TBR
		}

		fps := model.Fps{}
		if f.Fps != nil {
			fps = model.Fps{Value: *f.Fps, Known: true}
		}

		videos = append(videos, videoRow{
			opt: model.FormatOption{
				FormatID:         f.FormatID,
				Resolution:       fmt.Sprintf("%dp", *f.Height),
				Extension:        f.Ext,
				Fps:              fps,
				VideoCodec:       f.VCodec,
				CodecDescription: describeCodec(f.VCodec),
				Bitrate:          bitrate,
				HasAudio:         hasAudio,
				SizeMB:           size,
				FinalSizeMB:      finalSize,
			},
			height:  *f.Height,
			bitrate: bitrate,
		})
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].height != videos[j].height {
			return videos[i].height > videos[j].height
		}
		return videos[i].bitrate > videos[j].bitrate
	})

	type audioRow struct {
		opt model.FormatOption
		id  float64
	}
	var audios []audioRow

	for _, f := range meta.Formats {
		if f.VCodec != "none" || f.ACodec == "none" {
			continue
		}

		size := estimateSize(f.Filesize, f.ABR, meta.Duration)

		quality := "Unknown"
		if f.ABR != nil && *f.ABR > 0 {
			quality = fmt.Sprintf("%dkbps", int(*f.ABR))
		}

		audios = append(audios, audioRow{
			opt: model.FormatOption{
				FormatID:     f.FormatID,
				Resolution:   "Audio only",
				Extension:    f.Ext,
				Fps:          model.Fps{AudioOnly: true},
				AudioCodec:   f.ACodec,
				AudioQuality: quality,
				HasAudio:     true,
				SizeMB:       size,
				FinalSizeMB:  size,
			},
			id: numericFormatID(f.FormatID),
		})
	}

	sort.SliceStable(audios, func(i, j int) bool {
		return audios[i].id > audios[j].id
	})

	all := make([]model.FormatOption, 0, len(videos)+len(audios))
	for _, v := range videos {
		all = append(all, v.opt)
	}
	for _, a := range audios {
		all = append(all, a.opt)
	}

	if len(all) == 0 {
		return nil, model.ErrNoFormats
	}
	return all, nil
}

// findBestAudio picks the audio-only format with the highest numeric
// bitrate. A format with a numeric bitrate beats one without; ties keep the
// first found.
func findBestAudio(formats []extractor.RawFormat) *extractor.RawFormat {
	var best *extractor.RawFormat
	for i := range formats {
		f := &formats[i]
		if f.VCodec != "none" || f.ACodec == "none" {
			continue
		}
		if best == nil {
			best = f
			continue
		}
		switch {
		case f.ABR != nil && best.ABR != nil:
			if *f.ABR > *best.ABR {
				best = f
			}
		case f.ABR != nil:
			best = f
		}
	}
	return best
}

// estimateSize prefers the exact reported filesize, falls back to the
// bitrate-times-duration approximation, and otherwise reports unknown.
func estimateSize(filesize *int64, bitrateKbps *float64, durationSec float64) model.SizeMB {
	if filesize != nil && *filesize > 0 {
		return model.KnownSizeMB(float64(*filesize) / bytesPerMB)
	}
	if bitrateKbps != nil && *bitrateKbps > 0 && durationSec > 0 {
		return model.KnownSizeMB(*bitrateKbps * 1000 * durationSec / 8 / bytesPerMB)
	}
	return model.SizeMB{}
}

// describeCodec maps a vcodec string to a human-readable label.
func describeCodec(vcodec string) string {
	if vcodec == "" {
		return ""
	}
	switch {
	case strings.Contains(vcodec, "avc") || strings.Contains(vcodec, "h264"):
		return "H.264"
	case strings.Contains(vcodec, "av1"):
		return "AV1"
	case strings.Contains(vcodec, "vp9"):
		return "VP9"
	case strings.Contains(vcodec, "vp8"):
		return "VP8"
	default:
		return strings.ToUpper(vcodec)
	}
}

// numericFormatID treats a purely numeric format id as its value and
// anything else as 0 for ordering purposes.
func numericFormatID(id string) float64 {
	if id == "" {
		return 0
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return 0
		}
	}
	v, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return 0
	}
	return v
}
