package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// yt-dlp --newline output, e.g.
//
//	[download] Destination: /tmp/Creator - Title.f137.mp4
//	[download]  42.5% of 10.52MiB at 1.21MiB/s ETA 00:07
//	[download] 100% of 10.52MiB in 00:08
//	[Merger] Merging formats into "/tmp/Creator - Title.mp4"
//	[ExtractAudio] Destination: /tmp/Creator - Title.mp3
var (
	progressRe     = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%\s+of\s+~?\s*([0-9.]+)(B|KiB|MiB|GiB)(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)
	destinationRe  = regexp.MustCompile(`^\[download\]\s+Destination:\s+(.+)$`)
	mergerRe       = regexp.MustCompile(`^\[Merger\]\s+Merging formats into\s+"(.+)"`)
	extractAudioRe = regexp.MustCompile(`^\[ExtractAudio\]\s+Destination:\s+(.+)$`)
)

var sizeUnits = map[string]float64{
	"B":   1,
	"KiB": 1024,
	"MiB": 1024 * 1024,
	"GiB": 1024 * 1024 * 1024,
}

// lineParser folds yt-dlp output lines into progress events and remembers
// the most authoritative output path seen (merger > audio extraction > last
// raw destination).
type lineParser struct {
	lastDestination string
	mergedPath      string
	audioPath       string
	finishedSent    bool
}

func (p *lineParser) parse(line string) (ProgressEvent, bool) {
	line = strings.TrimSpace(line)

	if m := destinationRe.FindStringSubmatch(line); m != nil {
		p.lastDestination = strings.TrimSpace(m[1])
		return ProgressEvent{}, false
	}
	if m := mergerRe.FindStringSubmatch(line); m != nil {
		p.mergedPath = strings.TrimSpace(m[1])
		return p.finished()
	}
	if m := extractAudioRe.FindStringSubmatch(line); m != nil {
		p.audioPath = strings.TrimSpace(m[1])
		return p.finished()
	}

	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return ProgressEvent{}, false
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ProgressEvent{}, false
	}
	size, _ := strconv.ParseFloat(m[2], 64)
	total := int64(size * sizeUnits[m[3]])

	if percent >= 100 {
		return p.finished()
	}

	return ProgressEvent{
		Status:          EventDownloading,
		Percent:         percent,
		DownloadedBytes: int64(percent / 100 * float64(total)),
		TotalBytes:      total,
		Speed:           m[4],
		ETA:             m[5],
	}, true
}

// finished emits a single finished event per download run.
func (p *lineParser) finished() (ProgressEvent, bool) {
	if p.finishedSent {
		return ProgressEvent{}, false
	}
	p.finishedSent = true
	return ProgressEvent{
		Status:  EventFinished,
		Percent: 100,
	}, true
}

func (p *lineParser) outputPath() string {
	switch {
	case p.mergedPath != "":
		return p.mergedPath
	case p.audioPath != "":
		return p.audioPath
	default:
		return p.lastDestination
	}
}
