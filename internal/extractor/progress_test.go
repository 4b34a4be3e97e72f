package extractor

import (
	"math"
	"testing"
)

func TestLineParser_DownloadingLine(t *testing.T) {
	var p lineParser

	ev, ok := p.parse("[download]  42.5% of 10.52MiB at 1.21MiB/s ETA 00:07")
	if !ok {
		t.Fatal("expected a progress event")
	}
	if ev.Status != EventDownloading {
		t.Fatalf("status = %q", ev.Status)
	}
	if ev.Percent != 42.5 {
		t.Fatalf("percent = %v", ev.Percent)
	}
	mib := float64(1024 * 1024)
	wantTotal := int64(10.52 * mib)
	if ev.TotalBytes != wantTotal {
		t.Fatalf("total = %d, want %d", ev.TotalBytes, wantTotal)
	}
	wantDownloaded := int64(0.425 * float64(wantTotal))
	if math.Abs(float64(ev.DownloadedBytes-wantDownloaded)) > 1 {
		t.Fatalf("downloaded = %d, want about %d", ev.DownloadedBytes, wantDownloaded)
	}
	if ev.Speed != "1.21MiB/s" || ev.ETA != "00:07" {
		t.Fatalf("speed/eta = %q/%q", ev.Speed, ev.ETA)
	}
}

func TestLineParser_EstimatedSizeLine(t *testing.T) {
	var p lineParser

	ev, ok := p.parse("[download]   5.0% of ~ 200.00KiB at 512.00KiB/s ETA 00:01")
	if !ok {
		t.Fatal("expected a progress event")
	}
	if ev.TotalBytes != 200*1024 {
		t.Fatalf("total = %d, want %d", ev.TotalBytes, 200*1024)
	}
}

func TestLineParser_HundredPercentIsFinished(t *testing.T) {
	var p lineParser

	ev, ok := p.parse("[download] 100% of 10.52MiB in 00:08")
	if !ok || ev.Status != EventFinished || ev.Percent != 100 {
		t.Fatalf("expected finished event, got (%+v, %v)", ev, ok)
	}

	// finished is emitted once per run
	if _, ok := p.parse(`[Merger] Merging formats into "/tmp/out.mp4"`); ok {
		t.Fatal("second finished event must be suppressed")
	}
	if p.outputPath() != "/tmp/out.mp4" {
		t.Fatalf("output path = %q", p.outputPath())
	}
}

func TestLineParser_OutputPathPriority(t *testing.T) {
	var p lineParser

	p.parse("[download] Destination: /tmp/Creator - Title.f137.mp4")
	if p.outputPath() != "/tmp/Creator - Title.f137.mp4" {
		t.Fatalf("destination not captured: %q", p.outputPath())
	}

	p.parse(`[Merger] Merging formats into "/tmp/Creator - Title.mp4"`)
	if p.outputPath() != "/tmp/Creator - Title.mp4" {
		t.Fatalf("merger path must win: %q", p.outputPath())
	}
}

func TestLineParser_ExtractAudioDestination(t *testing.T) {
	var p lineParser

	p.parse("[download] Destination: /tmp/Creator - Title.webm")
	ev, ok := p.parse("[ExtractAudio] Destination: /tmp/Creator - Title.mp3")
	if !ok || ev.Status != EventFinished {
		t.Fatal("audio extraction must emit the finished event")
	}
	if p.outputPath() != "/tmp/Creator - Title.mp3" {
		t.Fatalf("output path = %q", p.outputPath())
	}
}

func TestLineParser_IgnoresNoise(t *testing.T) {
	var p lineParser

	lines := []string{
		"[youtube] abc123: Downloading webpage",
		"[info] abc123: Downloading 1 format(s): 137+140",
		"",
		"random noise",
	}
	for _, line := range lines {
		if _, ok := p.parse(line); ok {
			t.Fatalf("line %q must not produce an event", line)
		}
	}
}

func TestBuildDownloadArgs_Merge(t *testing.T) {
	args := buildDownloadArgs("https://example/video", Options{
		FormatSpec:        "137+bestaudio",
		OutputTemplate:    "/tmp/Creator - Title.%(ext)s",
		MergeFormat:       "mp4",
		PostprocessorArgs: "ffmpeg:-c:v copy -c:a aac -b:a 192k",
	})

	assertSequence(t, args, "-f", "137+bestaudio")
	assertSequence(t, args, "--merge-output-format", "mp4")
	assertSequence(t, args, "--postprocessor-args", "ffmpeg:-c:v copy -c:a aac -b:a 192k")
	if args[len(args)-1] != "https://example/video" {
		t.Fatalf("URL must come last, got %q", args[len(args)-1])
	}
	for _, a := range args {
		if a == "-x" {
			t.Fatal("merge download must not extract audio")
		}
	}
}

func TestBuildDownloadArgs_ExtractAudio(t *testing.T) {
	args := buildDownloadArgs("https://example/video", Options{
		FormatSpec:     "140",
		OutputTemplate: "/tmp/Creator - Title.%(ext)s",
		ExtractAudio:   true,
		AudioFormat:    "mp3",
		AudioQuality:   "192K",
	})

	assertSequence(t, args, "--audio-format", "mp3")
	assertSequence(t, args, "--audio-quality", "192K")
	for _, a := range args {
		if a == "--merge-output-format" {
			t.Fatal("audio extraction must not set a merge container")
		}
	}
}

// assertSequence checks that flag is present and immediately followed by value.
func assertSequence(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i, a := range args {
		if a == flag {
			if i+1 >= len(args) || args[i+1] != value {
				t.Fatalf("flag %s followed by %q, want %q", flag, args[i+1], value)
			}
			return
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
}
