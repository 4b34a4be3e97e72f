package service

import (
	"errors"
	"math"
	"testing"

	"videofetch/internal/extractor"
	"videofetch/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64     { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func videoFormat(id string, height int, tbr float64, acodec string) extractor.RawFormat {
	return extractor.RawFormat{
		FormatID: id,
		Ext:      "mp4",
		Height:   intPtr(height),
		VCodec:   "avc1.640028",
		ACodec:   acodec,
		TBR:      floatPtr(tbr),
	}
}

func audioFormat(id string, abr float64) extractor.RawFormat {
	return extractor.RawFormat{
		FormatID: id,
		Ext:      "m4a",
		VCodec:   "none",
		ACodec:   "mp4a.40.2",
		ABR:      floatPtr(abr),
	}
}

func TestNormalizeFormats_EmptyIsError(t *testing.T) {
	meta := &extractor.Metadata{
		Formats: []extractor.RawFormat{
			{FormatID: "1", Ext: "mp4", VCodec: "avc1"},              // no height
			{FormatID: "", Ext: "mp4", Height: intPtr(720)},          // no id
			{FormatID: "3", Ext: "", Height: intPtr(720)},            // no ext
			{FormatID: "4", Ext: "mhtml", Height: intPtr(720), VCodec: "none", ACodec: "none"}, // storyboard
		},
	}

	_, err := normalizeFormats(meta)
	if !errors.Is(err, model.ErrNoFormats) {
		t.Fatalf("expected ErrNoFormats, got %v", err)
	}
}

func TestNormalizeFormats_OrderingIsDescending(t *testing.T) {
	meta := &extractor.Metadata{
		Duration: 60,
		Formats: []extractor.RawFormat{
			videoFormat("a", 480, 500, "mp4a"),
			videoFormat("b", 1080, 2000, "mp4a"),
			videoFormat("c", 720, 1000, "mp4a"),
			videoFormat("d", 1080, 4000, "mp4a"),
		},
	}

	formats, err := normalizeFormats(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"d", "b", "c", "a"}
	if len(formats) != len(wantOrder) {
		t.Fatalf("expected %d formats, got %d", len(wantOrder), len(formats))
	}
	for i, id := range wantOrder {
		if formats[i].FormatID != id {
			t.Fatalf("position %d: want format %q, got %q", i, id, formats[i].FormatID)
		}
	}
	if formats[0].Resolution != "1080p" {
		t.Fatalf("expected resolution 1080p, got %q", formats[0].Resolution)
	}
}

func TestNormalizeFormats_MissingBitrateSortsLast(t *testing.T) {
	noBitrate := videoFormat("x", 720, 0, "mp4a")
	noBitrate.TBR = nil

	meta := &extractor.Metadata{
		Formats: []extractor.RawFormat{
			noBitrate,
			videoFormat("y", 720, 1500, "mp4a"),
		},
	}

	formats, err := normalizeFormats(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if formats[0].FormatID != "y" || formats[1].FormatID != "x" {
		t.Fatalf("expected [y x], got [%s %s]", formats[0].FormatID, formats[1].FormatID)
	}
}

func TestNormalizeFormats_AudioAppendedAndSortedByNumericID(t *testing.T) {
	meta := &extractor.Metadata{
		Duration: 60,
		Formats: []extractor.RawFormat{
			audioFormat("139", 48),
			videoFormat("137", 1080, 2000, "mp4a"),
			audioFormat("251", 160),
			audioFormat("drc-low", 64), // non-numeric id sorts as 0
		},
	}

	formats, err := normalizeFormats(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(formats) != 4 {
		t.Fatalf("expected 4 formats, got %d", len(formats))
	}
	if formats[0].FormatID != "137" {
		t.Fatalf("video row must come first, got %q", formats[0].FormatID)
	}

	wantAudio := []string{"251", "139", "drc-low"}
	for i, id := range wantAudio {
		row := formats[1+i]
		if row.FormatID != id {
			t.Fatalf("audio position %d: want %q, got %q", i, id, row.FormatID)
		}
		if row.Resolution != "Audio only" {
			t.Fatalf("audio row resolution = %q", row.Resolution)
		}
		if !row.HasAudio {
			t.Fatal("audio row must report has_audio")
		}
	}
	if formats[1].AudioQuality != "160kbps" {
		t.Fatalf("audio quality = %q, want 160kbps", formats[1].AudioQuality)
	}
}

func TestEstimateSize_ExactFilesizeWins(t *testing.T) {
	size := estimateSize(int64Ptr(10*1024*1024), floatPtr(9999), 600)
	if !size.Known || !almostEqual(size.Value, 10) {
		t.Fatalf("expected exactly 10 MB, got %+v", size)
	}
}

func TestEstimateSize_BitrateFallback(t *testing.T) {
	// 1000 kbps for 80 s: 1000*1000*80/8 bytes = 10,000,000 bytes.
	size := estimateSize(nil, floatPtr(1000), 80)
	want := 10000000.0 / (1024 * 1024)
	if !size.Known || !almostEqual(size.Value, want) {
		t.Fatalf("expected %.6f MB, got %+v", want, size)
	}
}

func TestEstimateSize_Unknown(t *testing.T) {
	if size := estimateSize(nil, nil, 80); size.Known {
		t.Fatalf("expected unknown size, got %+v", size)
	}
	if size := estimateSize(nil, floatPtr(1000), 0); size.Known {
		t.Fatalf("expected unknown size without duration, got %+v", size)
	}
}

func TestNormalizeFormats_CombinedSizeForVideoWithoutAudio(t *testing.T) {
	video := videoFormat("137", 1080, 0, "none")
	video.TBR = nil
	video.Filesize = int64Ptr(8 * 1024 * 1024)

	meta := &extractor.Metadata{
		Duration: 100,
		Formats: []extractor.RawFormat{
			video,
			audioFormat("140", 128), // 128 kbps * 100 s / 8 = 1,600,000 bytes
		},
	}

	formats, err := normalizeFormats(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := formats[0]
	if row.HasAudio {
		t.Fatal("format 137 must be marked as lacking audio")
	}
	if !almostEqual(row.SizeMB.Value, 8) {
		t.Fatalf("video-only size = %+v, want 8 MB", row.SizeMB)
	}
	wantCombined := 8 + 1600000.0/(1024*1024)
	if !row.FinalSizeMB.Known || !almostEqual(row.FinalSizeMB.Value, wantCombined) {
		t.Fatalf("combined size = %+v, want %.6f", row.FinalSizeMB, wantCombined)
	}
}

func TestNormalizeFormats_AudioOnlySideKnown(t *testing.T) {
	video := videoFormat("137", 1080, 0, "none")
	video.TBR = nil // video size unknown

	meta := &extractor.Metadata{
		Duration: 100,
		Formats: []extractor.RawFormat{
			video,
			audioFormat("140", 128),
		},
	}

	formats, err := normalizeFormats(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := formats[0]
	if row.SizeMB.Known {
		t.Fatalf("video size should be unknown, got %+v", row.SizeMB)
	}
	wantAudio := 1600000.0 / (1024 * 1024)
	if !row.FinalSizeMB.Known || !almostEqual(row.FinalSizeMB.Value, wantAudio) {
		t.Fatalf("final size should be the audio side alone, got %+v", row.FinalSizeMB)
	}
}

func TestFindBestAudio(t *testing.T) {
	noBitrate := audioFormat("250", 0)
	noBitrate.ABR = nil

	formats := []extractor.RawFormat{
		noBitrate,
		audioFormat("139", 48),
		audioFormat("251", 160),
		audioFormat("140", 128),
	}

	best := findBestAudio(formats)
	if best == nil || best.FormatID != "251" {
		t.Fatalf("expected best audio 251, got %+v", best)
	}
}

func TestFindBestAudio_NumericBeatsMissing(t *testing.T) {
	noBitrate := audioFormat("250", 0)
	noBitrate.ABR = nil

	best := findBestAudio([]extractor.RawFormat{noBitrate, audioFormat("139", 48)})
	if best == nil || best.FormatID != "139" {
		t.Fatalf("expected 139 to beat the bitrate-less format, got %+v", best)
	}
}

func TestFindBestAudio_TieKeepsFirst(t *testing.T) {
	best := findBestAudio([]extractor.RawFormat{audioFormat("140", 128), audioFormat("141", 128)})
	if best == nil || best.FormatID != "140" {
		t.Fatalf("expected tie to keep the first format, got %+v", best)
	}
}

func TestDescribeCodec(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"avc1.640028", "H.264"},
		{"h264", "H.264"},
		{"av01.0.08M.08", "AV1"},
		{"vp9", "VP9"},
		{"vp8.0", "VP8"},
		{"hev1.1.6", "HEV1.1.6"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := describeCodec(tc.in); got != tc.want {
			t.Fatalf("describeCodec(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
