package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"videofetch/internal/model"
	"videofetch/pkg/validator"
)

// minFileSize is the corruption floor: anything smaller than 1 KiB is
// treated as a failed download.
const minFileSize = 1024

// recencyWindow bounds the last-resort match on recently modified files.
const recencyWindow = 60 * time.Second

// CheckFile verifies that path exists and clears the corruption floor.
func CheckFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, model.ErrFileNotFound
	}
	if info.Size() < minFileSize {
		return 0, model.ErrCorruptFile
	}
	return info.Size(), nil
}

// Resolve locates the file a download actually produced. yt-dlp may have
// normalized the name or negotiated a different container, so resolution
// escalates: exact expected path, then name-variant matching against the
// directory, then any file with the extension modified within the last
// minute. The returned path always exists and clears the corruption floor.
func Resolve(dir, originalName, sanitizedName, ext string) (string, int64, error) {
	exact := filepath.Join(dir, sanitizedName+"."+ext)
	if size, err := CheckFile(exact); err == nil {
		return exact, size, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, model.ErrFileNotFound
	}

	if name, ok := matchByName(entries, originalName, sanitizedName, ext); ok {
		path := filepath.Join(dir, name)
		size, err := CheckFile(path)
		if err != nil {
			return "", 0, err
		}
		return path, size, nil
	}

	if name, ok := matchByRecency(entries, ext); ok {
		path := filepath.Join(dir, name)
		size, err := CheckFile(path)
		if err != nil {
			return "", 0, err
		}
		return path, size, nil
	}

	return "", 0, model.ErrFileNotFound
}

// nameVariants lists the base names the produced file might start with,
// covering the sanitation differences between this service and yt-dlp.
func nameVariants(originalName, sanitizedName string) []string {
	seen := make(map[string]struct{})
	var variants []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	add(originalName)
	add(sanitizedName)
	add(strings.ReplaceAll(originalName, "+", " "))
	add(strings.ReplaceAll(originalName, "&", "and"))
	add(strings.ReplaceAll(originalName, "'", ""))
	add(validator.SanitizeFilename(originalName))
	return variants
}

func matchByName(entries []os.DirEntry, originalName, sanitizedName, ext string) (string, bool) {
	variants := nameVariants(originalName, sanitizedName)

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), "."+ext) {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))

		for _, variant := range variants {
			v := strings.ToLower(variant)
			underscored := strings.ReplaceAll(v, " ", "_")
			if strings.HasPrefix(base, v) || strings.Contains(base, v) || strings.HasPrefix(base, underscored) {
				return entry.Name(), true
			}
		}
	}
	return "", false
}

func matchByRecency(entries []os.DirEntry, ext string) (string, bool) {
	cutoff := time.Now().Add(-recencyWindow)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), "."+ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			return entry.Name(), true
		}
	}
	return "", false
}
