package storage

import (
	"os"
	"path/filepath"
	"time"

	"videofetch/internal/model"
	"videofetch/pkg/logger"

	"go.uber.org/zap"
)

// Manager owns the shared download directory: it makes sure it exists, hands
// out output path templates, and removes stale files on a timer.
type Manager struct {
	cfg      *model.StorageConfig
	quitChan chan bool
}

// NewManager creates a new storage manager
func NewManager(cfg *model.StorageConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		quitChan: make(chan bool),
	}
}

// Start starts the cleanup routine
func (m *Manager) Start() {
	go m.cleanupRoutine()
}

// Stop stops the cleanup routine
func (m *Manager) Stop() {
	select {
	case m.quitChan <- true:
	default:
	}
}

// EnsureDownloadDir ensures the download directory exists
func (m *Manager) EnsureDownloadDir() error {
	return os.MkdirAll(m.cfg.DownloadDir, 0755)
}

// DownloadDir returns the configured download directory
func (m *Manager) DownloadDir() string {
	return m.cfg.DownloadDir
}

// OutputTemplate returns a yt-dlp output template for the given base name.
// The extension placeholder is filled in by yt-dlp after container
// negotiation.
func (m *Manager) OutputTemplate(baseName string) string {
	return filepath.Join(m.cfg.DownloadDir, baseName+".%(ext)s")
}

// FilePath joins a bare filename onto the download directory.
func (m *Manager) FilePath(filename string) string {
	return filepath.Join(m.cfg.DownloadDir, filepath.Base(filename))
}

func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(time.Duration(m.cfg.CleanupInterval) * time.Second)
	defer ticker.Stop()

	if logger.Logger != nil {
		logger.Logger.Info("Storage cleanup routine started",
			zap.Int("cleanup_interval_seconds", m.cfg.CleanupInterval),
			zap.Int("file_ttl_seconds", m.cfg.FileTTLSeconds))
	}

	for {
		select {
		case <-m.quitChan:
			if logger.Logger != nil {
				logger.Logger.Info("Storage cleanup routine stopped")
			}
			return
		case <-ticker.C:
			m.cleanupExpiredFiles()
		}
	}
}

// cleanupExpiredFiles removes downloaded files older than the TTL. The
// download directory may be shared (system temp), so only regular files are
// touched.
func (m *Manager) cleanupExpiredFiles() {
	entries, err := os.ReadDir(m.cfg.DownloadDir)
	if err != nil {
		if logger.Logger != nil {
			logger.Logger.Error("Failed to scan download directory", zap.Error(err))
		}
		return
	}

	cutoff := time.Now().Add(-time.Duration(m.cfg.FileTTLSeconds) * time.Second)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.cfg.DownloadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) && logger.Logger != nil {
				logger.Logger.Error("Failed to remove file", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		deleted++
	}

	if deleted > 0 && logger.Logger != nil {
		logger.Logger.Info("Storage cleanup completed", zap.Int("deleted_count", deleted))
	}
}

// ManualCleanup manually triggers a cleanup run (useful for testing)
func (m *Manager) ManualCleanup() {
	m.cleanupExpiredFiles()
}
