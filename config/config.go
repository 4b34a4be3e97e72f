package config

import (
	"os"
	"strconv"
	"strings"

	"videofetch/internal/model"

	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables
func Load() *model.Config {
	godotenv.Load()

	cfg := &model.Config{
		Server: model.ServerConfig{
			Port:    getEnvInt("SERVER_PORT", 8080),
			Host:    getEnvStr("SERVER_HOST", "0.0.0.0"),
			Timeout: getEnvInt("SERVER_TIMEOUT", 300),
		},
		Storage: model.StorageConfig{
			DownloadDir:     getEnvStr("DOWNLOAD_DIR", os.TempDir()),
			CleanupInterval: getEnvInt("STORAGE_CLEANUP_INTERVAL", 3600),
			FileTTLSeconds:  getEnvInt("FILE_TTL_SECONDS", 86400),
		},
		Extractor: model.ExtractorConfig{
			BinPath:         getEnvStr("YTDLP_PATH", "yt-dlp"),
			MetadataTimeout: getEnvInt("YTDLP_METADATA_TIMEOUT", 60),
		},
		Downloads: model.DownloadsConfig{
			MaxConcurrent:           getEnvInt("MAX_CONCURRENT_DOWNLOADS", 3),
			ProgressTTLSeconds:      getEnvInt("PROGRESS_TTL_SECONDS", 3600),
			ProgressCleanupInterval: getEnvInt("PROGRESS_CLEANUP_INTERVAL", 300),
		},
		Logging: model.LoggingConfig{
			Level:    getEnvStr("LOG_LEVEL", "info"),
			FilePath: getEnvStr("LOG_FILE", "./log/app.log"),
		},
		Security: model.SecurityConfig{
			AllowedDomains: parseDomains(getEnvStr("ALLOWED_DOMAINS", "")),
		},
	}

	validate(cfg)

	return cfg
}

// parseDomains splits a comma-separated domain list, dropping blanks. An
// empty result means every domain is allowed.
func parseDomains(raw string) []string {
	var domains []string
	for _, d := range strings.Split(raw, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// validate resets values the server cannot run with
func validate(cfg *model.Config) {
	if cfg.Downloads.MaxConcurrent < 1 {
		cfg.Downloads.MaxConcurrent = 3
	}
	if cfg.Extractor.MetadataTimeout < 1 {
		cfg.Extractor.MetadataTimeout = 60
	}
	if cfg.Downloads.ProgressCleanupInterval < 1 {
		cfg.Downloads.ProgressCleanupInterval = 300
	}
	if cfg.Storage.CleanupInterval < 1 {
		cfg.Storage.CleanupInterval = 3600
	}
}

func getEnvStr(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	valStr := getEnvStr(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}
