package model

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Extractor ExtractorConfig
	Downloads DownloadsConfig
	Logging   LoggingConfig
	Security  SecurityConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    int
	Host    string
	Timeout int // seconds
}

// StorageConfig holds download directory configuration
type StorageConfig struct {
	DownloadDir     string
	CleanupInterval int // seconds
	FileTTLSeconds  int // time to live for downloaded files
}

// ExtractorConfig holds settings for the yt-dlp collaborator
type ExtractorConfig struct {
	BinPath         string
	MetadataTimeout int // seconds, applies to metadata probes only
}

// DownloadsConfig holds settings for the background download workers
type DownloadsConfig struct {
	MaxConcurrent           int
	ProgressTTLSeconds      int // how long terminal job records are kept
	ProgressCleanupInterval int // seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string
	FilePath string
}

// SecurityConfig holds security configuration. An empty AllowedDomains list
// means any URL is accepted.
type SecurityConfig struct {
	AllowedDomains []string
}
