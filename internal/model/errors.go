package model

import "errors"

// Failure kinds surfaced by the service layer. Handlers map these onto HTTP
// statuses with errors.Is; background download failures are never returned
// through HTTP, they land in the job record instead.
var (
	ErrExtraction   = errors.New("could not fetch video information")
	ErrNoFormats    = errors.New("no downloadable formats found for this video")
	ErrFileNotFound = errors.New("downloaded file not found")
	ErrCorruptFile  = errors.New("download failed, file is empty or corrupt")
)
