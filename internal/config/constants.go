package config

import "time"

// Application constants
const (
	AppName = "alfaapp"

	// Storage backends
	StorageMemory = "memory"
	StorageMinIO  = "minio"

	// Analysis defaults
	DefaultPreviewRows    = 5
	DefaultHistogramBins  = 20
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	DefaultTileURL        = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

	// Session artifacts
	DefaultArtifactTTL = 2 * time.Hour

	// Rate limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	DefaultRequestTimeout = 2 * time.Minute

	DefaultLogFile = "logs/alfaapp.log"
)
