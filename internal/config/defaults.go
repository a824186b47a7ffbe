package config

import "slices"

const (
	defaultDriver          = "sqlite"
	defaultDBPath          = "video_colors.db"
	defaultSourceDir       = "Source"
	defaultClusters        = 128
	defaultSeed            = 1
	defaultExtractWorkers  = 8
	defaultRecomputeWorker = 16
	defaultPaletteSize     = 16
	defaultAlgorithm       = "prominent"
	defaultJPEGQuality     = 75
	defaultBatchSize       = 100
	defaultResultBuffer    = 256
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

var defaultExtensions = []string{".mkv", ".mp4", ".webm"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: Store{
			Driver: defaultDriver,
			Path:   defaultDBPath,
		},
		Reference: Reference{
			Clusters: defaultClusters,
			Seed:     defaultSeed,
		},
		Extract: Extract{
			SourceDir:   defaultSourceDir,
			Extensions:  slices.Clone(defaultExtensions),
			Workers:     defaultExtractWorkers,
			PaletteSize: defaultPaletteSize,
			Algorithm:   defaultAlgorithm,
			JPEGQuality: defaultJPEGQuality,
		},
		Recompute: Recompute{
			Workers: defaultRecomputeWorker,
		},
		Sink: Sink{
			BatchSize:    defaultBatchSize,
			ResultBuffer: defaultResultBuffer,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
