package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/image"
	"github.com/jmylchreest/framehue/internal/pipeline"
	"github.com/jmylchreest/framehue/internal/video"
)

var (
	// Extract command flags
	extractWorkers      int
	extractColours      int
	extractAlgorithm    string
	extractQuality      int
	extractMaxDimension int
	extractSkipExisting bool
	extractBatchSize    int
	extractExtensions   []string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [dir]",
	Short: "Extract per-frame palettes and contrast colours from videos",
	Long: `Decode every frame of every video in a directory, extract a dominant
colour palette from each frame and store the palette together with the
reference colour of highest contrast.

Frames whose palette cannot be extracted (for example solid black frames)
are stored with palette NONE and contrast ERROR. Results are committed in
batches; an interrupted run keeps every frame already processed.

Supported containers by default: .mkv, .mp4, .webm

Examples:
  # Process ./Source into ./video_colors.db
  framehue extract

  # Process another directory with 4 workers
  framehue extract -w 4 ~/Videos

  # Use the in-tree k-means quantizer on downscaled frames
  framehue extract -a kmeans --max-dimension 480 ~/Videos

  # Resume, skipping videos that already have rows
  framehue extract --skip-existing ~/Videos`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractWorkers, "workers", "w", pipeline.DefaultExtractWorkers, "number of frame workers")
	extractCmd.Flags().IntVarP(&extractColours, "colours", "c", 16, fmt.Sprintf("palette size per frame (1-%d)", colour.MaxColourCount))
	extractCmd.Flags().StringVarP(&extractAlgorithm, "algorithm", "a", string(colour.AlgorithmProminent), fmt.Sprintf("palette algorithm %v", colour.ValidAlgorithms()))
	extractCmd.Flags().IntVar(&extractQuality, "jpeg-quality", image.DefaultJPEGQuality, "JPEG quality of the still each frame is encoded to (1-100)")
	extractCmd.Flags().IntVar(&extractMaxDimension, "max-dimension", 0, "downscale frames larger than this before extraction (0 keeps full size)")
	extractCmd.Flags().BoolVar(&extractSkipExisting, "skip-existing", false, "skip videos that already have stored rows")
	extractCmd.Flags().IntVar(&extractBatchSize, "batch-size", pipeline.DefaultBatchSize, "rows per database commit")
	extractCmd.Flags().StringSliceVar(&extractExtensions, "ext", nil, "video file extensions to include (default .mkv,.mp4,.webm)")
	addReferenceFlags(extractCmd)
}

// applyExtractFlags overlays explicitly set flags on the loaded configuration.
func applyExtractFlags(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if len(args) == 1 {
		cfg.Extract.SourceDir = args[0]
	}
	if flags.Changed("workers") {
		cfg.Extract.Workers = extractWorkers
	}
	if flags.Changed("colours") {
		cfg.Extract.PaletteSize = extractColours
	}
	if flags.Changed("algorithm") {
		cfg.Extract.Algorithm = extractAlgorithm
	}
	if flags.Changed("jpeg-quality") {
		cfg.Extract.JPEGQuality = extractQuality
	}
	if flags.Changed("max-dimension") {
		cfg.Extract.MaxDimension = extractMaxDimension
	}
	if flags.Changed("skip-existing") {
		cfg.Extract.SkipExisting = extractSkipExisting
	}
	if flags.Changed("batch-size") {
		cfg.Sink.BatchSize = extractBatchSize
	}
	if flags.Changed("ext") {
		cfg.Extract.Extensions = extractExtensions
	}
	applyReferenceFlags(cmd)
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.Validate()
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	if err := applyExtractFlags(cmd, args); err != nil {
		return err
	}
	ctx := cmd.Context()

	extractor, err := colour.NewExtractor(colour.Algorithm(cfg.Extract.Algorithm))
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	ref, err := buildReference()
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	logger.Info("extracting",
		"dir", cfg.Extract.SourceDir,
		"workers", cfg.Extract.Workers,
		"palette_size", cfg.Extract.PaletteSize,
		"algorithm", cfg.Extract.Algorithm)

	p := &pipeline.Pipeline{
		Source: &pipeline.ExtractionSource{
			Dir:          cfg.Extract.SourceDir,
			Extensions:   cfg.Extract.Extensions,
			Reader:       video.NewFFmpegReader(),
			Store:        st,
			SkipExisting: cfg.Extract.SkipExisting,
			Logger:       logger.Named("source"),
		},
		Pool: &pipeline.Pool{
			Workers: cfg.Extract.Workers,
			Processor: &pipeline.ExtractProcessor{
				Extractor:   extractor,
				Engine:      colour.NewContrastEngine(ref),
				PaletteSize: cfg.Extract.PaletteSize,
				Still: image.StillOptions{
					Quality:      cfg.Extract.JPEGQuality,
					MaxDimension: cfg.Extract.MaxDimension,
				},
				Logger: logger.Named("worker"),
			},
		},
		Sink: &pipeline.Sink{
			Store:     st,
			Mode:      pipeline.ModeInsert,
			BatchSize: cfg.Sink.BatchSize,
			Logger:    logger.Named("sink"),
		},
		ResultBuffer: cfg.Sink.ResultBuffer,
		Logger:       logger,
	}

	stats, err := p.Run(ctx)
	logStats("extract", stats)
	return err
}
