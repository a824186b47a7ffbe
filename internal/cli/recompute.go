package cli

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/pipeline"
)

var (
	recomputeWorkers   int
	recomputeBatchSize int
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rescore stored palettes against the reference palette",
	Long: `Read every stored row and recompute its contrast colour from the stored
palette, without decoding any video. Rows with palette NONE or a palette
that does not parse are left untouched.

Useful after changing the reference palette, for example:
  framehue recompute --clusters 64 --seed 7`,
	Args: cobra.NoArgs,
	RunE: runRecompute,
}

func init() {
	recomputeCmd.Flags().IntVarP(&recomputeWorkers, "workers", "w", pipeline.DefaultRecomputeWorkers, "number of scoring workers")
	recomputeCmd.Flags().IntVar(&recomputeBatchSize, "batch-size", pipeline.DefaultBatchSize, "rows per database commit")
	addReferenceFlags(recomputeCmd)
}

// applyRecomputeFlags overlays explicitly set flags on the loaded configuration.
func applyRecomputeFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Recompute.Workers = recomputeWorkers
	}
	if flags.Changed("batch-size") {
		cfg.Sink.BatchSize = recomputeBatchSize
	}
	applyReferenceFlags(cmd)
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.Validate()
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	if err := applyRecomputeFlags(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()

	ref, err := buildReference()
	if err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	p := &pipeline.Pipeline{
		Source: &pipeline.RecomputeSource{Store: st, Logger: logger.Named("source")},
		Pool: &pipeline.Pool{
			Workers:   cfg.Recompute.Workers,
			Processor: &pipeline.RecomputeProcessor{Engine: colour.NewContrastEngine(ref), Logger: logger.Named("worker")},
		},
		Sink: &pipeline.Sink{
			Store:     st,
			Mode:      pipeline.ModeUpdate,
			BatchSize: cfg.Sink.BatchSize,
			Logger:    logger.Named("sink"),
		},
		ResultBuffer: cfg.Sink.ResultBuffer,
		Logger:       logger,
	}

	stats, err := p.Run(ctx)
	logStats("recompute", stats)
	if stats.Sink.Unmatched > 0 {
		logger.Warn("some updates matched no row", "unmatched", stats.Sink.Unmatched)
	}
	return err
}
