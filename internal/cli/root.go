// Package cli provides the command-line interface for framehue.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/config"
	"github.com/jmylchreest/framehue/internal/logging"
	"github.com/jmylchreest/framehue/internal/pipeline"
	"github.com/jmylchreest/framehue/internal/store"
	"github.com/jmylchreest/framehue/internal/version"
)

var (
	// Global flags
	globalConfigPath string
	globalLogFormat  string
	globalDBPath     string
	globalDriver     string
	globalDSN        string

	// Loaded in PersistentPreRunE for every command.
	cfg    *config.Config
	logger hclog.Logger = hclog.NewNullLogger()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "framehue",
		Short: "Per-frame palette and contrast colour extraction for videos",
		Long: `framehue decodes every frame of every video in a directory, extracts a
dominant colour palette per frame and picks the reference colour that
contrasts most with it. Results are stored per frame in a database and
can be rescored, summarised as a histogram, or exported as CSV.

The reference palette is built by clustering the CSS3 named colours, and
contrast is the mean CIEDE2000 distance to the frame's palette.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadGlobals,
	}
)

// Execute runs the root command with a context cancelled on SIGINT or
// SIGTERM. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, pipeline.ErrInterrupted) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", "", "config file (default: <user config dir>/framehue/config.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalDBPath, "db", "", "sqlite database path")
	rootCmd.PersistentFlags().StringVar(&globalDriver, "driver", "", "store driver (sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&globalDSN, "dsn", "", "postgres connection string")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Set version template
	rootCmd.SetVersionTemplate(version.String() + "\n")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(histogramCmd)
	rootCmd.AddCommand(referenceCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
}

// loadGlobals loads the configuration, applies global flag overrides and
// builds the logger.
func loadGlobals(cmd *cobra.Command, _ []string) error {
	loaded, path, exists, err := config.Load(globalConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		loaded.Store.Path = globalDBPath
	}
	if flags.Changed("driver") {
		loaded.Store.Driver = globalDriver
	}
	if flags.Changed("dsn") {
		loaded.Store.DSN = globalDSN
	}
	if flags.Changed("log-format") {
		loaded.Logging.Format = globalLogFormat
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		loaded.Logging.Level = "debug"
	}
	if quiet, _ := flags.GetBool("quiet"); quiet {
		loaded.Logging.Level = "error"
	}
	if err := loaded.Normalize(); err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, err := logging.New(logging.Options{
		Name:   "framehue",
		Level:  loaded.Logging.Level,
		Format: loaded.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	cfg, logger = loaded, l
	logger.Debug("configuration loaded", "path", path, "exists", exists, "driver", cfg.Store.Driver)
	flags.Visit(func(f *pflag.Flag) {
		logger.Debug("flag set", "name", f.Name, "value", f.Value.String())
	})
	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build date, commit hash, and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, store.Options{
		Driver: store.Driver(cfg.Store.Driver),
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func buildReference() (*colour.Reference, error) {
	ref, err := colour.BuildReference(colour.Catalog(), cfg.Reference.Clusters, cfg.Reference.Seed)
	if err != nil {
		return nil, fmt.Errorf("build reference palette: %w", err)
	}
	logger.Debug("reference palette built", "clusters", ref.Len(), "seed", ref.Seed())
	return ref, nil
}

// logStats reports a finished run at info level.
func logStats(mode string, stats pipeline.Stats) {
	logger.Info("summary",
		"mode", mode,
		"files", stats.Source.Files,
		"files_skipped", stats.Source.FilesSkipped,
		"files_failed", stats.Source.FilesFailed,
		"units", stats.Pool.Processed,
		"failed", stats.Pool.Failed,
		"rows", stats.Sink.Rows,
		"unmatched", stats.Sink.Unmatched,
		"batches", stats.Sink.Batches,
		"elapsed", stats.Elapsed.String())
}
