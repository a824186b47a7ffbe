package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/framehue/internal/compression"
	"github.com/jmylchreest/framehue/internal/store"
)

var (
	exportForce     bool
	importBatchSize int
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write all stored rows to a CSV file",
	Long: `Write every stored row as CSV with the header
video_name,video_frame,palette,contrast, ordered by video and frame.

A file name ending in .gz or .xz is compressed accordingly. Use - to write
uncompressed CSV to standard output.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Insert rows from a CSV file written by export",
	Long: `Read CSV rows in the export format and insert them into the store.
Compressed input (.gz, .xz, .bz2) is detected from the file name. Use - to
read from standard input.

Rows are appended; importing the same file twice stores duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "overwrite an existing file")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 0, "rows per database commit (default from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := args[0]

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if target == "-" {
		n, err := store.ExportCSV(ctx, st, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		logger.Info("exported rows", "rows", n)
		return nil
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if exportForce {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(target, flag, 0o644) // #nosec G304 - user-specified output path
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	n, err := exportTo(ctx, st, f, compression.FormatFromPath(target))
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", target, closeErr)
	}
	if err != nil {
		return err
	}

	logger.Info("exported rows", "rows", n, "file", target)
	return nil
}

func exportTo(ctx context.Context, st store.Store, w io.Writer, format compression.Format) (int, error) {
	cw, err := compression.NewWriter(w, format)
	if err != nil {
		return 0, err
	}
	n, err := store.ExportCSV(ctx, st, cw)
	if closeErr := cw.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("finish %s stream: %w", format, closeErr)
	}
	return n, err
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source := args[0]

	batchSize := cfg.Sink.BatchSize
	if cmd.Flags().Changed("batch-size") {
		if importBatchSize < 1 {
			return fmt.Errorf("--batch-size must be >= 1, got %d", importBatchSize)
		}
		batchSize = importBatchSize
	}

	var in io.Reader = cmd.InOrStdin()
	format := compression.FormatNone
	if source != "-" {
		f, err := os.Open(source) // #nosec G304 - user-specified input path
		if err != nil {
			return fmt.Errorf("open %s: %w", source, err)
		}
		defer f.Close()
		in, format = f, compression.FormatFromPath(source)
	}

	r, err := compression.NewReader(in, format, compression.DefaultMaxDecompressed)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer r.Close()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := store.ImportCSV(ctx, st, r, batchSize)
	logger.Info("imported rows", "rows", n, "file", source)
	return err
}
