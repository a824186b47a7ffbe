package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/store"
)

var (
	histogramFormat string
	histogramLimit  int
)

var histogramCmd = &cobra.Command{
	Use:   "histogram",
	Short: "Count how often each contrast colour was chosen",
	Long: `Group all stored rows by contrast colour and print the counts, most
frequent first. Ties are ordered by colour. Frames that failed extraction
are counted under ERROR.

Output formats:
  table  aligned columns with colour swatches on a terminal (default)
  plain  one "Contrast color: <hex>, Count: <n>" line per colour
  json   an array of {"contrast", "count"} objects`,
	Args: cobra.NoArgs,
	RunE: runHistogram,
}

func init() {
	histogramCmd.Flags().StringVarP(&histogramFormat, "format", "f", "table", "output format (table, plain, json)")
	histogramCmd.Flags().IntVarP(&histogramLimit, "limit", "n", 0, "show only the n most frequent colours (0 shows all)")
}

func runHistogram(cmd *cobra.Command, _ []string) error {
	if histogramLimit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", histogramLimit)
	}
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.Histogram(ctx)
	if err != nil {
		return err
	}
	if histogramLimit > 0 && len(counts) > histogramLimit {
		counts = counts[:histogramLimit]
	}

	return writeHistogram(cmd.OutOrStdout(), counts, histogramFormat, colour.SupportsANSIColours(os.Stdout))
}

func writeHistogram(w io.Writer, counts []store.ColourCount, format string, swatches bool) error {
	switch format {
	case "json":
		if counts == nil {
			counts = []store.ColourCount{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	case "plain":
		for _, c := range counts {
			if _, err := fmt.Fprintf(w, "Contrast color: %s, Count: %d\n", c.Contrast, c.Count); err != nil {
				return err
			}
		}
		return nil
	case "table":
		headers := []string{"Contrast", "Count"}
		if swatches {
			headers = append([]string{""}, headers...)
		}
		table := NewTable(headers)
		table.SetColumnAlignRight(len(headers) - 1)
		for _, c := range counts {
			row := []string{c.Contrast, strconv.FormatInt(c.Count, 10)}
			if swatches {
				// ERROR and other non-colour values get a blank swatch.
				swatch := "    "
				if rgb, err := colour.ParseHex(c.Contrast); err == nil {
					swatch = colour.ColourPreview(rgb, 4)
				}
				row = append([]string{swatch}, row...)
			}
			table.AddRow(row...)
		}
		_, err := io.WriteString(w, table.Render())
		return err
	default:
		return fmt.Errorf("unknown histogram format %q (want table, plain or json)", format)
	}
}
