package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/framehue/internal/colour"
)

var (
	referenceClusters int
	referenceSeed     uint64
	referenceJSON     bool
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Show the reference palette contrast colours are chosen from",
	Long: `Build the reference palette by clustering the CSS3 named colours in XYZ
space and print one row per cluster: its label, the catalog colour that
represents it and how many catalog colours it absorbed.

The same --clusters and --seed always produce the same palette.`,
	Args: cobra.NoArgs,
	RunE: runReference,
}

func init() {
	addReferenceFlags(referenceCmd)
	referenceCmd.Flags().BoolVar(&referenceJSON, "json", false, "output clusters as JSON")
}

// addReferenceFlags registers the flags that shape the reference palette.
func addReferenceFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&referenceClusters, "clusters", colour.DefaultClusterCount, "number of reference clusters")
	cmd.Flags().Uint64Var(&referenceSeed, "seed", colour.DefaultReferenceSeed, "reference clustering seed")
}

func applyReferenceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("clusters") {
		cfg.Reference.Clusters = referenceClusters
	}
	if flags.Changed("seed") {
		cfg.Reference.Seed = referenceSeed
	}
}

func runReference(cmd *cobra.Command, _ []string) error {
	applyReferenceFlags(cmd)
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ref, err := buildReference()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if referenceJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ref.Clusters())
	}

	fmt.Fprint(out, renderClusters(ref.Clusters(), colour.SupportsANSIColours(os.Stdout)))
	return nil
}

func renderClusters(clusters []colour.Cluster, swatches bool) string {
	headers := []string{"Label", "Name", "Hex", "Members"}
	if swatches {
		headers = append([]string{""}, headers...)
	}
	table := NewTable(headers)
	table.SetColumnAlignRight(len(headers) - 1)

	for _, c := range clusters {
		row := []string{strconv.Itoa(c.Label), c.Name, c.RGB.Hex(), strconv.Itoa(c.Members)}
		if swatches {
			row = append([]string{colour.ColourPreview(c.RGB, 4)}, row...)
		}
		table.AddRow(row...)
	}
	return table.Render()
}
