package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/image"
)

var (
	scoreColours   int
	scoreAlgorithm string
	scoreQuality   int
	scoreMaxDim    int
	scoreJSON      bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <image>",
	Short: "Extract a palette from one image and pick its contrast colour",
	Long: `Run the per-frame computation on a single still image (PNG, JPEG, GIF
or WebP): extract its dominant palette and choose the reference colour
with the highest mean CIEDE2000 distance to it. The image goes through the
same JPEG still round trip as video frames, so the result matches what
extract would store for an identical frame.

Handy for checking a frame by hand before processing whole videos.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

// scoreResult is the JSON shape of a score run.
type scoreResult struct {
	Image    string         `json:"image"`
	Palette  []string       `json:"palette"`
	Contrast colour.Cluster `json:"contrast"`
	Distance float64        `json:"distance"`
}

func init() {
	scoreCmd.Flags().IntVarP(&scoreColours, "colours", "c", 16, fmt.Sprintf("palette size (1-%d)", colour.MaxColourCount))
	scoreCmd.Flags().StringVarP(&scoreAlgorithm, "algorithm", "a", string(colour.AlgorithmProminent), fmt.Sprintf("palette algorithm %v", colour.ValidAlgorithms()))
	scoreCmd.Flags().IntVar(&scoreQuality, "jpeg-quality", image.DefaultJPEGQuality, "JPEG quality of the still the image is encoded to (1-100)")
	scoreCmd.Flags().IntVar(&scoreMaxDim, "max-dimension", 0, "downscale images larger than this before extraction (0 keeps full size)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "output the result as JSON")
	addReferenceFlags(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("colours") {
		cfg.Extract.PaletteSize = scoreColours
	}
	if flags.Changed("algorithm") {
		cfg.Extract.Algorithm = scoreAlgorithm
	}
	if flags.Changed("jpeg-quality") {
		cfg.Extract.JPEGQuality = scoreQuality
	}
	if flags.Changed("max-dimension") {
		cfg.Extract.MaxDimension = scoreMaxDim
	}
	applyReferenceFlags(cmd)
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	palette, cluster, distance, err := scoreImage(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(scoreResult{
			Image:    args[0],
			Palette:  palette.ToHex(),
			Contrast: cluster,
			Distance: distance,
		})
	}

	fmt.Fprint(out, formatScore(palette, cluster, distance, colour.SupportsANSIColours(os.Stdout)))
	return nil
}

func formatScore(palette *colour.Palette, cluster colour.Cluster, distance float64, swatches bool) string {
	var b strings.Builder
	if swatches {
		b.WriteString("Palette:\n")
		for i, c := range palette.All() {
			fmt.Fprintf(&b, "  %2d %s\n", i+1, colour.ColourPreviewWithText(c, c.Hex(), 9))
		}
		fmt.Fprintf(&b, "Contrast: %s (%s, cluster %d)\n",
			colour.FormatColourWithPreview(cluster.RGB, 4), cluster.Name, cluster.Label)
	} else {
		fmt.Fprintf(&b, "Palette:  %s\n", palette)
		fmt.Fprintf(&b, "Contrast: %s (%s, cluster %d)\n", cluster.RGB.Hex(), cluster.Name, cluster.Label)
	}
	fmt.Fprintf(&b, "Distance: %.2f\n", distance)
	return b.String()
}

// scoreImage loads path and scores it the way extract scores a frame,
// including the JPEG still round trip.
func scoreImage(path string) (*colour.Palette, colour.Cluster, float64, error) {
	img, err := image.NewFileLoader().Load(path)
	if err != nil {
		return nil, colour.Cluster{}, 0, err
	}
	still, err := image.Still(img, image.StillOptions{
		Quality:      cfg.Extract.JPEGQuality,
		MaxDimension: cfg.Extract.MaxDimension,
	})
	if err != nil {
		return nil, colour.Cluster{}, 0, fmt.Errorf("encode still from %s: %w", path, err)
	}

	extractor, err := colour.NewExtractor(colour.Algorithm(cfg.Extract.Algorithm))
	if err != nil {
		return nil, colour.Cluster{}, 0, fmt.Errorf("failed to create extractor: %w", err)
	}
	palette, err := extractor.Extract(still, cfg.Extract.PaletteSize)
	if err != nil {
		return nil, colour.Cluster{}, 0, fmt.Errorf("extract palette from %s: %w", path, err)
	}

	ref, err := buildReference()
	if err != nil {
		return nil, colour.Cluster{}, 0, err
	}
	cluster, distance, err := colour.NewContrastEngine(ref).Score(palette)
	if err != nil {
		return nil, colour.Cluster{}, 0, err
	}
	return palette, cluster, distance, nil
}
