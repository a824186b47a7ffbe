package colour

import (
	"errors"
	"fmt"
	"image"

	"github.com/EdlinOrg/prominentcolor"
)

// ErrTooFewColours is returned when an image cannot yield the requested
// number of colours, e.g. a blank or near-blank frame.
var ErrTooFewColours = errors.New("too few colours in image")

// Extractor defines the interface for color extraction algorithms.
type Extractor interface {
	// Extract extracts exactly count colours from an image.
	Extract(img image.Image, count int) (*Palette, error)
}

// Algorithm represents the color extraction algorithm type.
type Algorithm string

const (
	// AlgorithmProminent uses prominentcolor's k-means over a downscaled copy.
	AlgorithmProminent Algorithm = "prominent"

	// AlgorithmKMeans uses the in-tree k-means over sampled pixels.
	AlgorithmKMeans Algorithm = "kmeans"
)

// MaxColourCount bounds the palette size accepted by every extractor.
const MaxColourCount = 256

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmProminent,
		AlgorithmKMeans,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// NewExtractor creates a new Extractor based on the specified algorithm.
func NewExtractor(alg Algorithm) (Extractor, error) {
	switch alg {
	case AlgorithmProminent:
		return NewProminentExtractor(), nil
	case AlgorithmKMeans:
		return NewKMeansExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

func validateCount(count int) error {
	if count < 1 {
		return fmt.Errorf("color count must be at least 1, got %d", count)
	}
	if count > MaxColourCount {
		return fmt.Errorf("color count too large: %d (maximum: %d)", count, MaxColourCount)
	}
	return nil
}

// ProminentExtractor extracts dominant colours with prominentcolor.
type ProminentExtractor struct {
	resize     uint
	maxSamples int
}

// NewProminentExtractor returns an extractor using prominentcolor defaults.
func NewProminentExtractor() *ProminentExtractor {
	return &ProminentExtractor{
		resize:     prominentcolor.DefaultSize,
		maxSamples: 4096,
	}
}

// Extract returns count colours ordered by cluster population.
func (e *ProminentExtractor) Extract(img image.Image, count int) (*Palette, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := validateCount(count); err != nil {
		return nil, err
	}

	// prominentcolor happily returns duplicate centroids for flat frames.
	if n := distinctColours(img, e.maxSamples, count); n < count {
		return nil, fmt.Errorf("%w: found %d distinct colours, want %d", ErrTooFewColours, n, count)
	}

	items, err := prominentcolor.KmeansWithAll(
		count,
		img,
		prominentcolor.ArgumentNoCropping,
		e.resize,
		[]prominentcolor.ColorBackgroundMask{},
	)
	if err != nil {
		return nil, fmt.Errorf("prominentcolor: %w", err)
	}
	if len(items) < count {
		return nil, fmt.Errorf("%w: prominentcolor returned %d of %d", ErrTooFewColours, len(items), count)
	}

	colors := make([]RGB, count)
	for i := range colors {
		c := items[i].Color
		colors[i] = RGB{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B)}
	}
	return NewPalette(colors), nil
}

// distinctColours counts distinct sampled colours, stopping once want is reached.
func distinctColours(img image.Image, maxSamples, want int) int {
	seen := make(map[RGB]struct{}, want)
	for _, p := range samplePixels(img, maxSamples) {
		seen[ToRGB(p)] = struct{}{}
		if len(seen) >= want {
			break
		}
	}
	return len(seen)
}
