package colour

import (
	"github.com/lucasb-eyer/go-colorful"
)

// deltaEScale converts go-colorful's CIEDE2000 (ΔE00/100) to ΔE00 units.
const deltaEScale = 100

// ContrastEngine picks, for a palette, the reference cluster with the highest
// mean CIEDE2000 distance to the palette's colours. It only reads the
// Reference and is safe for concurrent use.
type ContrastEngine struct {
	ref *Reference
}

// NewContrastEngine returns an engine scoring against ref.
func NewContrastEngine(ref *Reference) *ContrastEngine {
	return &ContrastEngine{ref: ref}
}

// Score returns the winning cluster and its mean distance in ΔE00 units. Clusters are
// visited in label order and only a strictly greater mean replaces the
// current best, so the first maximum wins.
func (e *ContrastEngine) Score(p *Palette) (Cluster, float64, error) {
	if p.Len() == 0 {
		return Cluster{}, 0, ErrEmptyPalette
	}
	if e.ref == nil || e.ref.Len() == 0 {
		return Cluster{}, 0, ErrEmptyCatalog
	}

	palette := make([]colorful.Color, p.Len())
	for i, c := range p.Colors {
		palette[i] = c.Colorful()
	}

	best := 0
	highest := -1.0
	for i := range e.ref.clusters {
		cluster := &e.ref.clusters[i]
		sum := 0.0
		for _, pc := range palette {
			sum += cluster.colour.DistanceCIEDE2000(pc)
		}
		if contrast := sum * deltaEScale / float64(len(palette)); contrast > highest {
			highest = contrast
			best = i
		}
	}

	return e.ref.clusters[best], highest, nil
}
