// Package pipeline turns video frames or stored palettes into contrast rows
// through a source, a bounded worker pool and a batching sink.
package pipeline

import (
	"image"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/store"
)

// Unit is one frame of work.
type Unit struct {
	Video string
	Frame int

	// Image is set for extraction runs.
	Image image.Image

	// Palette and PaletteText are set for recompute runs. PaletteText is the
	// stored column value and becomes part of the update key.
	Palette     *colour.Palette
	PaletteText string
}

// Result is the outcome of processing one Unit.
type Result struct {
	Video    string
	Frame    int
	Palette  string
	Contrast string
	// Failed marks a sentinel result.
	Failed bool
}

// Row converts r to its stored form.
func (r Result) Row() store.Row {
	return store.Row{
		VideoName: r.Video,
		Frame:     r.Frame,
		Palette:   r.Palette,
		Contrast:  r.Contrast,
	}
}

func failedResult(u Unit) Result {
	return Result{
		Video:    u.Video,
		Frame:    u.Frame,
		Palette:  store.PaletteNone,
		Contrast: store.ContrastError,
		Failed:   true,
	}
}
