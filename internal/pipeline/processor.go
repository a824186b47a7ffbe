package pipeline

import (
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/framehue/internal/colour"
	imgpkg "github.com/jmylchreest/framehue/internal/image"
	"github.com/jmylchreest/framehue/internal/logging"
)

// Processor converts a unit into a result. Failures are reported through
// Result.Failed rather than an error so one bad frame never stops a run.
type Processor interface {
	Process(ctx context.Context, u Unit) Result
}

// ExtractProcessor derives a palette from a decoded frame and scores it.
type ExtractProcessor struct {
	Extractor   colour.Extractor
	Engine      *colour.ContrastEngine
	PaletteSize int
	Still       imgpkg.StillOptions
	Logger      hclog.Logger
}

func (p *ExtractProcessor) Process(_ context.Context, u Unit) Result {
	logger := logging.OrNull(p.Logger)

	if u.Image == nil {
		logger.Warn("unit has no image", "video", u.Video, "frame", u.Frame)
		return failedResult(u)
	}

	still, err := imgpkg.Still(u.Image, p.Still)
	if err != nil {
		logger.Warn("still encoding failed", "video", u.Video, "frame", u.Frame, "error", err)
		return failedResult(u)
	}

	palette, err := p.Extractor.Extract(still, p.PaletteSize)
	if err != nil {
		// Flat frames such as fades to black are routine.
		if errors.Is(err, colour.ErrTooFewColours) {
			logger.Debug("palette extraction failed", "video", u.Video, "frame", u.Frame, "error", err)
		} else {
			logger.Warn("palette extraction failed", "video", u.Video, "frame", u.Frame, "error", err)
		}
		return failedResult(u)
	}

	cluster, distance, err := p.Engine.Score(palette)
	if err != nil {
		logger.Warn("scoring failed", "video", u.Video, "frame", u.Frame, "error", err)
		return failedResult(u)
	}

	logger.Trace("processed frame", "video", u.Video, "frame", u.Frame, "contrast", cluster.RGB.Hex(), "distance", distance)
	return Result{
		Video:    u.Video,
		Frame:    u.Frame,
		Palette:  palette.String(),
		Contrast: cluster.RGB.Hex(),
	}
}

// RecomputeProcessor rescores an already stored palette.
type RecomputeProcessor struct {
	Engine *colour.ContrastEngine
	Logger hclog.Logger
}

func (p *RecomputeProcessor) Process(_ context.Context, u Unit) Result {
	cluster, _, err := p.Engine.Score(u.Palette)
	if err != nil {
		logging.OrNull(p.Logger).Warn("scoring failed", "video", u.Video, "frame", u.Frame, "error", err)
		r := failedResult(u)
		r.Palette = u.PaletteText
		return r
	}
	return Result{
		Video:    u.Video,
		Frame:    u.Frame,
		Palette:  u.PaletteText,
		Contrast: cluster.RGB.Hex(),
	}
}
