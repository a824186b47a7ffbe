package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/framehue/internal/colour"
	"github.com/jmylchreest/framehue/internal/logging"
	"github.com/jmylchreest/framehue/internal/store"
	"github.com/jmylchreest/framehue/internal/video"
)

// SourceStats counts what a source read and skipped.
type SourceStats struct {
	Files        int
	FilesSkipped int
	FilesFailed  int
	Units        int
	UnitsSkipped int
}

// Source produces units. Units closes out before returning.
type Source interface {
	Units(ctx context.Context, out chan<- Unit) error
	Stats() SourceStats
}

// ExtractionSource emits every frame of every video in Dir.
type ExtractionSource struct {
	Dir        string
	Extensions []string
	Reader     video.Reader
	// Store is consulted only when SkipExisting is set.
	Store        store.Store
	SkipExisting bool
	Logger       hclog.Logger

	stats SourceStats
}

func (s *ExtractionSource) Units(ctx context.Context, out chan<- Unit) error {
	defer close(out)
	logger := logging.OrNull(s.Logger)

	files, err := video.ListVideos(s.Dir, s.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no video files found", "dir", s.Dir, "extensions", s.Extensions)
		return nil
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := video.Name(path)

		if s.SkipExisting && s.Store != nil {
			exists, err := s.Store.HasVideo(ctx, name)
			if err != nil {
				return err
			}
			if exists {
				logger.Info("skipping video with existing rows", "video", name)
				s.stats.FilesSkipped++
				continue
			}
		}

		if err := s.emitFile(ctx, path, name, out, logger); err != nil {
			return err
		}
	}
	return nil
}

// emitFile streams one video. Decode problems are logged and end the file
// early; only cancellation is returned.
func (s *ExtractionSource) emitFile(ctx context.Context, path, name string, out chan<- Unit, logger hclog.Logger) error {
	logger = logger.With("video", name)
	logger.Info("processing")

	stream, err := s.Reader.Open(ctx, path)
	if err != nil {
		logger.Warn("failed to open video", "error", err)
		s.stats.FilesFailed++
		return nil
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Debug("close stream", "error", err)
		}
	}()
	s.stats.Files++

	frame := 0
	for {
		img, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("decode failed, skipping rest of video", "frame", frame+1, "error", err)
			s.stats.FilesFailed++
			return nil
		}
		frame++

		select {
		case out <- Unit{Video: name, Frame: frame, Image: img}:
			s.stats.Units++
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("completed", "frames", frame)
	return nil
}

func (s *ExtractionSource) Stats() SourceStats {
	return s.stats
}

// RecomputeSource emits every stored row that has a usable palette.
type RecomputeSource struct {
	Store  store.Store
	Logger hclog.Logger

	stats SourceStats
}

func (s *RecomputeSource) Units(ctx context.Context, out chan<- Unit) error {
	defer close(out)
	logger := logging.OrNull(s.Logger)

	rows, err := s.Store.Rows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	logger.Info("loaded rows", "rows", len(rows))

	for _, row := range rows {
		if row.Palette == store.PaletteNone {
			s.stats.UnitsSkipped++
			continue
		}
		palette, err := colour.ParsePalette(row.Palette)
		if err != nil {
			logger.Warn("skipping unparseable palette", "video", row.VideoName, "frame", row.Frame, "error", err)
			s.stats.UnitsSkipped++
			continue
		}

		select {
		case out <- Unit{Video: row.VideoName, Frame: row.Frame, Palette: palette, PaletteText: row.Palette}:
			s.stats.Units++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *RecomputeSource) Stats() SourceStats {
	return s.stats
}
