package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

var csvHeader = []string{"video_name", "video_frame", "palette", "contrast"}

// ExportCSV writes every row to w with a header line and returns the number
// of rows written.
func ExportCSV(ctx context.Context, s Store, w io.Writer) (int, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.VideoName, strconv.Itoa(r.Frame), r.Palette, r.Contrast}); err != nil {
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(rows), nil
}

// ImportCSV inserts rows read from r, committing every batchSize rows.
// The header line is required. It returns the number of rows inserted; on
// error, rows from batches already committed remain.
func ImportCSV(ctx context.Context, s Store, r io.Reader, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 100
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, errors.New("empty csv input")
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, csvHeader) {
		return 0, fmt.Errorf("unexpected csv header %v, want %v", header, csvHeader)
	}

	var (
		batch    = make([]Row, 0, batchSize)
		imported int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Insert(ctx, batch); err != nil {
			return err
		}
		imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read csv: %w", err)
		}
		frame, err := strconv.Atoi(record[1])
		if err != nil {
			line, _ := cr.FieldPos(1)
			return imported, fmt.Errorf("line %d: invalid video_frame %q", line, record[1])
		}
		batch = append(batch, Row{VideoName: record[0], Frame: frame, Palette: record[2], Contrast: record[3]})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}
	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}
