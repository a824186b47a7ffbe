// Package store persists per-frame palette and contrast rows.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Sentinel column values written for frames whose palette could not be derived.
const (
	PaletteNone   = "NONE"
	ContrastError = "ERROR"
)

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrUnknownDriver is returned by Open for unsupported backends.
var ErrUnknownDriver = errors.New("unknown store driver")

// Row is one record of the video_colors table.
type Row struct {
	VideoName string
	Frame     int
	Palette   string
	Contrast  string
}

// Failed reports whether the row carries the extraction failure sentinels.
func (r Row) Failed() bool {
	return r.Palette == PaletteNone || r.Contrast == ContrastError
}

// ColourCount is one line of the contrast histogram.
type ColourCount struct {
	Contrast string `json:"contrast"`
	Count    int64  `json:"count"`
}

// UpdateStats summarises an UpdateContrast batch.
type UpdateStats struct {
	// Matched is the number of table rows changed.
	Matched int64
	// Unmatched counts updates whose key matched no row.
	Unmatched int
}

// Store is the durable result table.
type Store interface {
	// Insert appends rows in a single transaction.
	Insert(ctx context.Context, rows []Row) error
	// UpdateContrast sets contrast on every row matching
	// (video_name, video_frame, palette), in a single transaction.
	UpdateContrast(ctx context.Context, rows []Row) (UpdateStats, error)
	// Rows returns a snapshot of every row ordered by video name then frame.
	Rows(ctx context.Context) ([]Row, error)
	// Histogram counts rows per contrast value, most frequent first.
	Histogram(ctx context.Context) ([]ColourCount, error)
	// HasVideo reports whether any row exists for the named video.
	HasVideo(ctx context.Context, name string) (bool, error)
	// Count returns the total number of rows.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Path is the sqlite database file.
	Path string
	// DSN is the postgres connection string.
	DSN string
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, opts.Driver)
	}
}

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

type migration struct {
	name string
	body string
}

// migrations returns the embedded scripts for a backend in name order.
func migrations(driver Driver) ([]migration, error) {
	entries, err := fs.Glob(migrationsFS, "migrations/"+string(driver)+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(entries)

	out := make([]migration, 0, len(entries))
	for _, name := range entries {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{name: name[strings.LastIndex(name, "/")+1:], body: string(body)})
	}
	return out, nil
}
