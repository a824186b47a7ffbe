package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps video_colors in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects with dsn and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	scripts, err := migrations(DriverPostgres)
	if err != nil {
		return err
	}

	for _, m := range scripts {
		var count int
		if err := s.pool.QueryRow(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE name = $1", m.name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if count > 0 {
			continue
		}

		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.body); err != nil {
				return fmt.Errorf("execute migration %s: %w", m.name, err)
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations(name, applied_at) VALUES ($1, $2)",
				m.name, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("record migration %s: %w", m.name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			"INSERT INTO video_colors (video_name, video_frame, palette, contrast) VALUES ($1, $2, $3, $4)",
			r.VideoName, r.Frame, r.Palette, r.Contrast,
		)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for _, r := range rows {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("insert %s frame %d: %w", r.VideoName, r.Frame, err)
			}
		}
		return results.Close()
	})
}

func (s *PostgresStore) UpdateContrast(ctx context.Context, rows []Row) (UpdateStats, error) {
	var stats UpdateStats
	if len(rows) == 0 {
		return stats, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			"UPDATE video_colors SET contrast = $1 WHERE video_name = $2 AND video_frame = $3 AND palette = $4",
			r.Contrast, r.VideoName, r.Frame, r.Palette,
		)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for _, r := range rows {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("update %s frame %d: %w", r.VideoName, r.Frame, err)
			}
			if tag.RowsAffected() == 0 {
				stats.Unmatched++
			}
			stats.Matched += tag.RowsAffected()
		}
		return results.Close()
	})
	if err != nil {
		return UpdateStats{}, err
	}
	return stats, nil
}

func (s *PostgresStore) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT video_name, video_frame, palette, contrast FROM video_colors ORDER BY video_name, video_frame ASC")
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var r Row
		err := row.Scan(&r.VideoName, &r.Frame, &r.Palette, &r.Contrast)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Histogram(ctx context.Context) ([]ColourCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT contrast, COUNT(*) AS count
		FROM video_colors
		GROUP BY contrast
		ORDER BY count DESC, contrast ASC`)
	if err != nil {
		return nil, fmt.Errorf("query histogram: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ColourCount, error) {
		var c ColourCount
		err := row.Scan(&c.Contrast, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan histogram: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) HasVideo(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM video_colors WHERE video_name = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup video %s: %w", name, err)
	}
	return exists, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM video_colors").Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
