package config

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/framehue/internal/colour"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateReference(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for sqlite", ErrInvalid)
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for postgres", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: store.driver %q (expected sqlite or postgres)", ErrInvalid, c.Store.Driver)
	}
	return nil
}

func (c *Config) validateReference() error {
	if c.Reference.Clusters < 1 {
		return fmt.Errorf("%w: reference.clusters must be positive", ErrInvalid)
	}
	if n := len(colour.Catalog()); c.Reference.Clusters > n {
		return fmt.Errorf("%w: reference.clusters %d exceeds catalog size %d", ErrInvalid, c.Reference.Clusters, n)
	}
	return nil
}

func (c *Config) validateExtract() error {
	e := c.Extract
	if e.PaletteSize < 1 || e.PaletteSize > colour.MaxColourCount {
		return fmt.Errorf("%w: extract.palette_size must be between 1 and %d", ErrInvalid, colour.MaxColourCount)
	}
	if !colour.IsValidAlgorithm(colour.Algorithm(e.Algorithm)) {
		return fmt.Errorf("%w: extract.algorithm %q (expected one of %v)", ErrInvalid, e.Algorithm, colour.ValidAlgorithms())
	}
	if e.JPEGQuality < 1 || e.JPEGQuality > 100 {
		return fmt.Errorf("%w: extract.jpeg_quality must be between 1 and 100", ErrInvalid)
	}
	if e.MaxDimension < 0 {
		return fmt.Errorf("%w: extract.max_dimension must not be negative", ErrInvalid)
	}
	if len(e.Extensions) == 0 {
		return fmt.Errorf("%w: extract.extensions must not be empty", ErrInvalid)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	values := map[string]int{
		"extract.workers":    c.Extract.Workers,
		"recompute.workers":  c.Recompute.Workers,
		"sink.batch_size":    c.Sink.BatchSize,
		"sink.result_buffer": c.Sink.ResultBuffer,
	}
	for key, value := range values {
		if value < 1 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if hclog.LevelFromString(c.Logging.Level) == hclog.NoLevel {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (expected text or json)", ErrInvalid, c.Logging.Format)
	}
	return nil
}
