package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/jmylchreest/framehue/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists to be false")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, path)
	}
	if cfg.Reference.Clusters != 128 || cfg.Extract.PaletteSize != 16 {
		t.Fatalf("unexpected defaults: clusters=%d palette=%d", cfg.Reference.Clusters, cfg.Extract.PaletteSize)
	}
	if cfg.Extract.Workers != 8 || cfg.Recompute.Workers != 16 || cfg.Sink.BatchSize != 100 {
		t.Fatalf("unexpected worker defaults: %+v %+v %+v", cfg.Extract, cfg.Recompute, cfg.Sink)
	}
	if !filepath.IsAbs(cfg.Store.Path) || filepath.Base(cfg.Store.Path) != "video_colors.db" {
		t.Fatalf("expected absolute default db path, got %q", cfg.Store.Path)
	}
}

func TestLoadCustomPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "framehue.toml")
	body := `
[store]
driver = "SQLite"
path = "` + filepath.ToSlash(filepath.Join(dir, "out.db")) + `"

[extract]
extensions = ["MKV", ".mp4", "mkv"]
workers = 4
algorithm = "KMeans"

[sink]
batch_size = 10

[logging]
level = "DEBUG"
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("expected driver to be normalized, got %q", cfg.Store.Driver)
	}
	if cfg.Extract.Workers != 4 || cfg.Sink.BatchSize != 10 {
		t.Fatalf("expected overrides from file, got workers=%d batch=%d", cfg.Extract.Workers, cfg.Sink.BatchSize)
	}
	if cfg.Extract.Algorithm != "kmeans" {
		t.Fatalf("expected algorithm kmeans, got %q", cfg.Extract.Algorithm)
	}
	if want := []string{".mkv", ".mp4"}; !slices.Equal(cfg.Extract.Extensions, want) {
		t.Fatalf("expected extensions %v, got %v", want, cfg.Extract.Extensions)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("expected debug/json logging, got %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
	// Untouched sections keep their defaults.
	if cfg.Recompute.Workers != 16 {
		t.Fatalf("expected recompute workers default, got %d", cfg.Recompute.Workers)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "framehue.toml")
	if err := os.WriteFile(configPath, []byte("[extract]\nworkerz = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "mysql" }},
		{"postgres without dsn", func(c *config.Config) { c.Store.Driver = "postgres" }},
		{"zero clusters", func(c *config.Config) { c.Reference.Clusters = 0 }},
		{"clusters above catalog", func(c *config.Config) { c.Reference.Clusters = 1000 }},
		{"zero palette", func(c *config.Config) { c.Extract.PaletteSize = 0 }},
		{"unknown algorithm", func(c *config.Config) { c.Extract.Algorithm = "octree" }},
		{"jpeg quality", func(c *config.Config) { c.Extract.JPEGQuality = 101 }},
		{"negative max dimension", func(c *config.Config) { c.Extract.MaxDimension = -1 }},
		{"no extensions", func(c *config.Config) { c.Extract.Extensions = nil }},
		{"zero workers", func(c *config.Config) { c.Extract.Workers = 0 }},
		{"zero recompute workers", func(c *config.Config) { c.Recompute.Workers = 0 }},
		{"zero batch", func(c *config.Config) { c.Sink.BatchSize = 0 }},
		{"zero buffer", func(c *config.Config) { c.Sink.ResultBuffer = 0 }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}
