// Package config loads framehue settings from TOML over built-in defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full framehue configuration.
type Config struct {
	Store     Store     `toml:"store"`
	Reference Reference `toml:"reference"`
	Extract   Extract   `toml:"extract"`
	Recompute Recompute `toml:"recompute"`
	Sink      Sink      `toml:"sink"`
	Logging   Logging   `toml:"logging"`
}

// Store selects the result database.
type Store struct {
	Driver string `toml:"driver"` // sqlite or postgres
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// Reference controls construction of the reference palette.
type Reference struct {
	Clusters int    `toml:"clusters"`
	Seed     uint64 `toml:"seed"`
}

// Extract configures frame extraction runs.
type Extract struct {
	SourceDir    string   `toml:"source_dir"`
	Extensions   []string `toml:"extensions"`
	Workers      int      `toml:"workers"`
	PaletteSize  int      `toml:"palette_size"`
	Algorithm    string   `toml:"algorithm"`
	JPEGQuality  int      `toml:"jpeg_quality"`
	MaxDimension int      `toml:"max_dimension"` // 0 keeps full resolution
	SkipExisting bool     `toml:"skip_existing"`
}

// Recompute configures contrast recomputation runs.
type Recompute struct {
	Workers int `toml:"workers"`
}

// Sink configures result batching.
type Sink struct {
	BatchSize    int `toml:"batch_size"`
	ResultBuffer int `toml:"result_buffer"`
}

// Logging configures the hclog output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfigPath returns <UserConfigDir>/framehue/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, "framehue", "config.toml"), nil
}

// Load reads path (or the default location when empty) over Default().
// A missing file is not an error. It returns the resolved path and whether
// the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath) // #nosec G304 - user-specified config path
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path is a directory: %s", expanded)
	}
	return expanded, true, nil
}
