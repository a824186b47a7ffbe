package config

import "strings"

// Normalize trims and lower-cases enumerated values, expands paths and fills
// empty fields with defaults.
func (c *Config) Normalize() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = defaultDriver
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if c.Store.Driver == defaultDriver {
		if strings.TrimSpace(c.Store.Path) == "" {
			c.Store.Path = defaultDBPath
		}
		path, err := ExpandPath(c.Store.Path)
		if err != nil {
			return err
		}
		c.Store.Path = path
	}

	c.Extract.Algorithm = strings.ToLower(strings.TrimSpace(c.Extract.Algorithm))
	if c.Extract.Algorithm == "" {
		c.Extract.Algorithm = defaultAlgorithm
	}
	if c.Extract.SourceDir != "" {
		dir, err := ExpandPath(c.Extract.SourceDir)
		if err != nil {
			return err
		}
		c.Extract.SourceDir = dir
	}
	c.Extract.Extensions = normalizeExtensions(c.Extract.Extensions)

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = defaultLogFormat
	case "json":
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeExtensions lower-cases, dot-prefixes and dedupes extensions.
func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return append([]string(nil), defaultExtensions...)
	}
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out
}
