// Package logging builds the hclog loggers shared by every framehue command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options configures New.
type Options struct {
	Name   string
	Level  string
	Format string // text or json
	Output io.Writer
	// NoColor disables ANSI level colouring even on a terminal.
	NoColor bool
}

// New returns a logger for opts. Output defaults to stderr.
func New(opts Options) (hclog.Logger, error) {
	level := hclog.Info
	if strings.TrimSpace(opts.Level) != "" {
		level = hclog.LevelFromString(opts.Level)
		if level == hclog.NoLevel {
			return nil, fmt.Errorf("invalid log level %q", opts.Level)
		}
	}

	var jsonFormat bool
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text", "console":
	case "json":
		jsonFormat = true
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	color := hclog.AutoColor
	if opts.NoColor || jsonFormat || os.Getenv("NO_COLOR") != "" {
		color = hclog.ColorOff
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     output,
		JSONFormat: jsonFormat,
		Color:      color,
	}), nil
}

// OrNull returns logger, or a discarding logger when it is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
