// Package logging builds the structured zerolog loggers used across the
// session engine and the CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, destination and timestamp format.
type Config struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"`
	Debug      bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
	Output     string `json:"output" yaml:"output" mapstructure:"output"`
	TimeFormat string `json:"time_format" yaml:"time_format" mapstructure:"time_format"`
}

// New creates a logger writing JSON lines to stdout or stderr.
func New(cfg Config) (zerolog.Logger, error) {
	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	}
	return NewWithWriter(cfg, output)
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(cfg Config, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel

	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), err
		}
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// Component tags every event from l with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
