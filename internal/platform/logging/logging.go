// Package logging builds the process zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.elastic.co/ecszerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatECS     = "ecs"
)

type Options struct {
	// Format is console, json or ecs. Empty picks console in development
	// and json elsewhere.
	Format  string
	Level   string
	Env     string
	Service string
	Out     io.Writer
}

func ResolveFormat(format, env string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if env == "development" {
		return FormatConsole
	}
	return FormatJSON
}

// New returns a logger writing in the requested format.
func New(opts Options) (zerolog.Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
		}
		level = l
	}

	var logger zerolog.Logger
	switch ResolveFormat(opts.Format, opts.Env) {
	case FormatConsole:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	case FormatJSON:
		logger = zerolog.New(out).With().Timestamp().Logger()
	case FormatECS:
		logger = ecszerolog.New(out)
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", opts.Format)
	}

	logger = logger.Level(level)
	if opts.Service != "" {
		logger = logger.With().Str("service", opts.Service).Logger()
	}
	return logger, nil
}
