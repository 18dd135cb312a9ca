// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Fimeg/partnernotice/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the global logger described by cfg. The returned close
// function flushes and closes the file sink, if any.
func Setup(cfg config.LogConfig) (func() error, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out, closeFn, err := sink(cfg)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closeFn, nil
}

func sink(cfg config.LogConfig) (io.Writer, func() error, error) {
	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if cfg.File != "" {
		rot := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = rot
		closeFn = rot.Close
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return out, closeFn, nil
	case "console", "":
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.File != ""}, closeFn, nil
	default:
		closeFn()
		return nil, nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
}
