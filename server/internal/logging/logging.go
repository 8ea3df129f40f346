// Package logging builds the process-wide slog logger from the log section of
// the config. The level lives in a slog.LevelVar so a config reload can
// change it without rebuilding handlers. An optional file sink is rotated by
// lumberjack.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taoscope/taoscope/server/internal/config"
)

// Logger is a slog.Logger whose level can be changed at runtime.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *lumberjack.Logger
}

// New returns a logger writing to out and, when cfg.File is set, to a
// rotating file as well.
func New(cfg config.LogConfig, out io.Writer) (*Logger, error) {
	l := &Logger{level: new(slog.LevelVar)}
	if err := l.SetLevel(cfg.Level); err != nil {
		return nil, err
	}

	w := out
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     28, // days
		}
		w = io.MultiWriter(out, l.file)
	}

	opts := &slog.HandlerOptions{Level: l.level}
	var h slog.Handler
	switch cfg.Format {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json", "":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	l.Logger = slog.New(h)
	return l, nil
}

// SetLevel changes the minimum level. An empty name means info.
func (l *Logger) SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l.level.Set(lvl)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level { return l.level.Level() }

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps debug|info|warn|error (any case) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}
