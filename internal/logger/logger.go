package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation constants for the application log file.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatText = "text"
	FormatJSON = "json"
)

// SlogConfig controls the structured logger.
type SlogConfig struct {
	Level      string
	Format     string
	Color      bool
	TimeStamps bool
}

// FileConfig describes an optional rotated log file. Rotation parameters
// follow lumberjack semantics.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config bundles the logger and its optional file sink.
type Config struct {
	Slog SlogConfig
	File FileConfig
	// Output overrides stderr, mainly for tests.
	Output io.Writer
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// FileWriter returns a rotating writer for File.Path, or nil when unset.
func (c Config) FileWriter() io.WriteCloser {
	if c.File.Path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   c.File.Path,
		MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.File.Compress,
	}
}

// NewSlogger builds a *slog.Logger from the config. When a file is configured
// records go to both the console and the rotated file. The returned closer
// releases the file and is never nil.
func (c Config) NewSlogger() (*slog.Logger, io.Closer) {
	level, err := ParseLevel(c.Slog.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if !c.Slog.TimeStamps {
		opts.ReplaceAttr = dropTime
	}

	var out io.Writer = os.Stderr
	if c.Output != nil {
		out = c.Output
	}

	var closer io.Closer = nopCloser{}
	fw := c.FileWriter()
	if fw != nil {
		closer = fw
	}

	var h slog.Handler
	switch {
	case strings.EqualFold(c.Slog.Format, FormatJSON):
		if fw != nil {
			out = io.MultiWriter(out, fw)
		}
		h = slog.NewJSONHandler(out, opts)
	case c.Slog.Color:
		// ANSI codes stay on the console; the file gets plain text.
		h = NewColorTextHandler(out, opts, c.Slog.TimeStamps)
		if fw != nil {
			h = fanout{h, slog.NewTextHandler(fw, opts)}
		}
	default:
		if fw != nil {
			out = io.MultiWriter(out, fw)
		}
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer
}

// Component returns the default logger tagged with a component attribute.
func Component(name string) *slog.Logger {
	return slog.Default().With(slog.String("component", name))
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
