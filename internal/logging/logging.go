// Package logging builds the zerolog logger shared by the batch and the API.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
)

// Rotation limits for the optional log file
const (
	maxSizeMB  = 100
	maxBackups = 7
	maxAgeDays = 30
)

// New creates a logger writing to stdout, and additionally to a rotating
// file when cfg.File is set
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit console destination
func NewWithWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	var console io.Writer = out
	if strings.ToLower(cfg.Format) != "json" {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	writer := console
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err == nil {
			writer = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    maxSizeMB,
				MaxBackups: maxBackups,
				MaxAge:     maxAgeDays,
				Compress:   true,
			})
		}
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
