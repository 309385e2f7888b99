// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package logging builds the process-wide JSON [slog.Logger], optionally
// teeing it into a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
)

// Options configures the logger.
type Options struct {
	Debug bool

	// File enables rotation into this path. Empty logs to stdout only.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Stdout overrides os.Stdout, for tests.
	Stdout io.Writer
}

// New returns a logger tagged with the application name, installed as the
// slog default, and a closer for the rotated file (a no-op without one).
func New(options Options) (*slog.Logger, io.Closer) {
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	var output io.Writer = stdout
	var closer io.Closer = nopCloser{}

	if options.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAgeDays,
			Compress:   true,
		}
		output = io.MultiWriter(stdout, rotated)
		closer = rotated
	}

	level := slog.LevelInfo
	if options.Debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(logger)

	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
