// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// switchWriter lets the log destination change while other goroutines log.
type switchWriter struct {
	mu     sync.RWMutex
	w      io.Writer
	closer io.Closer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) swap(w io.Writer, closer io.Closer) io.Closer {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.closer
	s.w, s.closer = w, closer
	return old
}

func baseLogWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

// ApplyLogConfig sets the global log level and output from the config. It
// may be called again at runtime.
func (c *AppConfig) ApplyLogConfig() error {
	c.logMu.Lock()
	defer c.logMu.Unlock()

	c.configMu.Lock()
	level, path := c.Config.LogLevel, c.Config.LogPath
	maxSize, maxBackups := c.Config.LogMaxSize, c.Config.LogMaxBackups
	c.configMu.Unlock()

	setLogLevel(level)

	w, closer, err := buildLogWriter(baseLogWriter(), path, maxSize, maxBackups)
	if err != nil {
		return err
	}

	if c.logOut == nil {
		c.logOut = &switchWriter{w: w, closer: closer}
		log.Logger = log.Output(c.logOut)
		return nil
	}

	if old := c.logOut.swap(w, closer); old != nil {
		if err := old.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close old log rotator")
		}
	}
	return nil
}

func buildLogWriter(base io.Writer, logPath string, maxSize, maxBackups int) (io.Writer, io.Closer, error) {
	if logPath == "" {
		return base, nil, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create log directory %s", dir)
	}

	if maxSize <= 0 {
		maxSize = 50
	}
	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
	return io.MultiWriter(base, rotator), rotator, nil
}

func setLogLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "WARN", "WARNING":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
