// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger returns a logger writing to stderr at level: text
// when stderr is a terminal, JSON when it is piped or redirected.
//
// Callers scope it with command context:
//
//	logger := cli.NewCommandLogger(slog.LevelInfo).With("command", "serve")
func NewCommandLogger(level slog.Leveler) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: want debug, info, warn or error", name)
	}
	return level, nil
}
