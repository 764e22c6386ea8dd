// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a log record to the model for the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status bar record. Sequence matches the
// record it fades so a newer record is not cleared early.
type logRecordFadeMsg struct {
	Sequence uint64
}

// logRecordFadeDelay is how long a record stays in the status bar.
const logRecordFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that shows records in the status bar of
// a running program. Records below the level are dropped, and so are
// records arriving before SetProgram.
//
// Handlers derived with WithAttrs and WithGroup share the program
// pointer of the handler they came from.
type LogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewLogHandler returns a handler for records at or above level.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives records. Safe to call from
// any goroutine.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	program.Send(logRecordMsg{
		Summary: handler.summary(record),
		Level:   record.Level,
	})
	return nil
}

// summary formats record as "message (key=value, ...)". Group names
// prefix the keys of record attributes.
func (handler *LogHandler) summary(record slog.Record) string {
	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append(append([]slog.Attr(nil), handler.attrs...), attrs...),
		groups:  append([]string(nil), handler.groups...),
	}
}

func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append([]slog.Attr(nil), handler.attrs...),
		groups:  append(append([]string(nil), handler.groups...), name),
	}
}
