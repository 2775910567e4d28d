package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model's status line.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// sender is the part of *tea.Program the handler needs.
type sender interface {
	Send(msg tea.Msg)
}

// target is shared by a handler and every handler derived from it.
type target struct {
	mu     sync.RWMutex
	sender sender
}

// LogHandler is a slog.Handler that shows records as transient status
// messages inside the running UI. Records below the level are dropped, as are
// records that arrive before SetProgram is called.
type LogHandler struct {
	level  slog.Leveler
	target *target
	attrs  []slog.Attr
	group  string
}

// NewLogHandler creates a handler that forwards records at or above level.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{level: level, target: &target{}}
}

// SetProgram sets the program that receives records. Safe to call from any
// goroutine; applies to all derived handlers.
func (h *LogHandler) SetProgram(program *tea.Program) {
	h.setSender(program)
}

func (h *LogHandler) setSender(s sender) {
	h.target.mu.Lock()
	h.target.sender = s
	h.target.mu.Unlock()
}

// Enabled implements slog.Handler.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler. The summary is "message (key=value, ...)".
func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	h.target.mu.RLock()
	s := h.target.sender
	h.target.mu.RUnlock()
	if s == nil {
		return nil
	}

	parts := make([]string, 0, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Equal(slog.Attr{}) {
			return true
		}
		parts = append(parts, fmt.Sprintf("%s=%s", h.qualify(attr.Key), attr.Value))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}

	s.Send(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

// WithAttrs implements slog.Handler.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.qualify(attr.Key), Value: attr.Value})
	}
	return &clone
}

// WithGroup implements slog.Handler.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func (h *LogHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
