package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// BufferHandler is a slog.Handler that keeps formatted records in memory so
// tests can assert on what the engine reported.
type BufferHandler struct {
	mu    *sync.Mutex
	lines *[]string
	attrs []string // preformatted, group prefix already applied
	group string
}

// NewBufferHandler returns an empty BufferHandler that accepts every level.
func NewBufferHandler() *BufferHandler {
	return &BufferHandler{mu: &sync.Mutex{}, lines: &[]string{}}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler. Each record becomes one line of the form
// "LEVEL message k=v k=v".
func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Level.String())
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteByte(' ')
		b.WriteString(h.format(a))
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.lines = append(*h.lines, b.String())
	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]string{}, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.format(a))
	}
	return &next
}

func (h *BufferHandler) format(a slog.Attr) string {
	if h.group == "" {
		return a.String()
	}
	return h.group + "." + a.String()
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return &next
}

// Lines returns a copy of the captured records.
func (h *BufferHandler) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), *h.lines...)
}

// Contains reports whether any captured record contains s.
func (h *BufferHandler) Contains(s string) bool {
	for _, l := range h.Lines() {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}
