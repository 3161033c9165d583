// Package logging holds the *slog.Logger shared by the extraction packages.
package logging

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

// SetLogger installs the logger used by the engine. Passing nil restores the
// discard logger. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	current.Store(l)
}

// Logger returns the installed logger, or a logger that drops everything
// when none was set.
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	l := slog.New(slog.DiscardHandler)
	current.CompareAndSwap(nil, l)
	return current.Load()
}

// NewText builds the text logger the CLI writes to stderr. Debug records
// are only emitted when verbose is set.
func NewText(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
