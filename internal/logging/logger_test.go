package logging_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightdelivered/statement-extractor/internal/logging"
)

func TestLoggerDefaultsToDiscard(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	logging.SetLogger(nil)
	assert.Equal(t, slog.DiscardHandler, logging.Logger().Handler())
}

func TestSetLogger(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	h := logging.NewBufferHandler()
	logging.SetLogger(slog.New(h))
	logging.Logger().Debug("slice dropped", slog.Int("page", 2))

	assert.True(t, h.Contains("slice dropped"))
	assert.True(t, h.Contains("page=2"))
}

func TestBufferHandlerGroupsAndAttrs(t *testing.T) {
	h := logging.NewBufferHandler()
	l := slog.New(h).With("doc", "abc").WithGroup("layout")
	l.Info("inherited", "from", 1)

	lines := h.Lines()
	if assert.Len(t, lines, 1) {
		assert.Equal(t, "INFO inherited doc=abc layout.from=1", lines[0])
	}
}

func TestNewTextLevels(t *testing.T) {
	var buf bytes.Buffer
	logging.NewText(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	logging.NewText(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
