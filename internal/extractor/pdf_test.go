package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// run lays out text as 5pt-wide glyphs starting at x on the line whose top
// edge is y.
func run(x, y float64, text string) []Glyph {
	var gs []Glyph
	for _, c := range text {
		gs = append(gs, Glyph{X0: x, Y0: y, X1: x + 5, Y1: y + 10, Char: c})
		x += 5
	}
	return gs
}

func texts(ts []models.Token) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Text)
	}
	return out
}

func TestWordsSplitsOnSpaceAndGap(t *testing.T) {
	var gs []Glyph
	gs = append(gs, run(40, 100, "05/01/2025 PAGO")...)
	gs = append(gs, run(300, 101.5, "1,500.00")...)
	gs = append(gs, run(40, 120, "SPEI")...)

	tokens := Words(gs)
	assert.Equal(t, []string{"05/01/2025", "PAGO", "1,500.00", "SPEI"}, texts(tokens))

	amount := tokens[2]
	assert.InDelta(t, 300, amount.X0, 0.001)
	assert.InDelta(t, 340, amount.X1, 0.001)
	assert.InDelta(t, 101.5, amount.Y0, 0.001)
}

func TestWordsKeepsTightGlyphsTogether(t *testing.T) {
	gs := []Glyph{
		{X0: 10, Y0: 50, X1: 15, Y1: 60, Char: 'A'},
		{X0: 17, Y0: 50, X1: 22, Y1: 60, Char: 'B'},
		{X0: 26, Y0: 50, X1: 31, Y1: 60, Char: 'C'},
	}
	assert.Equal(t, []string{"AB", "C"}, texts(Words(gs)))
}

func TestWordsOrdersUnsortedInput(t *testing.T) {
	gs := append(run(200, 80, "ABONOS"), run(40, 80, "FECHA")...)
	gs = append(run(40, 20, "BBVA"), gs...)
	assert.Equal(t, []string{"BBVA", "FECHA", "ABONOS"}, texts(Words(gs)))
	assert.Nil(t, Words(nil))
}

func TestGlyphsFlipToTopLeft(t *testing.T) {
	gs := glyphs([]pdf.Text{{X: 100, Y: 700, W: 20, FontSize: 10, S: "AB"}}, 792)
	require.Len(t, gs, 2)
	assert.InDelta(t, 84, gs[0].Y0, 0.001)
	assert.InDelta(t, 94, gs[0].Y1, 0.001)
	assert.InDelta(t, 110, gs[1].X0, 0.001)
	assert.InDelta(t, 120, gs[1].X1, 0.001)
	assert.Equal(t, 'B', gs[1].Char)
}

func TestGlyphsDefaultsMissingFontSize(t *testing.T) {
	gs := glyphs([]pdf.Text{{X: 0, Y: 100, W: 5, S: "X"}, {S: ""}}, 200)
	require.Len(t, gs, 1)
	assert.InDelta(t, 92, gs[0].Y0, 0.001)
}

func TestBoxSize(t *testing.T) {
	w, h, ok := boxSize([]float64{0, 0, 612, 1008})
	require.True(t, ok)
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 1008.0, h)

	_, _, ok = boxSize([]float64{0, 0, 0, 0})
	assert.False(t, ok)
	_, _, ok = boxSize([]float64{0, 0})
	assert.False(t, ok)
}

func TestTextQuality(t *testing.T) {
	good := models.Document{Pages: []models.Page{{Tokens: []models.Token{{Text: "DEPÓSITO"}, {Text: "1,500.00"}}}}}
	n, q := textQuality(good)
	assert.Equal(t, 16, n)
	assert.InDelta(t, 1, q, 0.001)

	bad := models.Document{Pages: []models.Page{{Tokens: []models.Token{{Text: "\x01\x02\x03A"}}}}}
	_, q = textQuality(bad)
	assert.InDelta(t, 0.25, q, 0.001)

	_, q = textQuality(models.Document{})
	assert.Equal(t, 1.0, q)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"reader password", pdf.ErrInvalidPassword, ErrPasswordProtected},
		{"preflight password", errors.New("pdfcpu: please provide the correct password"), ErrPasswordProtected},
		{"corrupt", errors.New("pdfcpu: corrupt xref table"), ErrUnreadable},
		{"already typed", fmt.Errorf("wrap: %w", ErrUnreadable), ErrUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("stage", tt.err), tt.want)
		})
	}
	assert.NoError(t, classify("stage", nil))
}

func TestReadDocumentBytesRejectsGarbage(t *testing.T) {
	_, err := ReadDocumentBytes([]byte("this is not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.NotErrorIs(t, err, ErrPasswordProtected)
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := ReadDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestReadDocumentEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err := ReadDocument(path)
	assert.ErrorIs(t, err, ErrUnreadable)
}
