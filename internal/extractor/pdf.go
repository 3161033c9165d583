// Package extractor turns PDF files into positioned word tokens. Glyphs are
// read with ledongthuc/pdf, converted to top-left page coordinates and
// grouped into words; pdfcpu preflights the file so encrypted and broken
// documents fail with a typed error.
package extractor

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Default page size in points (US Letter) when MediaBox is missing.
const (
	defaultWidth  = 612.0
	defaultHeight = 792.0

	// ascent approximates the glyph top above the baseline as a share of
	// the font size.
	ascent       = 0.8
	lineTol      = 3.0
	wordGap      = 3.0
	fallbackSize = 10.0
)

// ReadDocument reads a PDF file from disk.
func ReadDocument(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return ReadDocumentBytes(data)
}

// ReadDocumentBytes reads a PDF held in memory.
func ReadDocumentBytes(data []byte) (doc models.Document, err error) {
	if _, err := preflight(data); err != nil {
		return models.Document{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			doc = models.Document{}
			err = fmt.Errorf("%w: PDF library crashed: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.Document{}, classify("open", err)
	}

	n := r.NumPage()
	if n == 0 {
		return models.Document{}, fmt.Errorf("%w: document has no pages", ErrUnreadable)
	}

	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			logging.Logger().Debug("skipping null page", slog.Int("page", i))
			continue
		}
		w, h := pageSize(p.V)
		page := models.Page{Number: i, Width: w, Height: h}
		page.Tokens = Words(glyphs(p.Content().Text, h))
		doc.Pages = append(doc.Pages, page)
	}

	if chars, quality := textQuality(doc); chars > 50 && quality <= 0.6 {
		return models.Document{}, fmt.Errorf("%w: text layer is not decodable (%.0f%% readable)", ErrUnreadable, quality*100)
	}
	return doc, nil
}

// pageSize reads MediaBox from the page or the nearest ancestor that sets it.
func pageSize(v pdf.Value) (float64, float64) {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Kind() != pdf.Array || box.Len() < 4 {
			continue
		}
		if w, h, ok := boxSize([]float64{
			box.Index(0).Float64(), box.Index(1).Float64(),
			box.Index(2).Float64(), box.Index(3).Float64(),
		}); ok {
			return w, h
		}
	}
	return defaultWidth, defaultHeight
}

func boxSize(b []float64) (float64, float64, bool) {
	if len(b) < 4 {
		return 0, 0, false
	}
	w, h := math.Abs(b[2]-b[0]), math.Abs(b[3]-b[1])
	if w == 0 || h == 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Glyph is one character in top-left page coordinates.
type Glyph struct {
	X0, Y0, X1, Y1 float64
	Char           rune
}

// glyphs splits text runs into characters and flips them to a top-left
// origin. A run covering several characters shares its width evenly.
func glyphs(runs []pdf.Text, height float64) []Glyph {
	out := make([]Glyph, 0, len(runs))
	for _, t := range runs {
		n := utf8.RuneCountInString(t.S)
		if n == 0 {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = fallbackSize
		}
		top := height - (t.Y + ascent*size)
		step := t.W / float64(n)
		x := t.X
		for _, c := range t.S {
			out = append(out, Glyph{X0: x, Y0: top, X1: x + step, Y1: top + size, Char: c})
			x += step
		}
	}
	return out
}

// Words groups glyphs into lines by their top edge and splits each line into
// words at spaces or horizontal gaps wider than the word gap.
func Words(gs []Glyph) []models.Token {
	if len(gs) == 0 {
		return nil
	}
	sorted := make([]Glyph, len(gs))
	copy(sorted, gs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var lines [][]Glyph
	for _, g := range sorted {
		if n := len(lines); n > 0 && g.Y0-lines[n-1][0].Y0 <= lineTol {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []Glyph{g})
	}

	var tokens []models.Token
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })

		var (
			cur  strings.Builder
			box  models.Token
			open bool
		)
		flush := func() {
			if open {
				box.Text = cur.String()
				tokens = append(tokens, box)
			}
			cur.Reset()
			open = false
		}
		for _, g := range line {
			if unicode.IsSpace(g.Char) {
				flush()
				continue
			}
			if open && g.X0-box.X1 > wordGap {
				flush()
			}
			if !open {
				box = models.Token{X0: g.X0, Y0: g.Y0, X1: g.X1, Y1: g.Y1}
				open = true
			} else {
				box.X1 = math.Max(box.X1, g.X1)
				box.Y0 = math.Min(box.Y0, g.Y0)
				box.Y1 = math.Max(box.Y1, g.Y1)
			}
			cur.WriteRune(g.Char)
		}
		flush()
	}
	return tokens
}

// textQuality returns the number of non-space characters and the share of
// them that are letters, digits or common statement punctuation. Identity
// encoded fonts without a ToUnicode map decode to control and private-use
// runes, which drags the share down.
func textQuality(doc models.Document) (int, float64) {
	total, readable := 0, 0
	for _, p := range doc.Pages {
		for _, t := range p.Tokens {
			for _, r := range t.Text {
				total++
				if latinLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(punctuation, r) {
					readable++
				}
			}
		}
	}
	if total == 0 {
		return 0, 1
	}
	return total, float64(readable) / float64(total)
}

const punctuation = ".,-/:;()'\"$€%&@#!?+=*"

// latinLetter accepts Basic Latin through Latin Extended-B letters.
func latinLetter(r rune) bool {
	return r <= 0x24F && unicode.IsLetter(r)
}
