// Package anchor finds the date tokens in the left margin of the stitched
// document that mark the start of each transaction row.
package anchor

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
)

// maxTextualParts is how many leading tokens may form a textual date
// ("05", "ENE", "2025").
const maxTextualParts = 3

// Finder locates row anchors.
type Finder struct {
	cfg config.AnchorsConfig
}

// NewFinder builds a Finder from heuristics.
func NewFinder(h config.Heuristics) *Finder {
	return &Finder{cfg: h.Anchors}
}

// DateWall returns the x that bounds the date margin: a fixed offset right
// of the header's date keyword, or a fraction of the page width.
func (f *Finder) DateWall(g models.PageGeometry) float64 {
	if g.DateHeaderX >= 0 {
		return g.DateHeaderX + f.cfg.DateWallOffset
	}
	return g.Width * f.cfg.DateWallFallback
}

type row struct {
	tokens []models.PlacedToken
	y      float64
}

// Find returns the anchors among tokens, ordered by y. Only tokens whose
// left edge is before dateWall can start an anchor. A bare day number needs
// an amount-shaped token on the same row right of dateWall.
func (f *Finder) Find(tokens []models.PlacedToken, dateWall float64) []models.AnchorCandidate {
	var out []models.AnchorCandidate
	for _, r := range f.rows(tokens) {
		var left []models.PlacedToken
		for _, t := range r.tokens {
			if t.X0 < dateWall {
				left = append(left, t)
			}
		}
		if len(left) == 0 {
			continue
		}
		a, ok := f.classify(r, left, dateWall)
		if !ok {
			continue
		}
		if n := len(out); n > 0 && a.Y-out[n-1].Y < f.cfg.LineTolerance {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (f *Finder) classify(r row, left []models.PlacedToken, dateWall float64) (models.AnchorCandidate, bool) {
	first := left[0]
	candidate := func(kind models.DateKind, parts []models.PlacedToken) models.AnchorCandidate {
		texts := make([]string, 0, len(parts))
		toks := make([]models.Token, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, p.Text)
			toks = append(toks, p.Token)
		}
		return models.AnchorCandidate{
			RawText: strings.Join(texts, " "),
			Y:       first.Y0,
			XStart:  first.X0,
			Kind:    kind,
			Page:    first.Page,
			Tokens:  toks,
		}
	}

	for n := min(maxTextualParts, len(left)); n >= 1; n-- {
		texts := make([]string, 0, n)
		for _, t := range left[:n] {
			texts = append(texts, t.Text)
		}
		if parser.IsTextualDate(strings.Join(texts, " ")) {
			return candidate(models.DateFullTextual, left[:n]), true
		}
	}
	if parser.IsNumericDate(first.Text) {
		return candidate(models.DateFullNumeric, left[:1]), true
	}
	if parser.IsDay(first.Text) {
		for _, t := range r.tokens {
			if t.X0 >= dateWall && parser.IsAmount(t.Text) {
				return candidate(models.DateDayOnly, left[:1]), true
			}
		}
		logging.Logger().Debug("day-only anchor rejected, no amount on row",
			slog.Int("page", first.Page), slog.Float64("y", first.Y0), slog.String("text", first.Text))
	}
	return models.AnchorCandidate{}, false
}

// rows groups tokens into visual rows; a token joins the current row when
// its top is less than the tolerance below the row's first token.
func (f *Finder) rows(tokens []models.PlacedToken) []row {
	sorted := make([]models.PlacedToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var rows []row
	for _, t := range sorted {
		if n := len(rows); n > 0 && t.Y0-rows[n-1].y < f.cfg.LineTolerance {
			rows[n-1].tokens = append(rows[n-1].tokens, t)
			continue
		}
		rows = append(rows, row{tokens: []models.PlacedToken{t}, y: t.Y0})
	}
	for _, r := range rows {
		sort.SliceStable(r.tokens, func(i, j int) bool {
			return r.tokens[i].X0 < r.tokens[j].X0
		})
	}
	return rows
}
