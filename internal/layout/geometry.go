package layout

import (
	"log/slog"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/lexicon"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Analyzer detects page geometry and column layouts. It holds only
// read-only configuration and is safe for concurrent use.
type Analyzer struct {
	geo  config.GeometryConfig
	cols config.ColumnsConfig
	lex  *lexicon.Lexicon
}

// NewAnalyzer builds an Analyzer from heuristics.
func NewAnalyzer(h config.Heuristics) *Analyzer {
	return NewAnalyzerWithLexicon(h, lexicon.New(h.Keywords))
}

// NewAnalyzerWithLexicon builds an Analyzer sharing an already compiled
// lexicon.
func NewAnalyzerWithLexicon(h config.Heuristics, lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{geo: h.Geometry, cols: h.Columns, lex: lex}
}

// HeaderScore scores a line as a table header candidate. Lines carrying a
// blacklisted phrase score 0 regardless of their keywords.
func (a *Analyzer) HeaderScore(l Line) int {
	if a.lex.Blacklisted(l.Text()) {
		return 0
	}
	score := 0
	for _, t := range l.Tokens {
		score += a.lex.Weight(t.Text)
	}
	return score
}

// Geometry returns the content window of a page. first selects the
// proportional header fallback used for the first page of a document.
func (a *Analyzer) Geometry(p models.Page, first bool) models.PageGeometry {
	g := models.PageGeometry{
		PageNumber:  p.Number,
		Width:       p.Width,
		Height:      p.Height,
		DateHeaderX: -1,
	}
	lines := GroupLines(p.Tokens, a.geo.LineTolerance)

	best, bestScore := -1, 0
	for i, l := range lines {
		// strict comparison keeps the topmost line on ties
		if s := a.HeaderScore(l); s >= a.geo.HeaderMinScore && s > bestScore {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		header := lines[best]
		g.HeaderY = header.Y1 + a.geo.HeaderMargin
		g.HeaderFound = true
		for _, t := range header.Tokens {
			if a.lex.Classify(t.Text) == lexicon.ClassDate {
				g.DateHeaderX = t.X0
				break
			}
		}
	} else {
		ratio := a.geo.LaterPageHeaderRatio
		if first {
			ratio = a.geo.FirstPageHeaderRatio
		}
		g.HeaderY = p.Height * ratio
		logging.Logger().Debug("header not found, using proportional offset",
			slog.Int("page", p.Number), slog.Float64("header_y", g.HeaderY))
	}

	g.FooterY = p.Height
	for _, l := range lines {
		if l.Y0 <= g.HeaderY || !a.lex.ClosingTrigger(l.Text()) {
			continue
		}
		if y := l.Y0 - a.geo.FooterMargin; !g.FooterFound || y < g.FooterY {
			g.FooterY = y
			g.FooterFound = true
		}
	}
	if g.FooterY <= g.HeaderY+a.geo.MinBodyGap {
		logging.Logger().Debug("closing trigger too close to header, ignoring",
			slog.Int("page", p.Number), slog.Float64("footer_y", g.FooterY), slog.Float64("header_y", g.HeaderY))
		g.FooterY = p.Height
		g.FooterFound = false
	}
	return g
}
