// Package layout finds the transaction table on a statement page: the
// vertical content window between the header row and the closing section,
// and the horizontal zones of the charge, deposit and balance columns.
package layout

import (
	"sort"

	"github.com/insightdelivered/statement-extractor/internal/lexicon"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Line is a visual text line: tokens whose tops lie within a tolerance of
// the first token's top, ordered left to right.
type Line struct {
	Tokens []models.Token
	Y0     float64 // top of the first token
	Y1     float64 // lowest bottom edge on the line
}

// Text joins the line tokens with spaces.
func (l Line) Text() string {
	return lexicon.JoinText(l.Tokens)
}

// SortTokens orders tokens top to bottom, then left to right. The input is
// not modified.
func SortTokens(tokens []models.Token) []models.Token {
	sorted := make([]models.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})
	return sorted
}

// GroupLines groups tokens into lines. A token joins the current line when
// its top is within tol of the line's first token.
func GroupLines(tokens []models.Token, tol float64) []Line {
	if len(tokens) == 0 {
		return nil
	}
	sorted := SortTokens(tokens)

	var lines []Line
	cur := Line{Y0: sorted[0].Y0, Y1: sorted[0].Y1}
	for _, t := range sorted {
		if t.Y0-cur.Y0 > tol {
			lines = append(lines, finishLine(cur))
			cur = Line{Y0: t.Y0, Y1: t.Y1}
		}
		cur.Tokens = append(cur.Tokens, t)
		cur.Y1 = max(cur.Y1, t.Y1)
	}
	return append(lines, finishLine(cur))
}

func finishLine(l Line) Line {
	sort.SliceStable(l.Tokens, func(i, j int) bool {
		return l.Tokens[i].X0 < l.Tokens[j].X0
	})
	return l
}
