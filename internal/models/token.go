package models

import "strings"

// Token is a single word with its bounding box in page coordinates.
// The origin is the top-left corner of the page and y grows downward.
type Token struct {
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Text string  `json:"text"`
}

// CenterX returns the horizontal centroid of the token.
func (t Token) CenterX() float64 {
	return (t.X0 + t.X1) / 2
}

// Shift returns a copy of the token moved down by dy.
func (t Token) Shift(dy float64) Token {
	t.Y0 += dy
	t.Y1 += dy
	return t
}

// Page is the token stream of one PDF page.
type Page struct {
	Number int     `json:"number"` // 1-based
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Tokens []Token `json:"tokens"`
}

// Text returns the page tokens joined with spaces, in their stored order.
func (p Page) Text() string {
	parts := make([]string, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

// Document is the full token input of one statement file.
type Document struct {
	Pages []Page `json:"pages"`
}

// PlacedToken is a token in the stitched coordinate space, remembering the
// page it came from.
type PlacedToken struct {
	Token
	Page int `json:"page"`
}

// BBox is a rectangle in stitched document coordinates.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Union grows the box to include t. A zero box takes t's extent.
func (b BBox) Union(t Token) BBox {
	if b == (BBox{}) {
		return BBox{X0: t.X0, Y0: t.Y0, X1: t.X1, Y1: t.Y1}
	}
	return BBox{
		X0: min(b.X0, t.X0),
		Y0: min(b.Y0, t.Y0),
		X1: max(b.X1, t.X1),
		Y1: max(b.Y1, t.Y1),
	}
}
