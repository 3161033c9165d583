// Package slicer cuts the stitched document into horizontal bands between
// consecutive row anchors and turns each band into at most one transaction
// record.
package slicer

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/lexicon"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
)

// Drop reasons reported in models.DroppedSlice.
const (
	ReasonNonTransaction = "non-transaction"
	ReasonNoAmount       = "no-amount"
	ReasonUnclassified   = "unclassified-amount"
)

// Input is everything one slicing pass needs.
type Input struct {
	Anchors []models.AnchorCandidate
	Tokens  []models.PlacedToken
	// Layout returns the column layout in force on a page.
	Layout func(page int) models.ColumnLayout
	// ID returns the record id for the seq-th record emitted on a page.
	ID func(page, seq int) string
}

// Result holds the emitted records in anchor order and the dropped slices.
type Result struct {
	Records []models.TransactionRecord
	Dropped []models.DroppedSlice
}

// Slicer classifies slices. It is safe for concurrent use.
type Slicer struct {
	cfg config.SlicingConfig
	lex *lexicon.Lexicon
}

// New builds a Slicer.
func New(h config.Heuristics, lex *lexicon.Lexicon) *Slicer {
	return &Slicer{cfg: h.Slicing, lex: lex}
}

// Slice processes every anchor. A slice spans from its anchor to the next
// one (or the end of the document), both shifted up by the baseline
// epsilon.
func (s *Slicer) Slice(in Input) Result {
	tokens := make([]models.PlacedToken, len(in.Tokens))
	copy(tokens, in.Tokens)
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Y0 < tokens[j].Y0
	})

	var res Result
	seq := map[int]int{}
	for i, a := range in.Anchors {
		top := a.Y - s.cfg.BaselineEpsilon
		bottom := math.Inf(1)
		if i+1 < len(in.Anchors) {
			bottom = in.Anchors[i+1].Y - s.cfg.BaselineEpsilon
		}
		lo := sort.Search(len(tokens), func(k int) bool { return tokens[k].Y0 >= top })
		hi := sort.Search(len(tokens), func(k int) bool { return tokens[k].Y0 >= bottom })

		rec, drop, ok := s.one(a, tokens[lo:hi], in.Layout(a.Page))
		if !ok {
			logging.Logger().Debug("slice dropped",
				slog.Int("page", drop.Page),
				slog.Float64("y", drop.Y),
				slog.String("reason", drop.Reason),
				slog.String("date", drop.Date),
				slog.Any("tokens", drop.Unclassified))
			res.Dropped = append(res.Dropped, drop)
			continue
		}
		seq[a.Page]++
		if in.ID != nil {
			rec.ID = in.ID(a.Page, seq[a.Page])
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// Classification is an amount-shaped token with the column it was
// assigned to.
type Classification struct {
	Token     models.PlacedToken
	Direction models.Direction
	Tier      models.Tier
}

func (s *Slicer) one(a models.AnchorCandidate, band []models.PlacedToken, l models.ColumnLayout) (models.TransactionRecord, models.DroppedSlice, bool) {
	drop := models.DroppedSlice{Page: a.Page, Date: a.RawText, Y: a.Y}

	wall := l.Wall()
	descStart := a.XStart + s.cfg.DescriptionMargin
	amountZone := math.Min(l.Charge.Min, l.Deposit.Min) - s.cfg.AmountBuffer

	var (
		desc       []models.PlacedToken
		candidates []models.PlacedToken
	)
	for _, t := range band {
		if t.CenterX() >= wall || isAnchorToken(a, t.Token) {
			continue
		}
		switch {
		case parser.IsAmount(t.Text):
			if t.X0 >= descStart {
				candidates = append(candidates, t)
			}
		case t.X0 < descStart:
			if !parser.IsDateLike(t.Text) {
				desc = append(desc, t)
			}
		case !parser.IsNumeric(t.Text):
			desc = append(desc, t)
		case t.X0 < amountZone:
			desc = append(desc, t)
		default:
			drop.Unclassified = append(drop.Unclassified, t.Text)
		}
	}

	description := s.readingOrder(desc)
	drop.Description = description
	if s.lex.NonTransaction(description) {
		drop.Reason = ReasonNonTransaction
		return models.TransactionRecord{}, drop, false
	}
	if len(candidates) == 0 {
		drop.Reason = ReasonNoAmount
		return models.TransactionRecord{}, drop, false
	}

	var best *Classification
	for _, t := range candidates {
		c, ok := Classify(t, l)
		if !ok {
			drop.Unclassified = append(drop.Unclassified, t.Text)
			continue
		}
		if best == nil || c.Token.X0 < best.Token.X0 {
			best = &c
		}
	}
	if best == nil {
		drop.Reason = ReasonUnclassified
		return models.TransactionRecord{}, drop, false
	}

	amount, err := parser.ParseAmount(best.Token.Text)
	if err != nil {
		drop.Reason = ReasonUnclassified
		drop.Unclassified = append(drop.Unclassified, best.Token.Text)
		return models.TransactionRecord{}, drop, false
	}

	rec := models.TransactionRecord{
		Date:        a.RawText,
		Description: description,
		Amount:      amount,
		Direction:   best.Direction,
		Tier:        best.Tier,
		Page:        a.Page,
		Method:      methodFor(best.Tier, l.Provenance),
	}
	if rec.Direction == models.DirectionIndeterminate {
		if d, ok := s.lex.DirectionHint(description); ok {
			rec.Direction = d
			rec.Method = models.MethodExactText
		}
	}

	var box models.BBox
	for _, t := range a.Tokens {
		box = box.Union(t)
	}
	for _, t := range desc {
		box = box.Union(t.Token)
	}
	rec.BBox = box.Union(best.Token.Token)
	return rec, drop, true
}

func methodFor(tier models.Tier, p models.Provenance) models.Method {
	switch {
	case p == models.ProvenanceProportional:
		return models.MethodForced
	case tier == models.TierSnap:
		return models.MethodLeftmostGuess
	}
	return models.MethodSpatial
}

// Classify assigns an amount token to the charge or deposit column: by its
// left edge, then by its centroid, then by snapping a centroid that lies
// between the two column centers to the nearer one. An exact tie is
// indeterminate.
func Classify(t models.PlacedToken, l models.ColumnLayout) (Classification, bool) {
	if d, ok := inZones(t.X0, l); ok {
		return Classification{Token: t, Direction: d, Tier: models.TierLeftEdge}, true
	}
	cx := t.CenterX()
	if d, ok := inZones(cx, l); ok {
		return Classification{Token: t, Direction: d, Tier: models.TierCentroid}, true
	}

	lo, hi := math.Min(l.Centers.Charge, l.Centers.Deposit), math.Max(l.Centers.Charge, l.Centers.Deposit)
	if cx < lo || cx > hi {
		return Classification{}, false
	}
	dc, dd := math.Abs(cx-l.Centers.Charge), math.Abs(cx-l.Centers.Deposit)
	d := models.DirectionIndeterminate
	switch {
	case dc < dd:
		d = models.DirectionCharge
	case dd < dc:
		d = models.DirectionDeposit
	}
	return Classification{Token: t, Direction: d, Tier: models.TierSnap}, true
}

// inZones returns the column whose interval holds x. A point on a shared
// boundary goes to the nearer center.
func inZones(x float64, l models.ColumnLayout) (models.Direction, bool) {
	inC, inD := l.Charge.Contains(x), l.Deposit.Contains(x)
	switch {
	case inC && inD:
		if math.Abs(x-l.Centers.Deposit) < math.Abs(x-l.Centers.Charge) {
			return models.DirectionDeposit, true
		}
		return models.DirectionCharge, true
	case inC:
		return models.DirectionCharge, true
	case inD:
		return models.DirectionDeposit, true
	}
	return "", false
}

// readingOrder joins description tokens sorted by rounded y, then x.
func (s *Slicer) readingOrder(tokens []models.PlacedToken) string {
	if len(tokens) == 0 {
		return ""
	}
	step := s.cfg.ReadingRowRound
	if step <= 0 {
		step = 1
	}
	sorted := make([]models.PlacedToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := math.Round(sorted[i].Y0/step), math.Round(sorted[j].Y0/step)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].X0 < sorted[j].X0
	})
	parts := make([]string, 0, len(sorted))
	for _, t := range sorted {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

func isAnchorToken(a models.AnchorCandidate, t models.Token) bool {
	for _, at := range a.Tokens {
		if at == t {
			return true
		}
	}
	return false
}
