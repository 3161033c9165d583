package layout

import (
	"log/slog"
	"math"

	"github.com/insightdelivered/statement-extractor/internal/lexicon"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// pick is the keyword token chosen for one column role.
type pick struct {
	tok models.Token
	dy  float64
	set bool
}

// prefer reports whether t at vertical distance dy beats the current pick.
func (p pick) prefer(t models.Token, dy float64) bool {
	if !p.set {
		return true
	}
	if dy != p.dy {
		return dy < p.dy
	}
	return t.X0 < p.tok.X0
}

// headerBuckets holds the keyword token chosen for each column role.
type headerBuckets struct {
	charge, deposit, balance, sub pick
}

// Columns detects the column layout from the page's own header tokens. It
// reports false when the page has no table header or when no header line
// carries a charge or deposit keyword in the right part of the page; the
// caller then inherits or falls back.
func (a *Analyzer) Columns(p models.Page, g models.PageGeometry) (models.ColumnLayout, bool) {
	if !g.HeaderFound {
		return models.ColumnLayout{}, false
	}
	lines := GroupLines(p.Tokens, a.geo.LineTolerance)
	rightX := p.Width * a.cols.RightRegionRatio

	anchor, weak, ok := a.anchorLine(lines, rightX, g)
	if !ok {
		return models.ColumnLayout{}, false
	}

	b := a.collect(lines, anchor, rightX)
	centers, wall, hasWall := a.resolveCenters(b, p.Width)
	l := a.build(centers, wall, hasWall)
	l.Provenance = models.ProvenanceExplicit
	l.SourcePage = p.Number
	l.HeaderY = anchor.Y0
	l.Weak = weak

	logging.Logger().Debug("column layout detected",
		slog.Int("page", p.Number),
		slog.Bool("weak", weak),
		slog.Float64("charge", l.Centers.Charge),
		slog.Float64("deposit", l.Centers.Deposit),
		slog.Float64("balance", l.Centers.Balance),
		slog.Float64("wall", l.Wall()))
	return l, true
}

// Proportional returns the fixed fallback zones for a page width.
func (a *Analyzer) Proportional(width float64) models.ColumnLayout {
	c := models.ColumnCenters{
		Charge:  width * a.cols.ChargeFallbackRatio,
		Deposit: width * a.cols.DepositFallbackRatio,
		Balance: width * a.cols.BalanceFallbackRatio,
	}
	l := a.build(c, 0, false)
	l.Provenance = models.ProvenanceProportional
	return l
}

// anchorLine finds the header line the columns are measured on: the first
// line where charge and deposit keywords co-occur in the right region, else
// the first deposit-only line, else the first charge-only line. Only lines
// within the header band above the body are considered; description words
// in the body never anchor a layout.
func (a *Analyzer) anchorLine(lines []Line, rightX float64, g models.PageGeometry) (Line, bool, bool) {
	depositOnly, chargeOnly := -1, -1
	for i, l := range lines {
		if l.Y0 >= g.HeaderY || l.Y0 < g.HeaderY-a.cols.HeaderBand || a.lex.Blacklisted(l.Text()) {
			continue
		}
		var hasCharge, hasDeposit bool
		for _, t := range l.Tokens {
			if t.X0 < rightX {
				continue
			}
			switch a.lex.Classify(t.Text) {
			case lexicon.ClassCharge:
				hasCharge = true
			case lexicon.ClassDeposit:
				hasDeposit = true
			}
		}
		switch {
		case hasCharge && hasDeposit:
			return l, false, true
		case hasDeposit && depositOnly < 0:
			depositOnly = i
		case hasCharge && chargeOnly < 0:
			chargeOnly = i
		}
	}
	if depositOnly >= 0 {
		return lines[depositOnly], true, true
	}
	if chargeOnly >= 0 {
		return lines[chargeOnly], true, true
	}
	return Line{}, false, false
}

// collect buckets the keyword tokens within the header band around the
// anchor line. Preference: tokens on the anchor line, then the nearest
// line, then the leftmost token.
func (a *Analyzer) collect(lines []Line, anchor Line, rightX float64) headerBuckets {
	var b headerBuckets
	for _, l := range lines {
		dy := math.Abs(l.Y0 - anchor.Y0)
		if dy > a.cols.HeaderBand || a.lex.Blacklisted(l.Text()) {
			continue
		}
		for _, t := range l.Tokens {
			if t.X0 < rightX {
				continue
			}
			var slot *pick
			switch a.lex.Classify(t.Text) {
			case lexicon.ClassCharge:
				slot = &b.charge
			case lexicon.ClassDeposit:
				slot = &b.deposit
			case lexicon.ClassBalance:
				slot = &b.balance
			case lexicon.ClassSubBalance:
				slot = &b.sub
			default:
				continue
			}
			if slot.prefer(t, dy) {
				*slot = pick{tok: t, dy: dy, set: true}
			}
		}
	}
	return b
}

// resolveCenters deduces missing columns and restores the ordering
// invariant. The returned wall is the sub-balance clip position when one
// applies.
func (a *Analyzer) resolveCenters(b headerBuckets, width float64) (models.ColumnCenters, float64, bool) {
	var c models.ColumnCenters
	off := a.cols.DeductionOffset
	if a.cols.DepositFirst {
		off = -off
	}

	switch {
	case b.charge.set && b.deposit.set:
		c.Charge, c.Deposit = b.charge.tok.CenterX(), b.deposit.tok.CenterX()
	case b.charge.set:
		c.Charge = b.charge.tok.CenterX()
		c.Deposit = c.Charge + off
	case b.deposit.set:
		c.Deposit = b.deposit.tok.CenterX()
		c.Charge = c.Deposit - off
	}

	switch {
	case b.balance.set:
		c.Balance = b.balance.tok.CenterX()
	case b.sub.set:
		c.Balance = b.sub.tok.CenterX() + a.cols.SubBalanceOffset
	default:
		c.Balance = width * a.cols.BalanceFallbackRatio
	}
	if b.sub.set {
		c.SubBalance = b.sub.tok.CenterX()
	}

	if c.Balance <= max(c.Charge, c.Deposit) {
		logging.Logger().Debug("balance left of amount columns, swapping",
			slog.Float64("charge", c.Charge), slog.Float64("deposit", c.Deposit), slog.Float64("balance", c.Balance))
		if c.Charge >= c.Deposit {
			c.Balance, c.Charge = c.Charge, c.Balance
		} else {
			c.Balance, c.Deposit = c.Deposit, c.Balance
		}
		if c.Balance <= max(c.Charge, c.Deposit) {
			c.Balance = max(c.Charge, c.Deposit) + a.cols.DeductionOffset
		}
	}

	if b.sub.set {
		right := max(c.Charge, c.Deposit)
		if w := b.sub.tok.X0 - a.cols.WallMargin; w > right {
			return c, w, true
		}
	}
	return c, 0, false
}

// build turns column centers into intervals. The column adjacent to balance
// is clipped at the wall and overlapping amount columns are cut at the
// midpoint of their centers.
func (a *Analyzer) build(c models.ColumnCenters, wall float64, hasWall bool) models.ColumnLayout {
	left, right := c.Charge, c.Deposit
	chargeLeft := true
	if right < left {
		left, right = right, left
		chargeLeft = false
	}

	gapLR := right - left
	gapRB := c.Balance - right
	rLeft := a.radius(gapLR)
	rRight := a.radius(math.Min(gapLR, gapRB))
	rBal := a.radius(gapRB)

	if !hasWall || wall <= right {
		wall = (right + c.Balance) / 2
	}

	li := models.Interval{Min: left - rLeft, Max: math.Min(left+rLeft, wall)}
	ri := models.Interval{Min: right - rRight, Max: math.Min(right+rRight, wall)}
	if li.Max > ri.Min {
		mid := (left + right) / 2
		li.Max, ri.Min = mid, mid
	}
	bi := models.Interval{Min: wall, Max: math.Max(c.Balance+rBal, wall)}

	l := models.ColumnLayout{Balance: bi, Centers: c}
	if chargeLeft {
		l.Charge, l.Deposit = li, ri
	} else {
		l.Charge, l.Deposit = ri, li
	}
	return l
}

func (a *Analyzer) radius(gap float64) float64 {
	r := a.cols.RadiusGapRatio * gap
	return math.Max(a.cols.MinRadius, math.Min(a.cols.MaxRadius, r))
}
