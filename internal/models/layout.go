package models

// PageGeometry is the vertical content window of one page.
type PageGeometry struct {
	PageNumber  int     `json:"pageNumber"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	HeaderY     float64 `json:"headerY"`     // table body starts below this y
	FooterY     float64 `json:"footerY"`     // closing section starts at this y
	HeaderFound bool    `json:"headerFound"` // false when HeaderY is the proportional fallback
	FooterFound bool    `json:"footerFound"`
	// DateHeaderX is the left edge of the date keyword in the header line,
	// or -1 when the header carries none.
	DateHeaderX float64 `json:"dateHeaderX"`
}

// Contains reports whether y lies inside the content window.
func (g PageGeometry) Contains(y float64) bool {
	return y >= g.HeaderY && y < g.FooterY
}

// Role identifies one amount column of the transaction table.
type Role string

const (
	RoleCharge     Role = "charge"
	RoleDeposit    Role = "deposit"
	RoleBalance    Role = "balance"
	RoleSubBalance Role = "sub_balance"
)

// Provenance records where a column layout came from, in decreasing
// confidence order.
type Provenance string

const (
	ProvenanceExplicit     Provenance = "explicit"
	ProvenanceInherited    Provenance = "inherited"
	ProvenanceProportional Provenance = "proportional"
)

// Interval is a closed horizontal range [Min, Max].
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether x is inside the interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Min && x <= iv.Max
}

// ColumnCenters records the detected (or deduced) center of each column.
// SubBalance is zero when no sub-balance header was seen.
type ColumnCenters struct {
	Charge     float64 `json:"charge"`
	Deposit    float64 `json:"deposit"`
	Balance    float64 `json:"balance"`
	SubBalance float64 `json:"subBalance,omitempty"`
}

// ColumnLayout maps the amount columns of a page to horizontal intervals.
type ColumnLayout struct {
	Charge     Interval      `json:"charge"`
	Deposit    Interval      `json:"deposit"`
	Balance    Interval      `json:"balance"`
	Centers    ColumnCenters `json:"centers"`
	Provenance Provenance    `json:"provenance"`
	// SourcePage is the page whose header produced the layout (0 for
	// proportional layouts).
	SourcePage int `json:"sourcePage"`
	// HeaderY is the y of the header line the anchor keywords were found on.
	HeaderY float64 `json:"headerY"`
	// Weak is set when only one of charge/deposit appeared in the header.
	Weak bool `json:"weak,omitempty"`
}

// Wall is the x beyond which tokens belong to the balance column.
func (l ColumnLayout) Wall() float64 {
	return l.Balance.Min
}

// Zone returns the interval for a role.
func (l ColumnLayout) Zone(r Role) (Interval, bool) {
	switch r {
	case RoleCharge:
		return l.Charge, true
	case RoleDeposit:
		return l.Deposit, true
	case RoleBalance:
		return l.Balance, true
	}
	return Interval{}, false
}

// Inherit returns a copy of l marked as inherited.
func (l ColumnLayout) Inherit() ColumnLayout {
	l.Provenance = ProvenanceInherited
	return l
}

// SameZones reports whether two layouts place every column identically,
// ignoring provenance.
func (l ColumnLayout) SameZones(o ColumnLayout) bool {
	return l.Charge == o.Charge && l.Deposit == o.Deposit && l.Balance == o.Balance && l.Centers == o.Centers
}

// DateKind is the lexical class of a row anchor.
type DateKind string

const (
	DateFullNumeric DateKind = "full_numeric_date"
	DateFullTextual DateKind = "full_textual_date"
	DateDayOnly     DateKind = "day_only"
)

// AnchorCandidate marks the start of one transaction row.
type AnchorCandidate struct {
	RawText string   `json:"rawText"`
	Y       float64  `json:"y"` // stitched coordinates
	XStart  float64  `json:"xStart"`
	Kind    DateKind `json:"kind"`
	Page    int      `json:"page"`
	// Tokens are the tokens that make up the date text.
	Tokens []Token `json:"-"`
}
