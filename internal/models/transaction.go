package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the movement side of a transaction.
type Direction string

const (
	DirectionCharge        Direction = "charge"
	DirectionDeposit       Direction = "deposit"
	DirectionIndeterminate Direction = "indeterminate"
)

// Method records which classification tier assigned the direction.
type Method string

const (
	MethodExactText     Method = "exact-text-match"
	MethodSpatial       Method = "spatial-column-match"
	MethodLeftmostGuess Method = "leftmost-guess"
	MethodForced        Method = "forced"
)

// Tier is the geometric rule that matched the amount token.
type Tier string

const (
	TierLeftEdge Tier = "left-edge"
	TierCentroid Tier = "centroid"
	TierSnap     Tier = "nearest-center"
)

// TransactionRecord is one extracted movement. It is built once by the row
// slicer and never modified afterwards.
type TransactionRecord struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"` // absolute value
	Direction   Direction `json:"direction"`
	Method      Method    `json:"method"`
	Tier        Tier      `json:"tier"`
	Page        int       `json:"page"`
	BBox        BBox      `json:"bbox"`
}

// LabeledRecord is a record annotated with a business category. The record
// itself is carried by value.
type LabeledRecord struct {
	Record   TransactionRecord `json:"record"`
	Category string            `json:"category"`
	Fallback bool              `json:"fallback,omitempty"` // category is the safe default
}

// DroppedSlice describes an anchor that produced no record.
type DroppedSlice struct {
	Page         int      `json:"page"`
	Date         string   `json:"date"`
	Y            float64  `json:"y"`
	Reason       string   `json:"reason"`
	Description  string   `json:"description,omitempty"`
	Unclassified []string `json:"unclassified,omitempty"`
}

// PageDiagnostics summarises what the engine decided for one page.
type PageDiagnostics struct {
	Page    PageGeometry `json:"geometry"`
	Layout  ColumnLayout `json:"layout"`
	Anchors int          `json:"anchors"`
	Records int          `json:"records"`
	Dropped int          `json:"dropped"`
}

// Diagnostics are observability data; nothing downstream depends on them
// for correctness.
type Diagnostics struct {
	PagesProcessed   int               `json:"pagesProcessed"`
	TransactionCount int               `json:"transactionCount"`
	Latency          time.Duration     `json:"latency"`
	Alerts           []string          `json:"alerts,omitempty"`
	Pages            []PageDiagnostics `json:"pages"`
	Dropped          []DroppedSlice    `json:"dropped,omitempty"`
}

// Alert appends a textual alert.
func (d *Diagnostics) Alert(msg string) {
	d.Alerts = append(d.Alerts, msg)
}

// StatementInfo holds the extraction result for one document.
type StatementInfo struct {
	DocumentID    string              `json:"documentId"`
	Bank          string              `json:"bank,omitempty"`
	RFC           string              `json:"rfc,omitempty"`
	CLABE         string              `json:"clabe,omitempty"`
	AccountNumber string              `json:"accountNumber,omitempty"`
	Period        string              `json:"period,omitempty"`
	Transactions  []TransactionRecord `json:"transactions"`
	Diagnostics   Diagnostics         `json:"diagnostics"`
}

// Totals are decimal sums of record amounts grouped by direction.
type Totals struct {
	Charges       decimal.Decimal `json:"charges"`
	Deposits      decimal.Decimal `json:"deposits"`
	Indeterminate decimal.Decimal `json:"indeterminate"`
}

// Totals recomputes direction sums from the records alone.
func (s *StatementInfo) Totals() Totals {
	var t Totals
	for _, r := range s.Transactions {
		amt := decimal.NewFromFloat(r.Amount)
		switch r.Direction {
		case DirectionCharge:
			t.Charges = t.Charges.Add(amt)
		case DirectionDeposit:
			t.Deposits = t.Deposits.Add(amt)
		default:
			t.Indeterminate = t.Indeterminate.Add(amt)
		}
	}
	return t
}
