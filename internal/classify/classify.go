// Package classify assigns business categories to extracted transactions
// through an injected classification function. Results are normalised at
// the boundary and every record ends up with a category, falling back to a
// safe default when the collaborator fails, times out or stays silent.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ErrMalformedLabels is returned by DecodeLabels for payloads that are
// neither an object nor a list of id/label pairs.
var ErrMalformedLabels = errors.New("malformed classification labels")

// Candidate is the view of a record sent to a classifier.
type Candidate struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Direction   models.Direction `json:"direction"`
}

// Labels maps record ids to categories.
type Labels map[string]string

// Func classifies one batch of candidates for a bank family. Ids absent
// from the result are treated as unlabelled.
type Func func(ctx context.Context, bank string, batch []Candidate) (Labels, error)

// NewCandidate builds the classifier view of a record.
func NewCandidate(r models.TransactionRecord) Candidate {
	return Candidate{ID: r.ID, Description: r.Description, Amount: r.Amount, Direction: r.Direction}
}

// DecodeLabels accepts either {"id": "label", ...} or
// [{"id": "...", "label": "..."}, ...]. "category" is accepted in place of
// "label". Entries with an empty id or label are skipped.
func DecodeLabels(data []byte) (Labels, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedLabels)
	}

	out := Labels{}
	switch data[0] {
	case '{':
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLabels, err)
		}
		for id, label := range m {
			out.set(id, label)
		}
	case '[':
		var list []struct {
			ID       string `json:"id"`
			Label    string `json:"label"`
			Category string `json:"category"`
		}
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLabels, err)
		}
		for _, e := range list {
			label := e.Label
			if label == "" {
				label = e.Category
			}
			out.set(e.ID, label)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformedLabels, data[0])
	}
	return out, nil
}

func (l Labels) set(id, label string) {
	id, label = strings.TrimSpace(id), strings.TrimSpace(label)
	if id == "" || label == "" {
		return
	}
	l[id] = label
}
