package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Result is the JSON document written for one statement.
type Result struct {
	*models.StatementInfo
	Totals     models.Totals          `json:"totals"`
	Categories []models.LabeledRecord `json:"categories,omitempty"`
}

// NewResult bundles info with its recomputed totals.
func NewResult(info *models.StatementInfo, labels []models.LabeledRecord) Result {
	return Result{StatementInfo: info, Totals: info.Totals(), Categories: labels}
}

// JSONWriter writes the full extraction result as JSON.
type JSONWriter struct {
	Indent bool
}

// WriteToFile writes the result to a JSON file at the given path.
func (w *JSONWriter) WriteToFile(path string, info *models.StatementInfo, labels []models.LabeledRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, info, labels)
}

// Write encodes the result to out.
func (w *JSONWriter) Write(out io.Writer, info *models.StatementInfo, labels []models.LabeledRecord) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewResult(info, labels)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
