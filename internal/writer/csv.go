package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Row is one CSV line.
type Row struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Direction   string `csv:"direction"`
	Amount      string `csv:"amount"`
	Method      string `csv:"method"`
	Page        int    `csv:"page"`
	ID          string `csv:"id"`
}

// LabeledRow adds the category assigned by a classifier.
type LabeledRow struct {
	Row
	Category string `csv:"category"`
}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, info *models.StatementInfo, labels []models.LabeledRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, info, labels)
}

// Write writes info in CSV format. When labels is non-empty the rows come
// from it and carry a category column.
func (w *CSVWriter) Write(out io.Writer, info *models.StatementInfo, labels []models.LabeledRecord) error {
	cw := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, m := range [][2]string{
			{"# Bank", info.Bank},
			{"# RFC", info.RFC},
			{"# CLABE", info.CLABE},
			{"# Account Number", info.AccountNumber},
			{"# Statement Period", info.Period},
		} {
			if m[1] == "" {
				continue
			}
			if err := cw.Write(m[:]); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	safe := gocsv.NewSafeCSVWriter(cw)
	var err error
	if len(labels) > 0 {
		rows := make([]LabeledRow, 0, len(labels))
		for _, l := range labels {
			rows = append(rows, LabeledRow{Row: toRow(l.Record), Category: l.Category})
		}
		err = gocsv.MarshalCSV(rows, safe)
	} else {
		rows := make([]Row, 0, len(info.Transactions))
		for _, r := range info.Transactions {
			rows = append(rows, toRow(r))
		}
		err = gocsv.MarshalCSV(rows, safe)
	}
	if err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func toRow(r models.TransactionRecord) Row {
	return Row{
		Date:        r.Date,
		Description: r.Description,
		Direction:   string(r.Direction),
		Amount:      formatAmount(r.Amount),
		Method:      string(r.Method),
		Page:        r.Page,
		ID:          r.ID,
	}
}

func formatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
