// Package config holds the tunable heuristics of the extraction engine and
// the runtime configuration of the CLI and HTTP server.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Heuristics collects every margin, ratio, threshold and keyword list the
// geometric engine uses. Distances are in PDF points.
type Heuristics struct {
	Geometry GeometryConfig `yaml:"geometry"`
	Columns  ColumnsConfig  `yaml:"columns"`
	Anchors  AnchorsConfig  `yaml:"anchors"`
	Slicing  SlicingConfig  `yaml:"slicing"`
	Keywords KeywordsConfig `yaml:"keywords"`
	// Banks holds per-bank-family overrides keyed by detected bank name.
	Banks map[string]BankOverride `yaml:"banks,omitempty"`
}

// GeometryConfig tunes header and footer detection.
type GeometryConfig struct {
	LineTolerance        float64 `yaml:"line_tolerance"`
	HeaderMinScore       int     `yaml:"header_min_score"`
	HeaderMargin         float64 `yaml:"header_margin"`
	FirstPageHeaderRatio float64 `yaml:"first_page_header_ratio"`
	LaterPageHeaderRatio float64 `yaml:"later_page_header_ratio"`
	FooterMargin         float64 `yaml:"footer_margin"`
	MinBodyGap           float64 `yaml:"min_body_gap"`
}

// ColumnsConfig tunes column layout detection.
type ColumnsConfig struct {
	// RightRegionRatio is the fraction of page width left of which header
	// keywords are ignored (cover summaries sit on the left).
	RightRegionRatio     float64 `yaml:"right_region_ratio"`
	HeaderBand           float64 `yaml:"header_band"`
	DeductionOffset      float64 `yaml:"deduction_offset"`
	DepositFirst         bool    `yaml:"deposit_first"`
	SubBalanceOffset     float64 `yaml:"sub_balance_offset"`
	ChargeFallbackRatio  float64 `yaml:"charge_fallback_ratio"`
	DepositFallbackRatio float64 `yaml:"deposit_fallback_ratio"`
	BalanceFallbackRatio float64 `yaml:"balance_fallback_ratio"`
	RadiusGapRatio       float64 `yaml:"radius_gap_ratio"`
	MinRadius            float64 `yaml:"min_radius"`
	MaxRadius            float64 `yaml:"max_radius"`
	WallMargin           float64 `yaml:"wall_margin"`
	SampleSize           int     `yaml:"sample_size"`
}

// AnchorsConfig tunes the row anchor finder.
type AnchorsConfig struct {
	LineTolerance    float64 `yaml:"line_tolerance"`
	DateWallOffset   float64 `yaml:"date_wall_offset"`
	DateWallFallback float64 `yaml:"date_wall_fallback_ratio"`
}

// SlicingConfig tunes the row slicer.
type SlicingConfig struct {
	BaselineEpsilon   float64 `yaml:"baseline_epsilon"`
	DescriptionMargin float64 `yaml:"description_margin"`
	AmountBuffer      float64 `yaml:"amount_buffer"`
	ReadingRowRound   float64 `yaml:"reading_row_round"`
}

// KeywordsConfig lists the words and phrases the engine recognises. Entries
// are compared after upper-casing and removing accents.
type KeywordsConfig struct {
	Date               []string `yaml:"date"`
	Description        []string `yaml:"description"`
	Charge             []string `yaml:"charge"`
	Deposit            []string `yaml:"deposit"`
	Balance            []string `yaml:"balance"`
	SubBalance         []string `yaml:"sub_balance"`
	Blacklist          []string `yaml:"blacklist"`
	ClosingTrigger     []string `yaml:"closing_triggers"`
	NonTransaction     []string `yaml:"non_transaction"`
	// NonTransactionLead phrases veto a description only when it starts
	// with them, so "TOTAL" rows are dropped but "PAGO TOTAL TARJETA" is not.
	NonTransactionLead []string `yaml:"non_transaction_lead"`
	ChargeHints        []string `yaml:"charge_hints"`
	DepositHints       []string `yaml:"deposit_hints"`
}

// BankOverride adjusts the defaults for one bank family. Nil pointers keep
// the base value.
type BankOverride struct {
	DepositFirst         *bool    `yaml:"deposit_first,omitempty"`
	DeductionOffset      *float64 `yaml:"deduction_offset,omitempty"`
	DescriptionMargin    *float64 `yaml:"description_margin,omitempty"`
	ExtraClosingTriggers []string `yaml:"extra_closing_triggers,omitempty"`
	ExtraNonTransaction  []string `yaml:"extra_non_transaction,omitempty"`
}

// Default returns the heuristics tuned on Mexican retail bank statements.
func Default() Heuristics {
	return Heuristics{
		Geometry: GeometryConfig{
			LineTolerance:        4,
			HeaderMinScore:       3,
			HeaderMargin:         2,
			FirstPageHeaderRatio: 0.18,
			LaterPageHeaderRatio: 0.10,
			FooterMargin:         3,
			MinBodyGap:           20,
		},
		Columns: ColumnsConfig{
			RightRegionRatio:     0.35,
			HeaderBand:           30,
			DeductionOffset:      65,
			SubBalanceOffset:     40,
			ChargeFallbackRatio:  0.64,
			DepositFallbackRatio: 0.78,
			BalanceFallbackRatio: 0.92,
			RadiusGapRatio:       0.38,
			MinRadius:            20,
			MaxRadius:            50,
			WallMargin:           5,
			SampleSize:           4,
		},
		Anchors: AnchorsConfig{
			LineTolerance:    4,
			DateWallOffset:   80,
			DateWallFallback: 0.30,
		},
		Slicing: SlicingConfig{
			BaselineEpsilon:   2,
			DescriptionMargin: 32,
			AmountBuffer:      10,
			ReadingRowRound:   3,
		},
		Keywords: KeywordsConfig{
			Date:        []string{"FECHA", "DIA", "DATE", "OPER", "LIQ"},
			Description: []string{"DESCRIPCION", "CONCEPTO", "DETALLE", "MOVIMIENTO", "REFERENCIA", "REF", "DESCRIPTION", "REFERENCE", "DETAILS"},
			Charge:      []string{"CARGOS", "CARGO", "RETIROS", "RETIRO", "DEBITOS", "DEBITO", "CHARGES", "WITHDRAWALS", "DEBITS"},
			Deposit:     []string{"ABONOS", "ABONO", "DEPOSITOS", "DEPOSITO", "CREDITOS", "CREDITO", "DEPOSITS", "CREDITS"},
			Balance:     []string{"SALDO", "SALDOS", "BALANCE"},
			SubBalance:  []string{"OPERACION", "LIQUIDACION", "OPERATION", "SETTLEMENT"},
			Blacklist: []string{
				"PROMEDIO", "ANTERIOR", "TOTAL", "TOTALES", "RETENCION", "RETENIDO",
				"AVERAGE", "PREVIOUS", "WITHHOLDING", "RESUMEN", "COMISIONES COBRADAS",
			},
			ClosingTrigger: []string{
				"TOTAL DE MOVIMIENTOS", "TOTAL MOVIMIENTOS", "TOTAL DE CARGOS", "TOTAL DE ABONOS",
				"ESTE DOCUMENTO ES UNA REPRESENTACION IMPRESA", "SELLO DIGITAL", "TIMBRE FISCAL",
				"CADENA ORIGINAL", "SALDO FINAL", "SALDO AL CORTE", "CUENTAS DE BOVEDA",
				"TOTAL OF MOVEMENTS", "CLOSING BALANCE",
			},
			NonTransaction: []string{
				"SALDO ANTERIOR", "SALDO INICIAL", "SALDO PROMEDIO", "TOTAL DE CARGOS",
				"TOTAL DE ABONOS", "TOTAL DE MOVIMIENTOS", "NO APLICA", "PREVIOUS BALANCE",
				"OPENING BALANCE",
			},
			NonTransactionLead: []string{"TOTAL", "TOTALES", "N/A"},
			ChargeHints:        []string{"COMISION", "RETIRO", "CARGO", "PAGO", "COMPRA", "DOMICILIACION", "IVA"},
			DepositHints:       []string{"DEPOSITO", "ABONO", "NOMINA", "INTERESES GANADOS", "DEVOLUCION", "SPEI RECIBIDO"},
		},
		Banks: map[string]BankOverride{},
	}
}

// Load reads heuristics from a YAML file. Keys missing from the file keep
// their default values.
func Load(path string) (Heuristics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Heuristics{}, fmt.Errorf("reading heuristics: %w", err)
	}
	h := Default()
	if err := yaml.Unmarshal(data, &h); err != nil {
		return Heuristics{}, fmt.Errorf("parsing heuristics: %w", err)
	}
	return h, nil
}

// Save writes heuristics to a YAML file.
func Save(path string, h Heuristics) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling heuristics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing heuristics: %w", err)
	}
	return nil
}

// ForBank returns a copy of h with the override for bank applied. Bank
// names match case-insensitively; unknown banks return h unchanged.
func (h Heuristics) ForBank(bank string) Heuristics {
	var (
		o  BankOverride
		ok bool
	)
	for name, candidate := range h.Banks {
		if strings.EqualFold(name, bank) {
			o, ok = candidate, true
			break
		}
	}
	if !ok {
		return h
	}

	out := h
	if o.DepositFirst != nil {
		out.Columns.DepositFirst = *o.DepositFirst
	}
	if o.DeductionOffset != nil {
		out.Columns.DeductionOffset = *o.DeductionOffset
	}
	if o.DescriptionMargin != nil {
		out.Slicing.DescriptionMargin = *o.DescriptionMargin
	}
	if len(o.ExtraClosingTriggers) > 0 {
		out.Keywords.ClosingTrigger = append(append([]string{}, h.Keywords.ClosingTrigger...), o.ExtraClosingTriggers...)
	}
	if len(o.ExtraNonTransaction) > 0 {
		out.Keywords.NonTransaction = append(append([]string{}, h.Keywords.NonTransaction...), o.ExtraNonTransaction...)
	}
	return out
}
