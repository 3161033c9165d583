package parser

import (
	"errors"
	"testing"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"1,234.56", 1234.56, false},
		{"$45.00", 45.00, false},
		{"25.99", 25.99, false},
		{"-25.99", 25.99, false},
		{"25.99-", 25.99, false},
		{"$1,234,567.89", 1234567.89, false},
		{"0.00", 0.00, false},
		{" 25.99 ", 25.99, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestParseDecimalSign(t *testing.T) {
	d, err := ParseDecimal("1,000.50-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "-1000.5" {
		t.Errorf("got %s, want -1000.5", d)
	}

	if _, err := ParseDecimal("$"); !errors.Is(err, ErrEmptyAmount) {
		t.Errorf("expected ErrEmptyAmount, got %v", err)
	}
}

func TestIsAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1,500.00", true},
		{"$45.00", true},
		{"$ 45.00", true},
		{"1500.00", true},
		{"0.50", true},
		{"1,50.00", false},
		{"1,500", false},
		{"1,500.0", false},
		{"15", false},
		{"05/01/2025", false},
		{"PAGO", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsAmount(tt.input); got != tt.expected {
				t.Errorf("IsAmount(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDateKind(t *testing.T) {
	tests := []struct {
		input  string
		kind   models.DateKind
		wantOK bool
	}{
		{"05 ENE", models.DateFullTextual, true},
		{"05/ENE", models.DateFullTextual, true},
		{"05-ene-2025", models.DateFullTextual, true},
		{"15 Jan", models.DateFullTextual, true},
		{"05ENE", models.DateFullTextual, true},
		{"05/01/2025", models.DateFullNumeric, true},
		{"05-01-25", models.DateFullNumeric, true},
		{"31/13/2025", "", false},
		{"15", models.DateDayOnly, true},
		{"1", models.DateDayOnly, true},
		{"32", "", false},
		{"0", "", false},
		{"ENERO", "", false},
		{"PAGO", "", false},
		{"1,500.00", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, ok := DateKind(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("DateKind(%q): ok=%v, want %v", tt.input, ok, tt.wantOK)
			}
			if kind != tt.kind {
				t.Errorf("DateKind(%q): got %q, want %q", tt.input, kind, tt.kind)
			}
		})
	}
}

func TestIsDateLike(t *testing.T) {
	for _, s := range []string{"ENE", "dic", "05/01/2025", "12"} {
		if !IsDateLike(s) {
			t.Errorf("IsDateLike(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"PAGO", "MARCA", "1,500.00"} {
		if IsDateLike(s) {
			t.Errorf("IsDateLike(%q) = true, want false", s)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123456", true},
		{"1,500.00", true},
		{"$45.00", true},
		{"REF123", false},
		{"-", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsNumeric(tt.input); got != tt.expected {
				t.Errorf("IsNumeric(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
