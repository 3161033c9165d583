package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ErrEmptyAmount is returned by ParseAmount when no digits remain after
// cleaning.
var ErrEmptyAmount = errors.New("empty amount")

var (
	// 1,234.56 or 1234.56, optionally signed
	amountPattern = regexp.MustCompile(`^-?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}-?$`)

	// DD MON, DD/MON, DD-MON, DDMON with an optional year (05 ENE, 05/ENE/2025)
	textualDatePattern = regexp.MustCompile(`(?i)^(\d{1,2})[ /.-]?(ENE|FEB|MAR|ABR|MAY|JUN|JUL|AGO|SEP|SET|OCT|NOV|DIC|JAN|APR|AUG|DEC)\.?(?:[ /.-]?(\d{2}|\d{4}))?$`)
	// DD/MM/YYYY, DD-MM-YY
	numericDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})$`)
	dayPattern         = regexp.MustCompile(`^\d{1,2}$`)

	currencyReplacer = strings.NewReplacer(
		"$", "", "£", "", "€", "", "MXN", "", "MN", "",
		",", "", " ", "", "\u00a0", "",
	)
)

// cleanAmount strips currency symbols, thousands separators and spaces.
func cleanAmount(s string) string {
	return currencyReplacer.Replace(strings.TrimSpace(s))
}

// IsAmount reports whether s is a currency amount with exactly two
// decimals, e.g. "1,234.56" or "$45.00".
func IsAmount(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	return amountPattern.MatchString(s)
}

// ParseDecimal converts a string like "1,234.56" or "$-45.00" to an exact
// decimal. A trailing minus is treated as a sign.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = cleanAmount(s)
	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		s = "-" + strings.TrimSuffix(s, "-")
	}
	if s == "" || s == "-" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// ParseAmount converts an amount token to its absolute value.
func ParseAmount(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return d.Abs().InexactFloat64(), nil
}

// DateKind classifies text as a row date. Textual dates are tried first,
// then strict numeric dates, then bare day numbers 1-31.
func DateKind(text string) (models.DateKind, bool) {
	text = strings.TrimSpace(text)
	if IsTextualDate(text) {
		return models.DateFullTextual, true
	}
	if IsNumericDate(text) {
		return models.DateFullNumeric, true
	}
	if IsDay(text) {
		return models.DateDayOnly, true
	}
	return "", false
}

// IsTextualDate reports whether text is a day followed by a three-letter
// Spanish or English month abbreviation.
func IsTextualDate(text string) bool {
	m := textualDatePattern.FindStringSubmatch(strings.TrimSpace(text))
	return m != nil && validDay(m[1])
}

// IsNumericDate reports whether text is DD/MM/YYYY, DD-MM-YY or a mix of
// those separators with a valid day and month.
func IsNumericDate(text string) bool {
	m := numericDatePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil || !validDay(m[1]) {
		return false
	}
	month, _ := strconv.Atoi(m[2])
	return month >= 1 && month <= 12
}

// IsDay reports whether text is a bare day number in 1-31.
func IsDay(text string) bool {
	text = strings.TrimSpace(text)
	return dayPattern.MatchString(text) && validDay(text)
}

// IsDateLike reports whether text looks like any of the row date forms,
// including a bare month abbreviation left over from a split date.
func IsDateLike(text string) bool {
	if _, ok := DateKind(text); ok {
		return true
	}
	return IsMonth(text)
}

// IsMonth reports whether text is a month abbreviation on its own.
func IsMonth(text string) bool {
	return textualDatePattern.MatchString("1 " + strings.TrimSpace(text))
}

func validDay(s string) bool {
	d, err := strconv.Atoi(s)
	return err == nil && d >= 1 && d <= 31
}

// IsNumeric reports whether s contains at least one digit and nothing but
// digits and amount punctuation.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("$,.-", r):
		default:
			return false
		}
	}
	return digits > 0
}
