// Package parser holds the lexical rules for amounts and dates and the
// cover-page field extraction (bank family, RFC, CLABE, account number and
// statement period).
package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/lexicon"
)

// Bank family names as reported by DetectBank.
const (
	BankBBVA       = "BBVA"
	BankSantander  = "Santander"
	BankBanorte    = "Banorte"
	BankBanamex    = "Banamex"
	BankHSBC       = "HSBC"
	BankScotiabank = "Scotiabank"
	BankInbursa    = "Inbursa"
	BankBanBajio   = "BanBajio"
	BankAfirme     = "Afirme"
	BankBanregio   = "Banregio"
)

var bankIdentifiers = []struct {
	bank    string
	needles []string
}{
	{BankBBVA, []string{"BBVA", "BANCOMER"}},
	{BankSantander, []string{"SANTANDER"}},
	{BankBanorte, []string{"BANORTE"}},
	{BankBanamex, []string{"BANAMEX", "CITIBANAMEX"}},
	{BankHSBC, []string{"HSBC"}},
	{BankScotiabank, []string{"SCOTIABANK", "SCOTIA INVERLAT"}},
	{BankInbursa, []string{"INBURSA"}},
	{BankBanBajio, []string{"BANBAJIO", "BANCO DEL BAJIO"}},
	{BankAfirme, []string{"AFIRME"}},
	{BankBanregio, []string{"BANREGIO"}},
}

// CoverProfile is the company data printed on the first page of a
// statement. Empty fields were not found.
type CoverProfile struct {
	Bank          string `json:"bank,omitempty"`
	RFC           string `json:"rfc,omitempty"`
	CLABE         string `json:"clabe,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Period        string `json:"period,omitempty"`
}

// ReadCover extracts every cover field from text.
func ReadCover(text string) CoverProfile {
	return CoverProfile{
		Bank:          DetectBank(text),
		RFC:           FindRFC(text),
		CLABE:         FindCLABE(text),
		AccountNumber: FindAccountNumber(text),
		Period:        FindPeriod(text),
	}
}

// DetectBank identifies the bank family from statement text. When several
// banks are named (transfers mention the counterparty bank) the earliest
// mention wins. Unknown banks return "".
func DetectBank(text string) string {
	folded := " " + lexicon.Fold(text) + " "
	best, bestAt := "", -1
	for _, id := range bankIdentifiers {
		for _, needle := range id.needles {
			at := strings.Index(folded, " "+needle+" ")
			if at >= 0 && (bestAt < 0 || at < bestAt) {
				best, bestAt = id.bank, at
			}
		}
	}
	return best
}

var (
	rfcPattern     = regexp.MustCompile(`\b([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})\b`)
	clabePattern   = regexp.MustCompile(`\b(\d{18})\b`)
	accountPattern = regexp.MustCompile(`(?i)(?:no\.?\s*de\s*cuenta|numero\s*de\s*cuenta|número\s*de\s*cuenta|cuenta|contrato|account)\s*[:#.]?\s*(\d{10,11})\b`)
	periodPattern  = regexp.MustCompile(`(?i)per[ií]odo[^\n]*?(\d{1,2}[/ -](?:\d{1,2}|[a-z]{3})[/ -]\d{2,4})[^\n]*?(\d{1,2}[/ -](?:\d{1,2}|[a-z]{3})[/ -]\d{2,4})`)
)

// FindRFC returns the first taxpayer registry code (RFC) in text.
func FindRFC(text string) string {
	m := rfcPattern.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return ""
	}
	return m[1]
}

// FindCLABE returns the first 18-digit interbank account number whose check
// digit is valid.
func FindCLABE(text string) string {
	for _, m := range clabePattern.FindAllStringSubmatch(text, -1) {
		if ValidCLABE(m[1]) {
			return m[1]
		}
	}
	return ""
}

var clabeWeights = [3]int{3, 7, 1}

// ValidCLABE checks the length and control digit of a CLABE.
func ValidCLABE(clabe string) bool {
	if len(clabe) != 18 {
		return false
	}
	sum := 0
	for i := 0; i < 17; i++ {
		c := clabe[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += (int(c-'0') * clabeWeights[i%3]) % 10
	}
	check := (10 - sum%10) % 10
	return int(clabe[17]-'0') == check
}

// FindAccountNumber returns the 10 or 11 digit account number printed after
// an account label.
func FindAccountNumber(text string) string {
	m := accountPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// FindPeriod returns the statement period as "start - end" from a line
// containing "PERIODO" and two dates.
func FindPeriod(text string) string {
	m := periodPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + " - " + m[2]
}
