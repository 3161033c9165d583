package lexicon

import (
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Class is the keyword class of a header token.
type Class int

const (
	ClassNone Class = iota
	ClassDate
	ClassDescription
	ClassCharge
	ClassDeposit
	ClassBalance
	ClassSubBalance
)

func (c Class) String() string {
	switch c {
	case ClassDate:
		return "date"
	case ClassDescription:
		return "description"
	case ClassCharge:
		return "charge"
	case ClassDeposit:
		return "deposit"
	case ClassBalance:
		return "balance"
	case ClassSubBalance:
		return "sub_balance"
	}
	return "none"
}

// Amount reports whether c names an amount column.
func (c Class) Amount() bool {
	return c >= ClassCharge
}

// rank orders classes when a compound token such as "FECHA/CARGO" carries
// more than one keyword; amount columns win.
var rank = map[Class]int{
	ClassDate:        1,
	ClassDescription: 2,
	ClassSubBalance:  3,
	ClassBalance:     4,
	ClassDeposit:     5,
	ClassCharge:      6,
}

// Lexicon is the compiled form of config.KeywordsConfig. It is safe for
// concurrent use.
type Lexicon struct {
	words          map[string]Class
	blacklist      *PhraseSet
	closing        *PhraseSet
	nonTransaction *PhraseSet
	leadVeto       *PhraseSet
	chargeHints    *PhraseSet
	depositHints   *PhraseSet
}

// New compiles the keyword lists.
func New(k config.KeywordsConfig) *Lexicon {
	l := &Lexicon{
		words:          make(map[string]Class),
		blacklist:      NewPhraseSet(k.Blacklist),
		closing:        NewPhraseSet(k.ClosingTrigger),
		nonTransaction: NewPhraseSet(k.NonTransaction),
		leadVeto:       NewPhraseSet(k.NonTransactionLead),
		chargeHints:    NewPhraseSet(k.ChargeHints),
		depositHints:   NewPhraseSet(k.DepositHints),
	}
	add := func(c Class, list []string) {
		for _, w := range list {
			for _, f := range Words(w) {
				if rank[c] > rank[l.words[f]] {
					l.words[f] = c
				}
			}
		}
	}
	add(ClassDate, k.Date)
	add(ClassDescription, k.Description)
	add(ClassCharge, k.Charge)
	add(ClassDeposit, k.Deposit)
	add(ClassBalance, k.Balance)
	add(ClassSubBalance, k.SubBalance)
	return l
}

// Classify returns the keyword class of a single token.
func (l *Lexicon) Classify(text string) Class {
	best := ClassNone
	for _, w := range Words(text) {
		if c := l.words[w]; rank[c] > rank[best] {
			best = c
		}
	}
	return best
}

// Weight is the header score contribution of a token: 2 for amount-column
// keywords, 1 for date and description keywords, 0 otherwise.
func (l *Lexicon) Weight(text string) int {
	switch c := l.Classify(text); {
	case c.Amount():
		return 2
	case c != ClassNone:
		return 1
	}
	return 0
}

// Blacklisted reports whether a line contains a phrase that disqualifies it
// from being a table header.
func (l *Lexicon) Blacklisted(line string) bool {
	return l.blacklist.Contains(line)
}

// ClosingTrigger reports whether a line opens a closing section.
func (l *Lexicon) ClosingTrigger(line string) bool {
	return l.closing.Contains(line)
}

// NonTransaction reports whether a description is a table artifact such as
// a previous-balance line or a section total.
func (l *Lexicon) NonTransaction(description string) bool {
	return l.nonTransaction.Contains(description) || l.leadVeto.Leads(description)
}

// DirectionHint returns the direction implied by description wording. It
// reports false when no hint matches or when both directions match.
func (l *Lexicon) DirectionHint(description string) (models.Direction, bool) {
	charge := l.chargeHints.Contains(description)
	deposit := l.depositHints.Contains(description)
	switch {
	case charge && !deposit:
		return models.DirectionCharge, true
	case deposit && !charge:
		return models.DirectionDeposit, true
	}
	return "", false
}

// JoinText joins token texts with single spaces.
func JoinText(tokens []models.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}
