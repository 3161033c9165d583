package classify

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/statement-extractor/internal/lexicon"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Rule assigns Category to descriptions containing any of Keywords. A rule
// with a Direction only applies to records of that direction. Higher
// Priority wins; equal priorities go to the earlier rule.
type Rule struct {
	Category  string           `yaml:"category"`
	Keywords  []string         `yaml:"keywords"`
	Direction models.Direction `yaml:"direction,omitempty"`
	Priority  int              `yaml:"priority,omitempty"`
}

// DefaultRules covers the movements common to Mexican business accounts.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "bank-fees", Keywords: []string{"COMISION", "IVA COMISION", "CUOTA ANUAL", "MEMBRESIA"}, Direction: models.DirectionCharge, Priority: 10},
		{Category: "payroll", Keywords: []string{"NOMINA", "PAGO DE NOMINA", "DISPERSION"}},
		{Category: "taxes", Keywords: []string{"SAT", "IMPUESTO", "ISR", "IVA", "PAGO REFERENCIADO"}},
		{Category: "interest", Keywords: []string{"INTERESES", "RENDIMIENTO"}, Direction: models.DirectionDeposit},
		{Category: "cash", Keywords: []string{"RETIRO CAJERO", "RETIRO EN EFECTIVO", "DEPOSITO EN EFECTIVO", "CAJERO"}},
		{Category: "utilities", Keywords: []string{"CFE", "TELMEX", "TOTALPLAY", "IZZI", "AGUA", "GAS NATURAL"}},
		{Category: "card-payments", Keywords: []string{"PAGO TARJETA", "PAGO TDC", "TARJETA DE CREDITO"}},
		{Category: "transfers", Keywords: []string{"SPEI", "TRANSFERENCIA", "TRASPASO", "TEF"}},
	}
}

// LoadRules reads rules from a YAML list.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return rules, nil
}

// RuleClassifier matches every rule keyword against a description in one
// Aho-Corasick pass.
type RuleClassifier struct {
	mu      sync.Mutex // the matcher keeps per-call state
	matcher *ahocorasick.Matcher
	rules   []Rule
	owners  [][]int // rule indexes per pattern
}

// NewRuleClassifier compiles rules. Keywords are folded like statement text
// and match whole words only.
func NewRuleClassifier(rules []Rule) *RuleClassifier {
	c := &RuleClassifier{rules: rules}
	index := map[string]int{}
	var patterns []string
	for ri, r := range rules {
		if r.Category == "" {
			continue
		}
		for _, k := range r.Keywords {
			f := lexicon.Fold(k)
			if f == "" {
				continue
			}
			p := " " + f + " "
			idx, ok := index[p]
			if !ok {
				idx = len(patterns)
				index[p] = idx
				patterns = append(patterns, p)
				c.owners = append(c.owners, nil)
			}
			c.owners[idx] = append(c.owners[idx], ri)
		}
	}
	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return c
}

// Category returns the best matching category for a description.
func (c *RuleClassifier) Category(description string, dir models.Direction) (string, bool) {
	if c.matcher == nil {
		return "", false
	}
	f := lexicon.Fold(description)
	if f == "" {
		return "", false
	}

	c.mu.Lock()
	hits := c.matcher.Match([]byte(" " + f + " "))
	c.mu.Unlock()

	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(c.owners) {
			continue
		}
		for _, ri := range c.owners[idx] {
			r := c.rules[ri]
			if r.Direction != "" && r.Direction != dir {
				continue
			}
			if best < 0 || r.Priority > c.rules[best].Priority || (r.Priority == c.rules[best].Priority && ri < best) {
				best = ri
			}
		}
	}
	if best < 0 {
		return "", false
	}
	return c.rules[best].Category, true
}

// Classify labels the candidates the rules recognise. It satisfies Func.
func (c *RuleClassifier) Classify(ctx context.Context, _ string, batch []Candidate) (Labels, error) {
	out := Labels{}
	for _, cand := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cat, ok := c.Category(cand.Description, cand.Direction); ok {
			out[cand.ID] = cat
		}
	}
	return out, nil
}
