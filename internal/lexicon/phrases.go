package lexicon

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// PhraseSet matches whole-word phrases anywhere in a text in a single pass.
type PhraseSet struct {
	mu       sync.Mutex // the matcher keeps per-call state
	matcher  *ahocorasick.Matcher
	phrases  []string
	patterns []string
}

// NewPhraseSet builds a set from phrases. Phrases that fold to nothing are
// ignored and duplicates are merged.
func NewPhraseSet(phrases []string) *PhraseSet {
	ps := &PhraseSet{}
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		f := Fold(p)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		ps.phrases = append(ps.phrases, p)
		// padding anchors every match to word boundaries
		ps.patterns = append(ps.patterns, " "+f+" ")
	}
	if len(ps.patterns) > 0 {
		ps.matcher = ahocorasick.NewStringMatcher(ps.patterns)
	}
	return ps
}

// Len returns the number of distinct phrases.
func (ps *PhraseSet) Len() int {
	return len(ps.patterns)
}

// Contains reports whether any phrase occurs in text.
func (ps *PhraseSet) Contains(text string) bool {
	return len(ps.Find(text)) > 0
}

// Leads reports whether text starts with one of the phrases.
func (ps *PhraseSet) Leads(text string) bool {
	if ps == nil {
		return false
	}
	f := " " + Fold(text) + " "
	for _, pat := range ps.patterns {
		if strings.HasPrefix(f, pat) {
			return true
		}
	}
	return false
}

// Find returns the phrases (as configured) that occur in text, in
// configuration order.
func (ps *PhraseSet) Find(text string) []string {
	if ps == nil || ps.matcher == nil {
		return nil
	}
	f := Fold(text)
	if f == "" {
		return nil
	}

	ps.mu.Lock()
	hits := ps.matcher.Match([]byte(" " + f + " "))
	ps.mu.Unlock()
	if len(hits) == 0 {
		return nil
	}

	found := make([]bool, len(ps.phrases))
	for _, idx := range hits {
		if idx >= 0 && idx < len(found) {
			found[idx] = true
		}
	}
	var out []string
	for i, ok := range found {
		if ok {
			out = append(out, ps.phrases[i])
		}
	}
	return out
}
