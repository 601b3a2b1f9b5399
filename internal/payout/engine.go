package payout

import (
	"fmt"
	"strings"
)

// Position is an investable option with exactly one payout rule.
type Position struct {
	ID   string
	Name string
	Rule Rule
}

// IsCustom reports whether the position waits for an administrator-supplied coefficient.
func (p Position) IsCustom() bool {
	return p.Rule != nil && p.Rule.Kind() == KindCustom
}

// Coefficient evaluates the position's rule against the round tally.
// ok is false when no coefficient is available: no rule, no matching tier,
// a custom value not supplied yet, or a non-finite result.
func (p Position) Coefficient(t Tally) (float64, bool) {
	if p.Rule == nil {
		return 0, false
	}
	return finite(p.Rule.coefficient(p.ID, t))
}

// Describe renders the payout rule for reports, e.g. "1-2: x1.5, 9+: x0.3".
func (p Position) Describe() string {
	switch r := p.Rule.(type) {
	case Linear:
		if r.Label == "" {
			return "linear"
		}
		return r.Label
	case Tiered:
		parts := make([]string, 0, len(r.tiers))
		for _, t := range r.Tiers() {
			parts = append(parts, fmt.Sprintf("%s: x%g", t, t.Coefficient))
		}
		return strings.Join(parts, ", ")
	case Derived:
		return fmt.Sprintf("N(%s)/N", r.Mother)
	case Custom:
		return "set by the administrator"
	}
	return "none"
}

// Quote is the settlement view of one position in one round.
type Quote struct {
	Position    Position
	Investors   int
	Coefficient float64
	Available   bool
}

// Evaluate quotes every position against the same tally.
func Evaluate(positions []Position, t Tally) []Quote {
	out := make([]Quote, len(positions))
	for i, p := range positions {
		v, ok := p.Coefficient(t)
		out[i] = Quote{
			Position:    p,
			Investors:   t.Investors(p.ID),
			Coefficient: v,
			Available:   ok,
		}
	}
	return out
}
