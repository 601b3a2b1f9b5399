package payout

import (
	"errors"
	"fmt"
	"math"

	"InvestArena/internal/calculator"
)

// Kind names a payout rule variant.
type Kind string

const (
	KindLinear  Kind = "linear"
	KindTiered  Kind = "tiered"
	KindDerived Kind = "derived"
	KindCustom  Kind = "custom"
)

// Precedence is the order in which rule variants are considered when a
// definition names more than one.
var Precedence = []Kind{KindLinear, KindTiered, KindDerived, KindCustom}

// Rule is a payout rule. The set of implementations is closed: Linear, Tiered,
// Derived and Custom.
type Rule interface {
	Kind() Kind
	coefficient(positionID string, t Tally) (float64, bool)
}

// Linear maps the investor count through Fn and rounds to two decimals.
// Fn is responsible for its own zero-count handling.
type Linear struct {
	Fn    func(investors int) float64
	Label string
}

func (Linear) Kind() Kind { return KindLinear }

func (l Linear) coefficient(id string, t Tally) (float64, bool) {
	if l.Fn == nil {
		return 0, false
	}
	return calculator.Round2(l.Fn(t.Investors(id))), true
}

// Constant pays c regardless of the investor count.
func Constant(c float64) Linear {
	return Linear{
		Fn:    func(int) float64 { return c },
		Label: fmt.Sprintf("x%g", c),
	}
}

// Split divides pool between investors; zero investors count as one.
func Split(pool float64) Linear {
	return Linear{
		Fn: func(n int) float64 {
			if n == 0 {
				n = 1
			}
			return pool / float64(n)
		},
		Label: fmt.Sprintf("%g/N", pool),
	}
}

var (
	ErrNoTiers       = errors.New("tiered rule needs at least one tier")
	ErrTierBounds    = errors.New("tier low bound exceeds high bound")
	ErrTierOverlap   = errors.New("tiers overlap")
	ErrOpenTierOrder = errors.New("open-ended tier must be last and above every bounded tier")
)

// Tier maps the investor range [Low, High] to a coefficient. Open tiers have
// no upper bound and ignore High.
type Tier struct {
	Low         int
	High        int
	Open        bool
	Coefficient float64
}

func (t Tier) matches(n int) bool {
	if t.Open {
		return n >= t.Low
	}
	return t.Low <= n && n <= t.High
}

func (t Tier) String() string {
	if t.Open {
		return fmt.Sprintf("%d+", t.Low)
	}
	return fmt.Sprintf("%d-%d", t.Low, t.High)
}

// Tiered picks the first tier whose range contains the investor count.
// The coefficient is returned as configured, without rounding.
type Tiered struct {
	tiers []Tier
}

// NewTiered validates tiers and keeps them in declaration order.
func NewTiered(tiers ...Tier) (Tiered, error) {
	if len(tiers) == 0 {
		return Tiered{}, ErrNoTiers
	}
	for i, t := range tiers {
		if !t.Open && t.Low > t.High {
			return Tiered{}, fmt.Errorf("tier %s: %w", t, ErrTierBounds)
		}
		if t.Open && i != len(tiers)-1 {
			return Tiered{}, fmt.Errorf("tier %s: %w", t, ErrOpenTierOrder)
		}
		for _, prev := range tiers[:i] {
			if t.Open {
				if prev.High >= t.Low {
					return Tiered{}, fmt.Errorf("tier %s after %s: %w", t, prev, ErrOpenTierOrder)
				}
				continue
			}
			if t.Low <= prev.High && prev.Low <= t.High {
				return Tiered{}, fmt.Errorf("tiers %s and %s: %w", prev, t, ErrTierOverlap)
			}
		}
	}
	return Tiered{tiers: append([]Tier(nil), tiers...)}, nil
}

// MustTiered is NewTiered for static tables; it panics on invalid input.
func MustTiered(tiers ...Tier) Tiered {
	r, err := NewTiered(tiers...)
	if err != nil {
		panic(err)
	}
	return r
}

func (Tiered) Kind() Kind { return KindTiered }

// Tiers returns a copy of the tier table.
func (r Tiered) Tiers() []Tier { return append([]Tier(nil), r.tiers...) }

func (r Tiered) coefficient(id string, t Tally) (float64, bool) {
	n := t.Investors(id)
	for _, tier := range r.tiers {
		if tier.matches(n) {
			return tier.Coefficient, true
		}
	}
	return 0, false
}

// Derived divides the mother position's investor count by its own.
type Derived struct {
	Mother string
}

func (Derived) Kind() Kind { return KindDerived }

func (r Derived) coefficient(id string, t Tally) (float64, bool) {
	own := t.Investors(id)
	if own == 0 {
		return 1, true
	}
	v, _ := calculator.Ratio(t.Investors(r.Mother), own)
	if v == 0 {
		return 1, true
	}
	return v, true
}

// Custom takes its coefficient from the administrator for the current round.
type Custom struct{}

func (Custom) Kind() Kind { return KindCustom }

func (Custom) coefficient(id string, t Tally) (float64, bool) {
	v, ok := t.Custom[id]
	return v, ok
}

// finite drops NaN and infinities produced by a misbehaving linear function.
func finite(v float64, ok bool) (float64, bool) {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
