// Package catalog holds the static game definition: investable positions,
// the per-round schedule and the quiz.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"InvestArena/internal/payout"
)

// Question is one quiz question with its accepted answers.
type Question struct {
	Text    string
	Answers []string
}

// Accepts reports whether answer matches one of the accepted answers, ignoring case.
func (q Question) Accepts(answer string) bool {
	answer = strings.TrimSpace(answer)
	for _, a := range q.Answers {
		if strings.EqualFold(answer, a) {
			return true
		}
	}
	return false
}

// Quiz is the ordered question list and the bonus table indexed by correct answers - 1.
type Quiz struct {
	Questions []Question
	Bonuses   []float64
}

// Bonus returns the multiplier for the given number of correct answers.
// Zero correct answers earn no bonus; counts beyond the table use its last entry.
func (q Quiz) Bonus(correct int) float64 {
	if correct <= 0 || len(q.Bonuses) == 0 {
		return 1
	}
	if correct > len(q.Bonuses) {
		correct = len(q.Bonuses)
	}
	return q.Bonuses[correct-1]
}

// Catalog is the immutable game definition shared across rounds.
type Catalog struct {
	Positions []payout.Position
	Rounds    [][]string
	Quiz      Quiz

	byID map[string]int
}

// New indexes positions and validates the definition.
func New(positions []payout.Position, rounds [][]string, quiz Quiz) (*Catalog, error) {
	c := &Catalog{Positions: positions, Rounds: rounds, Quiz: quiz}
	if err := c.index(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	c.byID = make(map[string]int, len(c.Positions))
	for i, p := range c.Positions {
		if p.ID == "" {
			return fmt.Errorf("position #%d has no id", i+1)
		}
		if _, dup := c.byID[p.ID]; dup {
			return fmt.Errorf("duplicate position id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	return nil
}

// Validate checks that every position has a rule, derived mothers exist and
// the schedule only names known positions.
func (c *Catalog) Validate() error {
	if len(c.Positions) == 0 {
		return errors.New("catalog has no positions")
	}
	if len(c.Rounds) == 0 {
		return errors.New("catalog has no rounds")
	}
	for _, p := range c.Positions {
		if p.Rule == nil {
			return fmt.Errorf("position %q has no payout rule", p.ID)
		}
		if d, ok := p.Rule.(payout.Derived); ok {
			if _, found := c.byID[d.Mother]; !found {
				return fmt.Errorf("position %q: unknown mother %q", p.ID, d.Mother)
			}
		}
	}
	for i, round := range c.Rounds {
		if len(round) == 0 {
			return fmt.Errorf("round %d has no positions", i+1)
		}
		seen := make(map[string]bool, len(round))
		for _, id := range round {
			if _, ok := c.byID[id]; !ok {
				return fmt.Errorf("round %d: unknown position %q", i+1, id)
			}
			if seen[id] {
				return fmt.Errorf("round %d: position %q listed twice", i+1, id)
			}
			seen[id] = true
		}
	}
	for i, q := range c.Quiz.Questions {
		if len(q.Answers) == 0 {
			return fmt.Errorf("quiz question %d has no accepted answers", i+1)
		}
	}
	return nil
}

// Position looks a position up by id.
func (c *Catalog) Position(id string) (payout.Position, bool) {
	i, ok := c.byID[id]
	if !ok {
		return payout.Position{}, false
	}
	return c.Positions[i], true
}

// RoundCount is the number of scheduled rounds.
func (c *Catalog) RoundCount() int { return len(c.Rounds) }

// Round returns the positions active in round n (1-based).
func (c *Catalog) Round(n int) ([]payout.Position, bool) {
	if n < 1 || n > len(c.Rounds) {
		return nil, false
	}
	ids := c.Rounds[n-1]
	out := make([]payout.Position, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Positions[c.byID[id]])
	}
	return out, true
}

// InRound reports whether position id is active in round n.
func (c *Catalog) InRound(n int, id string) bool {
	if n < 1 || n > len(c.Rounds) {
		return false
	}
	for _, rid := range c.Rounds[n-1] {
		if rid == id {
			return true
		}
	}
	return false
}
