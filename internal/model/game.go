package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrHistoryExists is returned when a (position, round) entry was already recorded.
var ErrHistoryExists = errors.New("history entry already recorded")

// Unavailable is the ledger placeholder for a coefficient that could not be computed.
const Unavailable = "-"

// Game is the single game-state record.
type Game struct {
	Round               int     `json:"round"`
	Started             bool    `json:"started"`
	AwaitingCoefficient bool    `json:"wait_for_coefficient"`
	QuizActive          bool    `json:"quiz_started"`
	History             History `json:"history"`
}

// NewGame returns a game that has not started yet.
func NewGame() *Game {
	return &Game{History: History{}}
}

// HistoryEntry is the settlement outcome of one position in one round.
// A nil Coefficient means it was unavailable.
type HistoryEntry struct {
	Investors   int
	Coefficient *float64
}

// CoefficientText renders the coefficient, or "-" when unavailable.
func (e HistoryEntry) CoefficientText() string {
	if e.Coefficient == nil {
		return Unavailable
	}
	return strconv.FormatFloat(*e.Coefficient, 'f', -1, 64)
}

// MarshalJSON encodes the entry as a [investors, coefficient] pair, "-" standing in for nil.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	var coef any = Unavailable
	if e.Coefficient != nil {
		coef = *e.Coefficient
	}
	return json.Marshal([]any{e.Investors, coef})
}

func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode history entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode history entry: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Investors); err != nil {
		return fmt.Errorf("decode investors: %w", err)
	}
	var coef float64
	if err := json.Unmarshal(pair[1], &coef); err != nil {
		// Anything non-numeric is the placeholder.
		e.Coefficient = nil
		return nil
	}
	e.Coefficient = &coef
	return nil
}

// RoundEntry is a HistoryEntry tagged with its round number.
type RoundEntry struct {
	Round int
	HistoryEntry
}

// History maps position id -> round number (as string) -> entry.
type History map[string]map[string]HistoryEntry

// Record appends the entry for positionID at round. Each pair is written once.
func (h History) Record(positionID string, round int, e HistoryEntry) error {
	rounds, ok := h[positionID]
	if !ok {
		rounds = make(map[string]HistoryEntry)
		h[positionID] = rounds
	}
	key := strconv.Itoa(round)
	if _, exists := rounds[key]; exists {
		return fmt.Errorf("%s round %d: %w", positionID, round, ErrHistoryExists)
	}
	rounds[key] = e
	return nil
}

// Entries lists a position's entries in chronological order.
func (h History) Entries(positionID string) []RoundEntry {
	rounds := h[positionID]
	out := make([]RoundEntry, 0, len(rounds))
	for key, e := range rounds {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out = append(out, RoundEntry{Round: n, HistoryEntry: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}

// Clone returns a deep copy of the ledger.
func (h History) Clone() History {
	out := make(History, len(h))
	for id, rounds := range h {
		cp := make(map[string]HistoryEntry, len(rounds))
		for k, e := range rounds {
			if e.Coefficient != nil {
				v := *e.Coefficient
				e.Coefficient = &v
			}
			cp[k] = e
		}
		out[id] = cp
	}
	return out
}

// Clone returns a deep copy of the game record.
func (g *Game) Clone() *Game {
	c := *g
	c.History = g.History.Clone()
	return &c
}
