package payout

import "InvestArena/internal/model"

// Tally is the per-round input of the engine: investor counts by position id
// and any coefficients the administrator supplied for custom positions.
type Tally struct {
	Counts map[string]int
	Custom map[string]float64
}

// NewTally counts every non-empty choice slot. A team putting both assets into
// the same position counts twice.
func NewTally(teams []*model.Team, custom map[string]float64) Tally {
	counts := make(map[string]int)
	for _, t := range teams {
		for _, s := range model.Slots {
			if id := t.Choice(s); id != "" {
				counts[id]++
			}
		}
	}
	if custom == nil {
		custom = map[string]float64{}
	}
	return Tally{Counts: counts, Custom: custom}
}

// Investors returns the number of slots pointing at positionID.
func (t Tally) Investors(positionID string) int {
	return t.Counts[positionID]
}
