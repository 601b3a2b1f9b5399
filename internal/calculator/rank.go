package calculator

import (
	"sort"

	"InvestArena/internal/model"
)

// Standing is one leaderboard row.
type Standing struct {
	Place  int
	TeamID string
	Name   string
	Total  float64
}

// Rank orders teams by total score, highest first. Ties keep team id order.
func Rank(teams []*model.Team) []Standing {
	sorted := make([]*model.Team, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].TotalScore(), sorted[j].TotalScore()
		if ti != tj {
			return ti > tj
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]Standing, len(sorted))
	for i, t := range sorted {
		out[i] = Standing{
			Place:  i + 1,
			TeamID: t.ID,
			Name:   t.Name,
			Total:  Round2(t.TotalScore()),
		}
	}
	return out
}
