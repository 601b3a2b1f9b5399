package game

import (
	"sort"
	"strings"

	"InvestArena/internal/model"
)

// Registry indexes teams by owner chat id. It is not safe for concurrent use;
// the Controller serializes access.
type Registry struct {
	byOwner map[int64]*model.Team
}

func NewRegistry() *Registry {
	return &Registry{byOwner: make(map[int64]*model.Team)}
}

// Add registers a team under its owner.
func (r *Registry) Add(t *model.Team) error {
	if _, ok := r.byOwner[t.OwnerID]; ok {
		return ErrAlreadyRegistered
	}
	r.byOwner[t.OwnerID] = t
	return nil
}

func (r *Registry) ByOwner(ownerID int64) (*model.Team, bool) {
	t, ok := r.byOwner[ownerID]
	return t, ok
}

// ByTeamID finds a team by id, ignoring case.
func (r *Registry) ByTeamID(id string) (*model.Team, bool) {
	id = strings.TrimSpace(id)
	for _, t := range r.byOwner {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return nil, false
}

// All returns the registered teams ordered by team id.
func (r *Registry) All() []*model.Team {
	out := make([]*model.Team, 0, len(r.byOwner))
	for _, t := range r.byOwner {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int { return len(r.byOwner) }
