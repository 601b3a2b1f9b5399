package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"InvestArena/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for tests and
// for running without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	teams  map[string]*model.Team
	tokens map[string]bool
	game   *model.Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:  make(map[string]*model.Team),
		tokens: make(map[string]bool),
	}
}

func (s *MemoryStore) LoadTeams(_ context.Context) ([]*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveTeam(_ context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[team.ID] = team.Clone()
	return nil
}

// Team returns the stored copy of a team, for assertions in tests.
func (s *MemoryStore) Team(id string) (*model.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (s *MemoryStore) LoadGame(_ context.Context) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		s.game = model.NewGame()
	}
	return s.game.Clone(), nil
}

func (s *MemoryStore) SaveGame(_ context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = game.Clone()
	return nil
}

func (s *MemoryStore) CreateTokens(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, exists := s.tokens[id]; exists {
			return fmt.Errorf("token %s already exists", id)
		}
	}
	for _, id := range ids {
		s.tokens[id] = false
	}
	return nil
}

func (s *MemoryStore) ActivateToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	used, ok := s.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	if used {
		return ErrTokenUsed
	}
	s.tokens[id] = true
	return nil
}

func (s *MemoryStore) Close() error { return nil }
