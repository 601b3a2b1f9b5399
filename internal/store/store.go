// Package store persists teams, join tokens and the game record. The
// in-memory state owned by the game controller is authoritative; a Store is
// written after each mutation and read only at startup.
package store

import (
	"context"
	"errors"

	"InvestArena/internal/model"
)

var (
	ErrTokenNotFound = errors.New("join token not found")
	ErrTokenUsed     = errors.New("join token already activated")
)

// Store is the durable mirror of game state.
type Store interface {
	// LoadTeams returns every registered team.
	LoadTeams(ctx context.Context) ([]*model.Team, error)

	// SaveTeam inserts or updates a team.
	SaveTeam(ctx context.Context, team *model.Team) error

	// LoadGame returns the game record, creating a fresh one on first boot.
	LoadGame(ctx context.Context) (*model.Game, error)

	// SaveGame overwrites the game record.
	SaveGame(ctx context.Context, game *model.Game) error

	// CreateTokens stores new, not yet activated join tokens.
	CreateTokens(ctx context.Context, ids []string) error

	// ActivateToken marks a token used. It fails with ErrTokenNotFound or ErrTokenUsed.
	ActivateToken(ctx context.Context, id string) error

	Close() error
}
