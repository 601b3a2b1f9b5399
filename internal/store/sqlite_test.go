package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestArena/internal/model"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	out := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
	if pg := openPostgres(t); pg != nil {
		out["postgres"] = pg
	}
	return out
}

func TestStore_TeamRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			team := model.NewTeam("a1b2c3", 1001)
			team.Choice1 = "vk"
			team.QuizAnswers = []string{"nvidia"}
			require.NoError(t, s.SaveTeam(ctx, team))

			team.Name = "Bulls"
			team.Asset1 = 16.5
			team.Choice1 = ""
			require.NoError(t, s.SaveTeam(ctx, team))

			teams, err := s.LoadTeams(ctx)
			require.NoError(t, err)
			require.Len(t, teams, 1)
			got := teams[0]
			assert.Equal(t, "Bulls", got.Name)
			assert.Equal(t, int64(1001), got.OwnerID)
			assert.Equal(t, 16.5, got.Asset1)
			assert.Equal(t, 10.0, got.Asset2)
			assert.Empty(t, got.Choice1)
			assert.Equal(t, []string{"nvidia"}, got.QuizAnswers)
		})
	}
}

func TestStore_GameRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g, err := s.LoadGame(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, g.Round)
			assert.False(t, g.Started)

			c := 1.1
			g.Round = 2
			g.Started = true
			require.NoError(t, g.History.Record("tbank", 1, model.HistoryEntry{Investors: 3, Coefficient: &c}))
			require.NoError(t, g.History.Record("crypto", 1, model.HistoryEntry{Investors: 0}))
			require.NoError(t, s.SaveGame(ctx, g))

			back, err := s.LoadGame(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, back.Round)
			assert.True(t, back.Started)
			require.NotNil(t, back.History["tbank"]["1"].Coefficient)
			assert.Equal(t, 1.1, *back.History["tbank"]["1"].Coefficient)
			assert.Nil(t, back.History["crypto"]["1"].Coefficient)
		})
	}
}

func TestStore_Tokens(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.CreateTokens(ctx, []string{"aaaaaa", "bbbbbb"}))

			require.NoError(t, s.ActivateToken(ctx, "aaaaaa"))
			assert.True(t, errors.Is(s.ActivateToken(ctx, "aaaaaa"), ErrTokenUsed))
			assert.True(t, errors.Is(s.ActivateToken(ctx, "zzzzzz"), ErrTokenNotFound))
			require.NoError(t, s.ActivateToken(ctx, "bbbbbb"))
		})
	}
}

func TestSnapshot_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "state.json")

	missing, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Nil(t, missing)

	g := model.NewGame()
	g.Round = 3
	require.NoError(t, WriteSnapshot(path, &Snapshot{Game: g, Teams: []*model.Team{model.NewTeam("x", 7)}}))

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, snap.Game.Round)
	require.Len(t, snap.Teams, 1)
	assert.Equal(t, int64(7), snap.Teams[0].OwnerID)
	assert.False(t, snap.TakenAt.IsZero())
}
