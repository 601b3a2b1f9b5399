package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestArena/internal/model"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(model.NewTeam("b2", 20)))
	require.NoError(t, r.Add(model.NewTeam("a1", 10)))
	assert.ErrorIs(t, r.Add(model.NewTeam("c3", 10)), ErrAlreadyRegistered)
	assert.Equal(t, 2, r.Len())

	tm, ok := r.ByOwner(20)
	require.True(t, ok)
	assert.Equal(t, "b2", tm.ID)

	tm, ok = r.ByTeamID(" B2 ")
	require.True(t, ok)
	assert.Equal(t, int64(20), tm.OwnerID)

	_, ok = r.ByTeamID("zz")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].ID)
	assert.Equal(t, "b2", all[1].ID)
}
