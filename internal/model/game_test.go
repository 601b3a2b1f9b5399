package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coef(v float64) *float64 { return &v }

func TestHistory_RecordOncePerRound(t *testing.T) {
	h := History{}
	require.NoError(t, h.Record("tbank", 1, HistoryEntry{Investors: 3, Coefficient: coef(1.1)}))

	err := h.Record("tbank", 1, HistoryEntry{Investors: 9, Coefficient: coef(2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHistoryExists))
	assert.Equal(t, 3, h["tbank"]["1"].Investors)
}

func TestHistory_EntriesChronological(t *testing.T) {
	h := History{}
	for _, r := range []int{10, 2, 1, 3} {
		require.NoError(t, h.Record("vk", r, HistoryEntry{Investors: r}))
	}
	entries := h.Entries("vk")
	require.Len(t, entries, 4)
	for i, want := range []int{1, 2, 3, 10} {
		assert.Equal(t, want, entries[i].Round)
	}
	assert.Empty(t, h.Entries("missing"))
}

func TestHistory_JSONPlaceholder(t *testing.T) {
	h := History{}
	require.NoError(t, h.Record("crypto", 1, HistoryEntry{Investors: 0}))
	require.NoError(t, h.Record("tbank", 1, HistoryEntry{Investors: 3, Coefficient: coef(1.1)}))

	raw, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"crypto":{"1":[0,"-"]},"tbank":{"1":[3,1.1]}}`, string(raw))

	var back History
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Nil(t, back["crypto"]["1"].Coefficient)
	assert.Equal(t, "-", back["crypto"]["1"].CoefficientText())
	assert.Equal(t, "1.1", back["tbank"]["1"].CoefficientText())
}

func TestTeam_SlotAccessors(t *testing.T) {
	team := NewTeam("a1b2c3", 42)
	assert.Equal(t, "Team #a1b2c3", team.Name)
	assert.Equal(t, 20.0, team.TotalScore())

	team.SetChoice(SlotTwo, "vk")
	team.SetAsset(SlotTwo, 12.5)
	assert.Equal(t, "vk", team.Choice(SlotTwo))
	assert.Equal(t, "", team.Choice(SlotOne))
	assert.Equal(t, 22.5, team.TotalScore())

	team.ClearChoices()
	assert.Empty(t, team.Choice1)
	assert.Empty(t, team.Choice2)
}
