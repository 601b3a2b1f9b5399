package payout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestArena/internal/model"
)

func teamsChoosing(pairs ...[2]string) []*model.Team {
	out := make([]*model.Team, len(pairs))
	for i, p := range pairs {
		out[i] = &model.Team{ID: string(rune('a' + i)), Choice1: p[0], Choice2: p[1]}
	}
	return out
}

func tallyOf(counts map[string]int) Tally {
	return Tally{Counts: counts, Custom: map[string]float64{}}
}

var crypto = Position{ID: "crypto", Name: "Crypto", Rule: MustTiered(
	Tier{Low: 1, High: 2, Coefficient: 1.5},
	Tier{Low: 3, High: 4, Coefficient: 2},
	Tier{Low: 5, High: 6, Coefficient: 3},
	Tier{Low: 7, High: 8, Coefficient: 6},
	Tier{Low: 9, Open: true, Coefficient: 0.3},
)}

func TestNewTally_CountsEachSlot(t *testing.T) {
	tally := NewTally(teamsChoosing(
		[2]string{"vk", "vk"},
		[2]string{"vk", ""},
		[2]string{"", "tbank"},
	), nil)
	assert.Equal(t, 3, tally.Investors("vk"))
	assert.Equal(t, 1, tally.Investors("tbank"))
	assert.Equal(t, 0, tally.Investors("sibur"))
	assert.NotNil(t, tally.Custom)
}

func TestLinear_ZeroInvestors(t *testing.T) {
	sibur := Position{ID: "sibur", Rule: Split(25)}
	for n := 0; n <= 30; n++ {
		v, ok := sibur.Coefficient(tallyOf(map[string]int{"sibur": n}))
		require.True(t, ok, "n=%d", n)
		assert.Greater(t, v, 0.0)
	}
	v, _ := sibur.Coefficient(tallyOf(nil))
	assert.Equal(t, 25.0, v)
	v, _ = sibur.Coefficient(tallyOf(map[string]int{"sibur": 3}))
	assert.Equal(t, 8.33, v)
	v, _ = sibur.Coefficient(tallyOf(map[string]int{"sibur": 8}))
	assert.Equal(t, 3.12, v, "25/8 is a tie and rounds to even")
}

func TestLinear_Constant(t *testing.T) {
	tbank := Position{ID: "tbank", Rule: Constant(1.1)}
	for _, n := range []int{0, 1, 3, 100} {
		v, ok := tbank.Coefficient(tallyOf(map[string]int{"tbank": n}))
		require.True(t, ok)
		assert.Equal(t, 1.1, v)
	}
}

func TestLinear_NonFiniteIsUnavailable(t *testing.T) {
	p := Position{ID: "bad", Rule: Linear{Fn: func(n int) float64 { return 1 / float64(n) }}}
	_, ok := p.Coefficient(tallyOf(nil))
	assert.False(t, ok)
}

func TestTiered_Boundaries(t *testing.T) {
	tests := []struct {
		n    int
		want float64
		ok   bool
	}{
		{0, 0, false},
		{1, 1.5, true},
		{2, 1.5, true},
		{3, 2, true},
		{4, 2, true},
		{6, 3, true},
		{7, 6, true},
		{8, 6, true},
		{9, 0.3, true},
		{1000, 0.3, true},
	}
	for _, tt := range tests {
		v, ok := crypto.Coefficient(tallyOf(map[string]int{"crypto": tt.n}))
		assert.Equal(t, tt.ok, ok, "n=%d", tt.n)
		assert.Equal(t, tt.want, v, "n=%d", tt.n)
	}
}

func TestTiered_DeclarationOrderKept(t *testing.T) {
	djara := Position{ID: "djara", Rule: MustTiered(
		Tier{Low: 4, High: 7, Coefficient: 10},
		Tier{Low: 1, High: 3, Coefficient: 0.8},
		Tier{Low: 8, Open: true, Coefficient: 0.8},
	)}
	for n, want := range map[int]float64{1: 0.8, 3: 0.8, 4: 10, 7: 10, 8: 0.8, 20: 0.8} {
		v, ok := djara.Coefficient(tallyOf(map[string]int{"djara": n}))
		require.True(t, ok)
		assert.Equal(t, want, v, "n=%d", n)
	}
}

func TestNewTiered_Validation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []Tier
		want  error
	}{
		{"empty", nil, ErrNoTiers},
		{"inverted", []Tier{{Low: 3, High: 1}}, ErrTierBounds},
		{"overlap", []Tier{{Low: 1, High: 4}, {Low: 4, High: 6}}, ErrTierOverlap},
		{"open not last", []Tier{{Low: 5, Open: true}, {Low: 1, High: 2}}, ErrOpenTierOrder},
		{"open below bounded", []Tier{{Low: 1, High: 8}, {Low: 5, Open: true}}, ErrOpenTierOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTiered(tt.tiers...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDerived(t *testing.T) {
	vkplay := Position{ID: "vkplay", Rule: Derived{Mother: "vk"}}

	for _, mother := range []int{0, 1, 7, 50} {
		v, ok := vkplay.Coefficient(tallyOf(map[string]int{"vk": mother}))
		require.True(t, ok)
		assert.Equal(t, 1.0, v, "mother=%d", mother)
	}

	v, ok := vkplay.Coefficient(tallyOf(map[string]int{"vk": 5, "vkplay": 3}))
	require.True(t, ok)
	assert.Equal(t, 1.67, v)

	v, _ = vkplay.Coefficient(tallyOf(map[string]int{"vk": 5, "vkplay": 8}))
	assert.Equal(t, 0.62, v)

	v, _ = vkplay.Coefficient(tallyOf(map[string]int{"vk": 0, "vkplay": 2}))
	assert.Equal(t, 1.0, v)
}

func TestCustom_UnavailableUntilSupplied(t *testing.T) {
	nft := Position{ID: "nft", Rule: Custom{}}
	assert.True(t, nft.IsCustom())

	_, ok := nft.Coefficient(tallyOf(map[string]int{"nft": 2}))
	assert.False(t, ok)

	tally := tallyOf(map[string]int{"nft": 2})
	tally.Custom["nft"] = 2.75
	v, ok := nft.Coefficient(tally)
	require.True(t, ok)
	assert.Equal(t, 2.75, v)
}

func TestPosition_NoRule(t *testing.T) {
	_, ok := Position{ID: "ghost"}.Coefficient(tallyOf(nil))
	assert.False(t, ok)
}

func TestEvaluate(t *testing.T) {
	tbank := Position{ID: "tbank", Rule: Constant(1.1)}
	tally := NewTally(teamsChoosing(
		[2]string{"tbank", ""},
		[2]string{"tbank", "crypto"},
		[2]string{"tbank", ""},
	), nil)

	quotes := Evaluate([]Position{tbank, crypto}, tally)
	require.Len(t, quotes, 2)
	assert.Equal(t, "tbank", quotes[0].Position.ID)
	assert.Equal(t, 3, quotes[0].Investors)
	assert.Equal(t, 1.1, quotes[0].Coefficient)
	assert.True(t, quotes[0].Available)
	assert.Equal(t, 1, quotes[1].Investors)
	assert.Equal(t, 1.5, quotes[1].Coefficient)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{Rule: Constant(1.1)}, "x1.1"},
		{Position{Rule: Split(25)}, "25/N"},
		{Position{Rule: Linear{Fn: func(int) float64 { return 2 }}}, "linear"},
		{crypto, "1-2: x1.5, 3-4: x2, 5-6: x3, 7-8: x6, 9+: x0.3"},
		{Position{Rule: Derived{Mother: "vk"}}, "N(vk)/N"},
		{Position{Rule: Custom{}}, "set by the administrator"},
		{Position{}, "none"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pos.Describe())
	}
}
