package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"InvestArena/internal/model"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{11.000000000000002, 11},
		{12.345, 12.35},
		{2.675, 2.67},
		{1.005, 1},
		{-1.005, -1},
		{3.125, 3.12},
		{0.625, 0.62},
		{0.375, 0.38},
		{0, 0},
		{3.333333, 3.33},
		{1e6 + 0.125, 1e6 + 0.12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestApply(t *testing.T) {
	assert.Equal(t, 11.0, Apply(10, 1.1))
	assert.Equal(t, 12.1, Apply(11, 1.1))
	assert.Equal(t, 3.0, Apply(10, 0.3))
	assert.Equal(t, 83.33, Apply(10, 8.333))
	assert.Equal(t, 10.01, Apply(1, 10.005))

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, 10.0, Apply(10, bad), "coefficient %v", bad)
	}
	assert.True(t, math.IsNaN(Round2(math.NaN())))
}

func TestRatio(t *testing.T) {
	v, ok := Ratio(5, 3)
	assert.True(t, ok)
	assert.Equal(t, 1.67, v)

	v, _ = Ratio(25, 8)
	assert.Equal(t, 3.12, v)
	v, _ = Ratio(5, 8)
	assert.Equal(t, 0.62, v)

	_, ok = Ratio(5, 0)
	assert.False(t, ok)
}

func TestRank(t *testing.T) {
	teams := []*model.Team{
		{ID: "bbb", Name: "B", Asset1: 10, Asset2: 10},
		{ID: "aaa", Name: "A", Asset1: 15, Asset2: 10},
		{ID: "ccc", Name: "C", Asset1: 10, Asset2: 10},
	}
	rows := Rank(teams)
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, []string{rows[0].TeamID, rows[1].TeamID, rows[2].TeamID})
	assert.Equal(t, 1, rows[0].Place)
	assert.Equal(t, 25.0, rows[0].Total)
	assert.Equal(t, 3, rows[2].Place)
}
