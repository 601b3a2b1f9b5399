package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestArena/internal/calculator"
	"InvestArena/internal/model"
)

type fakeState struct {
	rows []calculator.Standing
	game *model.Game
}

func (f fakeState) Leaderboard() []calculator.Standing { return f.rows }
func (f fakeState) GameState() *model.Game             { return f.game }

func newFake(t *testing.T) fakeState {
	g := model.NewGame()
	g.Round = 1
	c := 1.1
	require.NoError(t, g.History.Record("tbank", 1, model.HistoryEntry{Investors: 3, Coefficient: &c}))
	return fakeState{
		rows: []calculator.Standing{{Place: 1, TeamID: "abc", Name: "Bulls", Total: 23}},
		game: g,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLeaderboard(t *testing.T) {
	h := New(newFake(t)).Handler()
	rec := get(t, h, "/api/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []standingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Bulls", rows[0].Name)
	assert.Equal(t, 23.0, rows[0].Total)
}

func TestPositionHistory(t *testing.T) {
	h := New(newFake(t)).Handler()

	rec := get(t, h, "/api/history/tbank")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"round":1,"investors":3,"coefficient":"1.1"}]`, rec.Body.String())

	rec = get(t, h, "/api/history/nft")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := get(t, New(newFake(t)).Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistory(t *testing.T) {
	rec := get(t, New(newFake(t)).Handler(), "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tbank":{"1":[3,1.1]}}`, rec.Body.String())
}
