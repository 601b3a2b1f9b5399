// Package api serves a read-only status API next to the bot: health,
// Prometheus metrics, leaderboard and position history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"InvestArena/internal/calculator"
	"InvestArena/internal/metrics"
	"InvestArena/internal/model"
)

// StateReader exposes consistent copies of the game state.
type StateReader interface {
	Leaderboard() []calculator.Standing
	GameState() *model.Game
}

type Server struct {
	state StateReader
	mux   *chi.Mux
}

func New(state StateReader) *Server {
	s := &Server{state: state, mux: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/game", s.handleGame)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{position}", s.handlePositionHistory)
	})
}

type standingView struct {
	Place  int     `json:"place"`
	TeamID string  `json:"team_id"`
	Name   string  `json:"name"`
	Total  float64 `json:"total"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	rows := s.state.Leaderboard()
	out := make([]standingView, len(rows))
	for i, r := range rows {
		out[i] = standingView{Place: r.Place, TeamID: r.TeamID, Name: r.Name, Total: r.Total}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGame(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.GameState())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.GameState().History)
}

type roundView struct {
	Round       int    `json:"round"`
	Investors   int    `json:"investors"`
	Coefficient string `json:"coefficient"`
}

func (s *Server) handlePositionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "position")
	entries := s.state.GameState().History.Entries(id)
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "no history for position "+id)
		return
	}
	out := make([]roundView, len(entries))
	for i, e := range entries {
		out[i] = roundView{Round: e.Round, Investors: e.Investors, Coefficient: e.CoefficientText()}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListenAndServe runs the server until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
