// Package game runs the investment game: team registration, rounds,
// settlement, the quiz and administrator adjustments.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"InvestArena/internal/calculator"
	"InvestArena/internal/catalog"
	"InvestArena/internal/metrics"
	"InvestArena/internal/model"
	"InvestArena/internal/notifier"
	"InvestArena/internal/payout"
	"InvestArena/internal/store"
)

// Mirror publishes the leaderboard and position history to an external view.
type Mirror interface {
	SyncLeaderboard(ctx context.Context, rows []calculator.Standing) error
	SyncHistory(ctx context.Context, positions []payout.Position, history model.History) error
}

// Controller owns the authoritative game state. Every operation holds the
// mutex while mutating and persisting; outbound messages and mirror syncs
// happen after it is released.
type Controller struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	store    store.Store
	dispatch *Dispatcher
	mirror   Mirror
	registry *Registry
	game     *model.Game
}

// New creates a controller with empty state. Call Load before serving.
// mirror may be nil.
func New(cat *catalog.Catalog, st store.Store, dispatch *Dispatcher, mirror Mirror) *Controller {
	return &Controller{
		catalog:  cat,
		store:    st,
		dispatch: dispatch,
		mirror:   mirror,
		registry: NewRegistry(),
		game:     model.NewGame(),
	}
}

// Load rehydrates teams and the game record from storage.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, err := c.store.LoadGame(ctx)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if g.History == nil {
		g.History = model.History{}
	}
	teams, err := c.store.LoadTeams(ctx)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}

	c.game = g
	c.registry = NewRegistry()
	for _, t := range teams {
		if err := c.registry.Add(t); err != nil {
			log.Warn().Str("team", t.ID).Int64("owner", t.OwnerID).Msg("skipping team with duplicate owner")
		}
	}
	metrics.Teams.Set(float64(c.registry.Len()))
	metrics.CurrentRound.Set(float64(g.Round))
	log.Info().Int("teams", c.registry.Len()).Int("round", g.Round).Bool("round_open", g.Started).
		Msg("game state loaded")
	return nil
}

// Catalog returns the game definition.
func (c *Controller) Catalog() *catalog.Catalog { return c.catalog }

// Register redeems a join token and creates a team owned by ownerID.
func (c *Controller) Register(ctx context.Context, ownerID int64, token string) (*model.Team, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.ByOwner(ownerID); ok {
		return nil, ErrAlreadyRegistered
	}
	if c.game.Round != 0 || c.game.Started {
		return nil, ErrGameStarted
	}
	token = strings.TrimSpace(token)
	if err := c.store.ActivateToken(ctx, token); err != nil {
		switch {
		case errors.Is(err, store.ErrTokenNotFound):
			return nil, ErrInvalidToken
		case errors.Is(err, store.ErrTokenUsed):
			return nil, ErrTokenUsed
		}
		metrics.StoreErrors.WithLabelValues("activate_token").Inc()
		return nil, fmt.Errorf("activate token: %w", err)
	}

	team := model.NewTeam(token, ownerID)
	if err := c.registry.Add(team); err != nil {
		return nil, err
	}
	c.saveTeam(ctx, team)
	metrics.Teams.Set(float64(c.registry.Len()))
	log.Info().Str("team", team.ID).Int64("owner", ownerID).Msg("team registered")
	return team.Clone(), nil
}

// Rename sets the display name of the owner's team.
func (c *Controller) Rename(ctx context.Context, ownerID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	team, ok := c.registry.ByOwner(ownerID)
	if !ok {
		c.mu.Unlock()
		return ErrNotRegistered
	}
	team.Name = name
	c.saveTeam(ctx, team)
	rows := calculator.Rank(c.registry.All())
	c.mu.Unlock()

	c.syncLeaderboard(ctx, rows)
	return nil
}

// IsRegistered reports whether ownerID has a team.
func (c *Controller) IsRegistered(ownerID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.registry.ByOwner(ownerID)
	return ok
}

// Multiply scales one asset of a team and returns the new balance, rounded
// to two decimals.
func (c *Controller) Multiply(ctx context.Context, teamID string, slot model.Slot, factor float64) (float64, error) {
	if !slot.Valid() {
		return 0, ErrInvalidSlot
	}
	if !isFinite(factor) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumber, factor)
	}

	c.mu.Lock()
	team, ok := c.registry.ByTeamID(teamID)
	if !ok {
		c.mu.Unlock()
		return 0, ErrUnknownTeam
	}
	before := team.Asset(slot)
	after := calculator.Apply(before, factor)
	team.SetAsset(slot, after)
	c.saveTeam(ctx, team)
	rows := calculator.Rank(c.registry.All())
	c.mu.Unlock()

	log.Info().Str("team", team.ID).Int("slot", int(slot)).Float64("factor", factor).
		Float64("before", before).Float64("after", after).Msg("asset multiplied")
	c.syncLeaderboard(ctx, rows)
	return after, nil
}

// Broadcast sends text, or a photo captioned with text, to every team and
// returns the number of failed deliveries.
func (c *Controller) Broadcast(ctx context.Context, text string, photo []byte) int {
	c.mu.Lock()
	msgs := c.toAll(func(*model.Team) model.Message {
		return model.Message{Text: text, Photo: photo}
	})
	c.mu.Unlock()
	return c.dispatch.Dispatch(ctx, msgs)
}

// Leaderboard ranks teams by total score.
func (c *Controller) Leaderboard() []calculator.Standing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return calculator.Rank(c.registry.All())
}

// GameState returns a copy of the game record.
func (c *Controller) GameState() *model.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game.Clone()
}

// Teams returns copies of every team in id order.
func (c *Controller) Teams() []*model.Team {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTeams(c.registry.All())
}

// Stats renders the administrator report.
func (c *Controller) Stats() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return notifier.FormatStats(calculator.Rank(c.registry.All()), c.catalog.Positions, c.game.History)
}

// Snapshot captures the whole state for backups.
func (c *Controller) Snapshot() *store.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &store.Snapshot{Game: c.game.Clone(), Teams: cloneTeams(c.registry.All())}
}

// Resync pushes the full leaderboard and history to the mirror.
func (c *Controller) Resync(ctx context.Context) error {
	if c.mirror == nil {
		return nil
	}
	c.mu.Lock()
	rows := calculator.Rank(c.registry.All())
	history := c.game.History.Clone()
	c.mu.Unlock()

	if err := c.mirror.SyncLeaderboard(ctx, rows); err != nil {
		metrics.MirrorErrors.Inc()
		return fmt.Errorf("sync leaderboard: %w", err)
	}
	if err := c.mirror.SyncHistory(ctx, c.catalog.Positions, history); err != nil {
		metrics.MirrorErrors.Inc()
		return fmt.Errorf("sync history: %w", err)
	}
	return nil
}

// RoundKeyboard builds the position picker for one slot, two buttons per
// row, marking the selected position.
func (c *Controller) RoundKeyboard(round int, slot model.Slot, selected string) [][]model.Button {
	positions, _ := c.catalog.Round(round)
	var rows [][]model.Button
	for i, p := range positions {
		text := p.Name
		if p.ID == selected {
			text = "✅ " + text
		}
		btn := model.Button{Text: text, Data: fmt.Sprintf("invest:%d:%s:%d", round, p.ID, slot)}
		if i%2 == 0 {
			rows = append(rows, []model.Button{btn})
		} else {
			rows[len(rows)-1] = append(rows[len(rows)-1], btn)
		}
	}
	return rows
}

// toAll builds one message per team. Caller holds c.mu.
func (c *Controller) toAll(build func(*model.Team) model.Message) []model.Message {
	teams := c.registry.All()
	msgs := make([]model.Message, 0, len(teams))
	for _, t := range teams {
		m := build(t)
		m.ChatID = t.OwnerID
		msgs = append(msgs, m)
	}
	return msgs
}

func (c *Controller) saveTeam(ctx context.Context, t *model.Team) bool {
	if err := c.store.SaveTeam(ctx, t); err != nil {
		metrics.StoreErrors.WithLabelValues("save_team").Inc()
		log.Error().Err(err).Str("team", t.ID).Msg("save team")
		return false
	}
	return true
}

func (c *Controller) saveGame(ctx context.Context) bool {
	if err := c.store.SaveGame(ctx, c.game); err != nil {
		metrics.StoreErrors.WithLabelValues("save_game").Inc()
		log.Error().Err(err).Int("round", c.game.Round).Msg("save game")
		return false
	}
	return true
}

func (c *Controller) syncLeaderboard(ctx context.Context, rows []calculator.Standing) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.SyncLeaderboard(ctx, rows); err != nil {
		metrics.MirrorErrors.Inc()
		log.Error().Err(err).Msg("mirror leaderboard")
	}
}

func (c *Controller) syncHistory(ctx context.Context, history model.History) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.SyncHistory(ctx, c.catalog.Positions, history); err != nil {
		metrics.MirrorErrors.Inc()
		log.Error().Err(err).Msg("mirror history")
	}
}

func cloneTeams(teams []*model.Team) []*model.Team {
	out := make([]*model.Team, len(teams))
	for i, t := range teams {
		out[i] = t.Clone()
	}
	return out
}
