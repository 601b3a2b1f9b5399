package game

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"InvestArena/internal/calculator"
	"InvestArena/internal/metrics"
	"InvestArena/internal/model"
	"InvestArena/internal/notifier"
	"InvestArena/internal/payout"
)

// PositionResult is the ledger entry written for one position at settlement.
type PositionResult struct {
	PositionID string
	Name       string
	model.HistoryEntry
}

// Settlement summarizes a closed round.
type Settlement struct {
	Round               int
	Positions           []PositionResult
	Teams               int
	FailedNotifications int
	FailedWrites        int
}

// Advance opens the next round and sends every team one position picker per
// asset slot. It returns the new round number.
func (c *Controller) Advance(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.game.Started || c.game.AwaitingCoefficient {
		c.mu.Unlock()
		return 0, ErrRoundOpen
	}
	if c.game.QuizActive {
		c.mu.Unlock()
		return 0, ErrQuizActive
	}
	if c.game.Round >= c.catalog.RoundCount() {
		c.mu.Unlock()
		return 0, ErrNoRoundsLeft
	}

	c.game.Round++
	c.game.Started = true
	round := c.game.Round
	c.saveGame(ctx)

	var msgs []model.Message
	for _, slot := range model.Slots {
		text := notifier.FormatRoundPrompt(round, slot)
		kb := c.RoundKeyboard(round, slot, "")
		msgs = append(msgs, c.toAll(func(*model.Team) model.Message {
			return model.Message{Text: text, Keyboard: kb}
		})...)
	}
	c.mu.Unlock()

	metrics.CurrentRound.Set(float64(round))
	log.Info().Int("round", round).Msg("round opened")
	if failed := c.dispatch.Dispatch(ctx, msgs); failed > 0 {
		log.Warn().Int("round", round).Int("failed", failed).Msg("some round prompts were not delivered")
	}
	return round, nil
}

// RecordChoice stores the owner's pick for one asset slot and returns the
// refreshed keyboard for that slot.
func (c *Controller) RecordChoice(ctx context.Context, ownerID int64, round int, positionID string, slot model.Slot) ([][]model.Button, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	team, ok := c.registry.ByOwner(ownerID)
	if !ok {
		return nil, ErrNotRegistered
	}
	if !c.game.Started || round != c.game.Round {
		return nil, ErrRoundClosed
	}
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}
	if !c.catalog.InRound(round, positionID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPosition, positionID)
	}

	team.SetChoice(slot, positionID)
	c.saveTeam(ctx, team)
	return c.RoundKeyboard(round, slot, positionID), nil
}

// Close settles the open round. When a custom position in the round has no
// value in cc, the round waits for one: ErrCustomCoefficientRequired is
// returned and nothing is paid out.
func (c *Controller) Close(ctx context.Context, cc CustomCoefficients) (*Settlement, error) {
	if err := cc.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.game.Started && !c.game.AwaitingCoefficient {
		c.mu.Unlock()
		return nil, ErrNothingToClose
	}
	round := c.game.Round
	positions, _ := c.catalog.Round(round)

	var customIDs []string
	for _, p := range positions {
		if p.IsCustom() {
			customIDs = append(customIDs, p.ID)
		}
	}
	for id := range cc.ByID {
		if !slices.Contains(customIDs, id) {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrUnknownPosition, id)
		}
	}

	c.game.Started = false
	custom, missing := cc.resolve(customIDs)
	if len(missing) > 0 {
		c.game.AwaitingCoefficient = true
		c.saveGame(ctx)
		c.mu.Unlock()
		log.Info().Int("round", round).Strs("positions", missing).Msg("waiting for custom coefficients")
		return nil, fmt.Errorf("%w: %s", ErrCustomCoefficientRequired, strings.Join(missing, ", "))
	}

	teams := c.registry.All()
	tally := payout.NewTally(teams, custom)
	quotes := make(map[string]payout.Quote, len(positions))
	for _, q := range payout.Evaluate(positions, tally) {
		quotes[q.Position.ID] = q
	}

	res := &Settlement{Round: round, Teams: len(teams)}
	msgs := make([]model.Message, 0, len(teams))
	for _, t := range teams {
		outcomes := make([]notifier.SlotOutcome, 0, len(model.Slots))
		for _, slot := range model.Slots {
			outcomes = append(outcomes, settleSlot(t, slot, quotes))
		}
		t.ClearChoices()
		if !c.saveTeam(ctx, t) {
			res.FailedWrites++
		}
		msgs = append(msgs, model.Message{ChatID: t.OwnerID, Text: notifier.FormatSettlement(round, outcomes)})
	}

	for _, p := range positions {
		q := quotes[p.ID]
		entry := model.HistoryEntry{Investors: q.Investors}
		if q.Available {
			v := q.Coefficient
			entry.Coefficient = &v
			metrics.PositionCoefficient.WithLabelValues(p.ID).Set(v)
		}
		metrics.PositionInvestors.WithLabelValues(p.ID).Set(float64(q.Investors))
		if err := c.game.History.Record(p.ID, round, entry); err != nil {
			log.Warn().Err(err).Msg("ledger entry kept")
		}
		res.Positions = append(res.Positions, PositionResult{PositionID: p.ID, Name: p.Name, HistoryEntry: entry})
	}

	c.game.AwaitingCoefficient = false
	if !c.saveGame(ctx) {
		res.FailedWrites++
	}
	rows := calculator.Rank(teams)
	history := c.game.History.Clone()
	c.mu.Unlock()

	metrics.RoundsSettled.Inc()
	res.FailedNotifications = c.dispatch.Dispatch(ctx, msgs)
	c.syncLeaderboard(ctx, rows)
	c.syncHistory(ctx, history)

	log.Info().Int("round", round).Int("teams", res.Teams).
		Int("failed_notifications", res.FailedNotifications).Int("failed_writes", res.FailedWrites).
		Msg("round settled")
	return res, nil
}

// settleSlot applies the quoted coefficient to one asset slot. An empty slot
// is left as is with coefficient 1; an unavailable coefficient leaves the
// asset unchanged and shows the placeholder.
func settleSlot(t *model.Team, slot model.Slot, quotes map[string]payout.Quote) notifier.SlotOutcome {
	before := t.Asset(slot)
	out := notifier.SlotOutcome{Slot: slot, Before: before, After: before}

	choice := t.Choice(slot)
	if choice == "" {
		out.Position = notifier.NotSelected
		out.Coefficient = "1"
		return out
	}

	q, ok := quotes[choice]
	if !ok {
		out.Position = choice
		out.Coefficient = model.Unavailable
		return out
	}
	out.Position = q.Position.Name
	if !q.Available {
		out.Coefficient = model.Unavailable
		return out
	}
	coef := calculator.Round2(q.Coefficient)
	out.After = calculator.Apply(before, coef)
	out.Coefficient = notifier.Money(coef)
	t.SetAsset(slot, out.After)
	return out
}
