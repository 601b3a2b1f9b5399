package notifier

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"InvestArena/internal/calculator"
	"InvestArena/internal/model"
	"InvestArena/internal/payout"
)

// NotSelected labels an asset slot the team left empty.
const NotSelected = "not selected"

// SlotOutcome is what happened to one asset slot at settlement.
type SlotOutcome struct {
	Slot        model.Slot
	Position    string
	Before      float64
	After       float64
	Coefficient string
}

// Money renders a balance without trailing zeros.
func Money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatRoundPrompt is the text above the position keyboard for one slot.
func FormatRoundPrompt(round int, slot model.Slot) string {
	return fmt.Sprintf("<b>Round %d.</b>\nWhere do you invest asset %s?", round, slot.Roman())
}

// FormatSettlement reports a team's round results.
func FormatSettlement(round int, outcomes []SlotOutcome) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Round %d results</b>\n", round))
	for _, o := range outcomes {
		b.WriteString(fmt.Sprintf("\nAsset %s (%s): %s * %s -> %s",
			o.Slot.Roman(), html.EscapeString(o.Position), Money(o.Before), o.Coefficient, Money(o.After)))
	}
	return b.String()
}

// FormatQuizResult reports a team's quiz bonus.
func FormatQuizResult(correct, total int, coefficient float64, before, after [2]float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("You answered %d / %d questions correctly", correct, total))
	for i, s := range model.Slots {
		b.WriteString(fmt.Sprintf("\nAsset %s: %s * %s -> %s",
			s.Roman(), Money(before[i]), Money(coefficient), Money(after[i])))
	}
	return b.String()
}

// FormatLeaderboard renders ranked teams with their ids.
func FormatLeaderboard(rows []calculator.Standing) string {
	var b strings.Builder
	b.WriteString("🏆 <b>Top teams</b>\n")
	if len(rows) == 0 {
		b.WriteString("\nNo teams registered yet.")
		return b.String()
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("\n%d. %s (%s) [%s]", r.Place, html.EscapeString(r.Name), Money(r.Total), r.TeamID))
	}
	return b.String()
}

// FormatStats is the admin report: leaderboard followed by per-position history.
func FormatStats(rows []calculator.Standing, positions []payout.Position, history model.History) string {
	var b strings.Builder
	b.WriteString(FormatLeaderboard(rows))
	b.WriteString("\n\n📈 <b>Companies</b>")
	for _, p := range positions {
		entries := history.Entries(p.ID)
		if len(entries) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n\n<b>%s</b> (%s):", html.EscapeString(p.Name), html.EscapeString(p.Describe())))
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("\n%d. %sx (%d)", e.Round, e.CoefficientText(), e.Investors))
		}
	}
	return b.String()
}

// AdminHelp lists the administrator commands.
const AdminHelp = `Admin commands:
/next - start the next round
/stop [COEF | ID=COEF ...] - close the current round
/start_quiz - start the quiz
/end_quiz - stop accepting quiz answers
/quiz_results - score the quiz
/send [TEXT or PHOTO] - broadcast to every team
/multiply [TEAM ID] [ASSET: 1-2] [MULTIPLIER] - multiply a team's asset
/stat - leaderboard and company history
/qrs [COUNT] - generate registration QR codes`
