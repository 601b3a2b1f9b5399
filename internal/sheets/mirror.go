// Package sheets mirrors the leaderboard and position history into a Google
// spreadsheet. Worksheet 0 holds the leaderboard, worksheet 1 the history grid.
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"InvestArena/internal/calculator"
	"InvestArena/internal/model"
	"InvestArena/internal/payout"
)

var idPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// LeaderboardHeader is the first row of the leaderboard worksheet.
var LeaderboardHeader = []any{"Place", "Name", "Total", "ID"}

// Cell is one value of the history grid, 1-based.
type Cell struct {
	Row   int
	Col   int
	Value string
}

// Mirror writes game state into a spreadsheet.
type Mirror struct {
	svc           *sheets.Service
	spreadsheetID string

	mu     sync.Mutex
	titles []string
}

// New connects with a service-account credentials file.
func New(ctx context.Context, sheetURL, credentialsFile string) (*Mirror, error) {
	id, err := SpreadsheetID(sheetURL)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Mirror{svc: svc, spreadsheetID: id}, nil
}

// SpreadsheetID extracts the document id from a spreadsheet URL. A bare id is
// returned unchanged.
func SpreadsheetID(sheetURL string) (string, error) {
	sheetURL = strings.TrimSpace(sheetURL)
	if m := idPattern.FindStringSubmatch(sheetURL); m != nil {
		return m[1], nil
	}
	if sheetURL != "" && !strings.ContainsAny(sheetURL, "/:") {
		return sheetURL, nil
	}
	return "", fmt.Errorf("no spreadsheet id in %q", sheetURL)
}

// SyncLeaderboard replaces worksheet 0 with the ranked teams.
func (m *Mirror) SyncLeaderboard(ctx context.Context, rows []calculator.Standing) error {
	title, err := m.worksheet(ctx, 0)
	if err != nil {
		return err
	}
	sheetRange := quote(title)
	if _, err := m.svc.Spreadsheets.Values.Clear(m.spreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	_, err = m.svc.Spreadsheets.Values.Update(m.spreadsheetID, sheetRange+"!A1",
		&sheets.ValueRange{Values: LeaderboardValues(rows)}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	log.Debug().Int("rows", len(rows)).Msg("leaderboard mirrored")
	return nil
}

// SyncHistory writes every recorded (investors, coefficient) pair into the
// grid on worksheet 1.
func (m *Mirror) SyncHistory(ctx context.Context, positions []payout.Position, history model.History) error {
	cells := HistoryCells(positions, history)
	if len(cells) == 0 {
		return nil
	}
	title, err := m.worksheet(ctx, 1)
	if err != nil {
		return err
	}
	data := make([]*sheets.ValueRange, len(cells))
	for i, c := range cells {
		data[i] = &sheets.ValueRange{
			Range:  quote(title) + "!" + CellRef(c.Row, c.Col),
			Values: [][]any{{c.Value}},
		}
	}
	_, err = m.svc.Spreadsheets.Values.BatchUpdate(m.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	log.Debug().Int("cells", len(cells)).Msg("history mirrored")
	return nil
}

// worksheet resolves a worksheet title by index, caching the document layout.
func (m *Mirror) worksheet(ctx context.Context, index int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.titles == nil {
		doc, err := m.svc.Spreadsheets.Get(m.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("open spreadsheet: %w", err)
		}
		for _, s := range doc.Sheets {
			m.titles = append(m.titles, s.Properties.Title)
		}
	}
	if index >= len(m.titles) {
		return "", fmt.Errorf("spreadsheet has no worksheet %d", index)
	}
	return m.titles[index], nil
}

// LeaderboardValues is the full content of the leaderboard worksheet.
func LeaderboardValues(rows []calculator.Standing) [][]any {
	out := make([][]any, 0, len(rows)+1)
	out = append(out, LeaderboardHeader)
	for _, r := range rows {
		out = append(out, []any{r.Place, r.Name, r.Total, r.TeamID})
	}
	return out
}

// HistoryCells lays the ledger out as a grid: the position at catalog index i
// gets its investor counts on row 4i+3 and coefficients on row 4i+4, one
// column per round starting at column 2.
func HistoryCells(positions []payout.Position, history model.History) []Cell {
	var out []Cell
	for i, p := range positions {
		for _, e := range history.Entries(p.ID) {
			col := e.Round + 1
			out = append(out,
				Cell{Row: 4*i + 3, Col: col, Value: fmt.Sprint(e.Investors)},
				Cell{Row: 4*i + 4, Col: col, Value: e.CoefficientText()},
			)
		}
	}
	return out
}

// ColumnName converts a 1-based column number to letters: 1 -> A, 27 -> AA.
func ColumnName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// CellRef is the A1 reference of a 1-based row and column.
func CellRef(row, col int) string {
	return fmt.Sprintf("%s%d", ColumnName(col), row)
}

func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
