package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"InvestArena/internal/model"
)

// SQLiteStore persists game state to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the report CLI read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS qrcodes (
			id        TEXT PRIMARY KEY,
			activated BOOL NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			owner_id     BIGINT NOT NULL,
			asset_1      FLOAT NOT NULL,
			asset_2      FLOAT NOT NULL,
			choice_1     TEXT,
			choice_2     TEXT,
			quiz_answers JSON NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_teams_owner ON teams(owner_id)`,
		`CREATE TABLE IF NOT EXISTS game (
			id                   INTEGER PRIMARY KEY CHECK (id = 1),
			round                INT NOT NULL,
			started              BOOL NOT NULL,
			wait_for_coefficient BOOL NOT NULL DEFAULT FALSE,
			quiz_started         BOOL NOT NULL DEFAULT FALSE,
			history              JSON NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadTeams(ctx context.Context) ([]*model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner_id, asset_1, asset_2, choice_1, choice_2, quiz_answers
		 FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		var (
			t          model.Team
			c1, c2     sql.NullString
			answersRaw string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.Asset1, &t.Asset2, &c1, &c2, &answersRaw); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		t.Choice1, t.Choice2 = c1.String, c2.String
		if err := json.Unmarshal([]byte(answersRaw), &t.QuizAnswers); err != nil {
			return nil, fmt.Errorf("decode quiz answers of %s: %w", t.ID, err)
		}
		if t.QuizAnswers == nil {
			t.QuizAnswers = []string{}
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) SaveTeam(ctx context.Context, t *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers, err := encodeAnswers(t.QuizAnswers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, owner_id, asset_1, asset_2, choice_1, choice_2, quiz_answers)
		 VALUES (?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, asset_1=excluded.asset_1, asset_2=excluded.asset_2,
		   choice_1=excluded.choice_1, choice_2=excluded.choice_2, quiz_answers=excluded.quiz_answers`,
		t.ID, t.Name, t.OwnerID, t.Asset1, t.Asset2,
		nullString(t.Choice1), nullString(t.Choice2), answers,
	)
	if err != nil {
		return fmt.Errorf("save team %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLiteStore) LoadGame(ctx context.Context) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := model.NewGame()
	var historyRaw string
	err := s.db.QueryRowContext(ctx,
		`SELECT round, started, wait_for_coefficient, quiz_started, history FROM game WHERE id = 1`).
		Scan(&g.Round, &g.Started, &g.AwaitingCoefficient, &g.QuizActive, &historyRaw)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.writeGame(ctx, g); err != nil {
			return nil, err
		}
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if err := json.Unmarshal([]byte(historyRaw), &g.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if g.History == nil {
		g.History = model.History{}
	}
	return g, nil
}

func (s *SQLiteStore) SaveGame(ctx context.Context, g *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeGame(ctx, g)
}

func (s *SQLiteStore) writeGame(ctx context.Context, g *model.Game) error {
	history, err := json.Marshal(g.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game (id, round, started, wait_for_coefficient, quiz_started, history)
		 VALUES (1,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   round=excluded.round, started=excluded.started,
		   wait_for_coefficient=excluded.wait_for_coefficient,
		   quiz_started=excluded.quiz_started, history=excluded.history`,
		g.Round, g.Started, g.AwaitingCoefficient, g.QuizActive, string(history),
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateTokens(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO qrcodes (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("insert token %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ActivateToken(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE qrcodes SET activated = TRUE WHERE id = ? AND NOT activated`, id)
	if err != nil {
		return fmt.Errorf("activate token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}

	var activated bool
	err = s.db.QueryRowContext(ctx, `SELECT activated FROM qrcodes WHERE id = ?`, id).Scan(&activated)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup token: %w", err)
	}
	return ErrTokenUsed
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite store")
	return s.db.Close()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func encodeAnswers(answers []string) (string, error) {
	if answers == nil {
		answers = []string{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode quiz answers: %w", err)
	}
	return string(raw), nil
}
