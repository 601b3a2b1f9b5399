package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"InvestArena/internal/model"
)

// PostgresStore implements Store on PostgreSQL, for deployments that
// already run a database server.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool and applies the schema.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS qrcodes (
			id        TEXT PRIMARY KEY,
			activated BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			owner_id     BIGINT NOT NULL UNIQUE,
			asset_1      DOUBLE PRECISION NOT NULL,
			asset_2      DOUBLE PRECISION NOT NULL,
			choice_1     TEXT,
			choice_2     TEXT,
			quiz_answers JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game (
			id                   INTEGER PRIMARY KEY CHECK (id = 1),
			round                INTEGER NOT NULL,
			started              BOOLEAN NOT NULL,
			wait_for_coefficient BOOLEAN NOT NULL DEFAULT FALSE,
			quiz_started         BOOLEAN NOT NULL DEFAULT FALSE,
			history              JSONB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *PostgresStore) LoadTeams(ctx context.Context) ([]*model.Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, owner_id, asset_1, asset_2,
		        COALESCE(choice_1, ''), COALESCE(choice_2, ''), quiz_answers::TEXT
		 FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		var t model.Team
		var answersRaw string
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.Asset1, &t.Asset2,
			&t.Choice1, &t.Choice2, &answersRaw); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
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

func (s *PostgresStore) SaveTeam(ctx context.Context, t *model.Team) error {
	answers, err := encodeAnswers(t.QuizAnswers)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO teams (id, name, owner_id, asset_1, asset_2, choice_1, choice_2, quiz_answers)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8::JSONB)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, asset_1 = EXCLUDED.asset_1, asset_2 = EXCLUDED.asset_2,
		   choice_1 = EXCLUDED.choice_1, choice_2 = EXCLUDED.choice_2,
		   quiz_answers = EXCLUDED.quiz_answers`,
		t.ID, t.Name, t.OwnerID, t.Asset1, t.Asset2, t.Choice1, t.Choice2, answers,
	)
	if err != nil {
		return fmt.Errorf("save team %s: %w", t.ID, err)
	}
	return nil
}

func (s *PostgresStore) LoadGame(ctx context.Context) (*model.Game, error) {
	g := model.NewGame()
	var historyRaw string
	err := s.pool.QueryRow(ctx,
		`SELECT round, started, wait_for_coefficient, quiz_started, history::TEXT FROM game WHERE id = 1`).
		Scan(&g.Round, &g.Started, &g.AwaitingCoefficient, &g.QuizActive, &historyRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := s.SaveGame(ctx, g); err != nil {
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

func (s *PostgresStore) SaveGame(ctx context.Context, g *model.Game) error {
	history, err := json.Marshal(g.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO game (id, round, started, wait_for_coefficient, quiz_started, history)
		 VALUES (1, $1, $2, $3, $4, $5::JSONB)
		 ON CONFLICT (id) DO UPDATE SET
		   round = EXCLUDED.round, started = EXCLUDED.started,
		   wait_for_coefficient = EXCLUDED.wait_for_coefficient,
		   quiz_started = EXCLUDED.quiz_started, history = EXCLUDED.history`,
		g.Round, g.Started, g.AwaitingCoefficient, g.QuizActive, string(history),
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateTokens(ctx context.Context, ids []string) error {
	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(`INSERT INTO qrcodes (id) VALUES ($1)`, id)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert tokens: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ActivateToken(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE qrcodes SET activated = TRUE WHERE id = $1 AND NOT activated`, id)
	if err != nil {
		return fmt.Errorf("activate token: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var activated bool
	err = s.pool.QueryRow(ctx, `SELECT activated FROM qrcodes WHERE id = $1`, id).Scan(&activated)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup token: %w", err)
	}
	return ErrTokenUsed
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
