// Package persistence keeps an append-only history of fired alerts for
// replay and offline review. The pipeline works fine without it; a nil
// History is a no-op.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS alert_history (
	id          UUID PRIMARY KEY,
	fired_at    TIMESTAMPTZ NOT NULL,
	candidate   TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	source      TEXT NOT NULL,
	gate        TEXT NOT NULL,
	stage       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	change_1h   DOUBLE PRECISION NOT NULL,
	change_24h  DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS alert_history_candidate_idx ON alert_history (candidate, fired_at DESC);
`

// HistoryRow is one fired alert as stored.
type HistoryRow struct {
	ID         string    `db:"id"`
	FiredAt    time.Time `db:"fired_at"`
	Candidate  string    `db:"candidate"`
	Symbol     string    `db:"symbol"`
	Source     string    `db:"source"`
	Gate       string    `db:"gate"`
	Stage      string    `db:"stage"`
	Confidence float64   `db:"confidence"`
	Price      float64   `db:"price"`
	Change1h   float64   `db:"change_1h"`
	Change24h  float64   `db:"change_24h"`
}

// History is the postgres-backed alert log.
type History struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects, verifies reachability, and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*History, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure alert_history schema: %w", err)
	}

	return &History{db: db, timeout: 10 * time.Second}, nil
}

// Append records one fired alert. Failures are logged, not propagated; a
// broken history store must never block alerting.
func (h *History) Append(ctx context.Context, sig domain.Signal) {
	if h == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO alert_history
			(id, fired_at, candidate, symbol, source, gate, stage, confidence, price, change_1h, change_24h)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.NewString(), sig.CreatedAt, sig.CandidateID, sig.Snapshot.Symbol,
		string(sig.Source), sig.Gate, string(sig.StageTag), sig.Confidence,
		sig.Snapshot.Price, sig.Snapshot.Change(domain.Window1h), sig.Snapshot.Change(domain.Window24h))
	if err != nil {
		log.Warn().Err(err).Str("id", sig.CandidateID).Msg("Alert history append failed")
	}
}

// RecentByCandidate returns the latest fired alerts for one id, newest first.
func (h *History) RecentByCandidate(ctx context.Context, candidate string, limit int) ([]HistoryRow, error) {
	if h == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var rows []HistoryRow
	err := h.db.SelectContext(ctx, &rows, `
		SELECT id, fired_at, candidate, symbol, source, gate, stage, confidence, price, change_1h, change_24h
		FROM alert_history
		WHERE candidate = $1
		ORDER BY fired_at DESC
		LIMIT $2`, candidate, limit)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	return rows, nil
}

// Close releases the connection pool.
func (h *History) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}
