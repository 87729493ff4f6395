// Package sqlite persists alert state in a local database file, so a
// container restart picks up where it left off instead of re-alerting
// outages that were already notified.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"availwatch/internal/domain"
	"availwatch/internal/repo"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	target_id        TEXT PRIMARY KEY,
	last_state       TEXT NOT NULL,
	last_sent_at     TIMESTAMP,
	suppressed_until TIMESTAMP
);
CREATE TABLE IF NOT EXISTS alert_history (
	id        TEXT PRIMARY KEY,
	target_id TEXT NOT NULL,
	url       TEXT NOT NULL,
	state     TEXT NOT NULL,
	previous  TEXT NOT NULL,
	message   TEXT NOT NULL,
	at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_history_at ON alert_history(at DESC);
`

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// single writer; sqlite does not like concurrent write connections
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init state db schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, id domain.TargetID) (*repo.AlertRecord, error) {
	const q = `SELECT last_state, last_sent_at, suppressed_until FROM alerts WHERE target_id = ?`
	var (
		state           string
		lastSent        sql.NullTime
		suppressedUntil sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, string(id)).Scan(&state, &lastSent, &suppressedUntil)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert record: %w", err)
	}
	rec := &repo.AlertRecord{
		TargetID:  id,
		LastState: domain.ParseHealthState(state),
	}
	if lastSent.Valid {
		t := lastSent.Time
		rec.LastSentAt = &t
	}
	if suppressedUntil.Valid {
		t := suppressedUntil.Time
		rec.SuppressedUntil = &t
	}
	return rec, nil
}

func (s *Store) Set(ctx context.Context, rec repo.AlertRecord) error {
	const q = `
		INSERT INTO alerts (target_id, last_state, last_sent_at, suppressed_until)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(target_id) DO UPDATE SET
			last_state = excluded.last_state,
			last_sent_at = excluded.last_sent_at,
			suppressed_until = excluded.suppressed_until
	`
	_, err := s.db.ExecContext(ctx, q,
		string(rec.TargetID), rec.LastState.String(),
		nullTime(rec.LastSentAt), nullTime(rec.SuppressedUntil),
	)
	if err != nil {
		return fmt.Errorf("set alert record: %w", err)
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, ev domain.AlertEvent) error {
	const q = `
		INSERT INTO alert_history (id, target_id, url, state, previous, message, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, q,
		ev.ID, string(ev.TargetID), ev.URL,
		ev.State.String(), ev.Previous.String(), ev.Message, ev.At,
	)
	if err != nil {
		return fmt.Errorf("append alert event: %w", err)
	}
	return nil
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]domain.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, target_id, url, state, previous, message, at
		FROM alert_history ORDER BY at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertEvent
	for rows.Next() {
		var (
			ev              domain.AlertEvent
			tid             string
			state, previous string
		)
		if err := rows.Scan(&ev.ID, &tid, &ev.URL, &state, &previous, &ev.Message, &ev.At); err != nil {
			return nil, fmt.Errorf("scan alert history: %w", err)
		}
		ev.TargetID = domain.TargetID(tid)
		ev.State = domain.ParseHealthState(state)
		ev.Previous = domain.ParseHealthState(previous)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var _ repo.Store = (*Store)(nil)
