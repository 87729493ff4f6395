package repo

import (
	"context"
	"time"

	"availwatch/internal/domain"
)

// AlertRecord holds the last alerted state for a target plus the timestamps
// the deduplicator needs: when we last sent, and until when repeat Down
// alerts are suppressed.
type AlertRecord struct {
	TargetID        domain.TargetID
	LastState       domain.HealthState
	LastSentAt      *time.Time
	SuppressedUntil *time.Time
}

// AlertStore persists per-target alert state so a restart does not re-alert
// an outage that was already notified.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, id domain.TargetID) (*AlertRecord, error)
	// Set upserts the record.
	Set(ctx context.Context, rec AlertRecord) error
}

// HistoryStore keeps recently sent alert events for the status API.
type HistoryStore interface {
	AppendEvent(ctx context.Context, ev domain.AlertEvent) error
	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]domain.AlertEvent, error)
}

// Store is what the deduplicator and status API are wired with.
type Store interface {
	AlertStore
	HistoryStore
}
