// Package dedupe gates confirmed transitions into alert events. One alert
// per Down edge, cooldown against replayed edges, recoveries always pass.
package dedupe

import (
	"context"
	"time"

	"availwatch/internal/domain"
	"availwatch/internal/repo"
)

// Deduper decides which transitions become alert events. State is held in
// an AlertStore, so with the sqlite adapter decisions survive restarts.
type Deduper struct {
	store repo.AlertStore
	now   func() time.Time
}

func New(store repo.AlertStore) *Deduper {
	return &Deduper{store: store, now: time.Now}
}

// NewWithClock is for tests that need a deterministic clock.
func NewWithClock(store repo.AlertStore, now func() time.Time) *Deduper {
	return &Deduper{store: store, now: now}
}

// Decide returns the alert event for a transition, or nil when the
// transition is suppressed. A store read error fails open: losing a
// duplicate suppression is better than losing an outage alert.
func (d *Deduper) Decide(ctx context.Context, t domain.Target, tr domain.Transition) (*domain.AlertEvent, error) {
	rec, err := d.store.Get(ctx, t.ID)
	if err != nil {
		rec = nil
	}
	now := d.now()

	switch tr.To {
	case domain.StateHealthy:
		// Recoveries are never suppressed.
		ev := domain.NewAlertEvent(t, tr)
		return &ev, d.record(ctx, t.ID, tr.To, &now, nil, rec)

	case domain.StateDown:
		if rec != nil && rec.LastState == domain.StateDown &&
			rec.SuppressedUntil != nil && now.Before(*rec.SuppressedUntil) {
			// Replayed Down edge inside the window. A relapse after an
			// intervening recovery has LastState != Down and passes.
			return nil, nil
		}
		until := now.Add(t.Cooldown)
		ev := domain.NewAlertEvent(t, tr)
		return &ev, d.record(ctx, t.ID, tr.To, &now, &until, rec)

	case domain.StateDegraded:
		if !t.DegradeAlerts {
			// Track the state change without sending.
			return nil, d.record(ctx, t.ID, tr.To, nil, nil, rec)
		}
		until := now.Add(t.Cooldown)
		ev := domain.NewAlertEvent(t, tr)
		return &ev, d.record(ctx, t.ID, tr.To, &now, &until, rec)

	default:
		return nil, nil
	}
}

// record upserts the per-target alert state. The suppression window never
// moves backward while the direction is unchanged.
func (d *Deduper) record(ctx context.Context, id domain.TargetID, state domain.HealthState, sentAt, until *time.Time, prev *repo.AlertRecord) error {
	if until != nil && prev != nil && prev.LastState == state &&
		prev.SuppressedUntil != nil && prev.SuppressedUntil.After(*until) {
		until = prev.SuppressedUntil
	}
	return d.store.Set(ctx, repo.AlertRecord{
		TargetID:        id,
		LastState:       state,
		LastSentAt:      sentAt,
		SuppressedUntil: until,
	})
}
