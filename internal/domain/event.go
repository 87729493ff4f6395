package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertEvent is the outward-facing payload handed to sinks. Immutable once
// constructed.
type AlertEvent struct {
	ID       string      `json:"id"`
	TargetID TargetID    `json:"target_id"`
	URL      string      `json:"url"`
	State    HealthState `json:"state"`
	Previous HealthState `json:"previous"`
	Message  string      `json:"message"`
	At       time.Time   `json:"at"`
}

// NewAlertEvent builds the event for a confirmed transition.
func NewAlertEvent(t Target, tr Transition) AlertEvent {
	var msg string
	switch tr.To {
	case StateDown:
		msg = fmt.Sprintf("%s is DOWN after %d consecutive failures", t.URL, tr.Streak)
		if tr.Reason != "" {
			msg += " (" + tr.Reason + ")"
		}
	case StateDegraded:
		msg = fmt.Sprintf("%s is degraded after %d consecutive failures", t.URL, tr.Streak)
	case StateHealthy:
		msg = fmt.Sprintf("%s recovered after %d consecutive successes", t.URL, tr.Streak)
	default:
		msg = fmt.Sprintf("%s entered state %s", t.URL, tr.To)
	}
	return AlertEvent{
		ID:       uuid.NewString(),
		TargetID: t.ID,
		URL:      t.URL,
		State:    tr.To,
		Previous: tr.From,
		Message:  msg,
		At:       tr.At,
	}
}
