package domain

import (
	"strings"
	"time"
)

// HealthState is the stabilized availability classification of a target,
// derived from consecutive probe outcomes rather than a single sample.
type HealthState int

const (
	StateUnknown HealthState = iota
	StateHealthy
	StateDegraded
	StateDown
)

func (s HealthState) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateDown:
		return "down"
	default:
		return "unknown"
	}
}

func (s HealthState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *HealthState) UnmarshalJSON(b []byte) error {
	*s = ParseHealthState(strings.Trim(string(b), `"`))
	return nil
}

// ParseHealthState maps the stored string form back to a state.
func ParseHealthState(s string) HealthState {
	switch s {
	case "healthy":
		return StateHealthy
	case "degraded":
		return StateDegraded
	case "down":
		return StateDown
	default:
		return StateUnknown
	}
}

// Transition is a confirmed state change: the streak of identical outcomes
// crossed the configured threshold.
type Transition struct {
	TargetID TargetID    `json:"target_id"`
	From     HealthState `json:"from"`
	To       HealthState `json:"to"`
	Streak   int         `json:"streak"`
	Reason   string      `json:"reason,omitempty"`
	At       time.Time   `json:"at"`
}
