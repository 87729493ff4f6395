// Package health turns raw probe outcomes into stable per-target health
// states. A state change is only confirmed once a streak of identical
// outcomes reaches the target's configured threshold, so a single flaky
// probe never flips state.
package health

import (
	"sync"
	"time"

	"availwatch/internal/domain"
)

// TargetStatus is a read-only snapshot of one target's tracked state.
type TargetStatus struct {
	Target        domain.Target       `json:"target"`
	State         domain.HealthState  `json:"state"`
	FailStreak    int                 `json:"fail_streak"`
	OKStreak      int                 `json:"ok_streak"`
	LastResult    *domain.ProbeResult `json:"last_result,omitempty"`
	LastChangedAt time.Time           `json:"last_changed_at,omitempty"`
}

type record struct {
	target     domain.Target
	state      domain.HealthState
	failStreak int
	okStreak   int
	lastResult *domain.ProbeResult
	changedAt  time.Time
}

// Tracker owns one state record per target. Observe for a given target is
// called from that target's scheduler worker only; the mutex exists for
// snapshot readers (the status API), not for writer-writer races.
type Tracker struct {
	mu      sync.RWMutex
	records map[domain.TargetID]*record
}

func NewTracker(targets []domain.Target) *Tracker {
	m := make(map[domain.TargetID]*record, len(targets))
	for _, t := range targets {
		m[t.ID] = &record{target: t, state: domain.StateUnknown}
	}
	return &Tracker{records: m}
}

// Observe feeds one probe result into the target's state machine. It returns
// a Transition when a streak crossed its threshold, nil otherwise. The very
// first observation seeds the state and never produces a transition.
func (tr *Tracker) Observe(res domain.ProbeResult) *domain.Transition {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	r, ok := tr.records[res.TargetID]
	if !ok {
		return nil
	}
	cp := res
	r.lastResult = &cp

	if r.state == domain.StateUnknown {
		if res.Success {
			r.state = domain.StateHealthy
			r.okStreak = 1
		} else {
			r.state = domain.StateDown
			r.failStreak = 1
		}
		r.changedAt = res.CheckedAt
		return nil
	}

	if res.Success {
		return r.observeSuccess(res)
	}
	return r.observeFailure(res)
}

func (r *record) observeSuccess(res domain.ProbeResult) *domain.Transition {
	r.okStreak++
	if r.state == domain.StateHealthy {
		// matching outcome resets the opposite streak
		r.failStreak = 0
		return nil
	}
	if r.okStreak < r.target.RecoveryThreshold {
		return nil
	}
	tr := &domain.Transition{
		TargetID: r.target.ID,
		From:     r.state,
		To:       domain.StateHealthy,
		Streak:   r.okStreak,
		At:       res.CheckedAt,
	}
	r.state = domain.StateHealthy
	r.failStreak = 0
	r.changedAt = res.CheckedAt
	return tr
}

func (r *record) observeFailure(res domain.ProbeResult) *domain.Transition {
	r.failStreak++
	if r.state == domain.StateDown {
		r.okStreak = 0
		return nil
	}
	if r.state == domain.StateDegraded {
		// still on the failure side; recovery must restart
		r.okStreak = 0
	}

	// The failure streak counts from the first failure, not from entering
	// Degraded, so the Down edge fires N failures after Healthy regardless
	// of the soft tier.
	if r.failStreak >= r.target.FailureThreshold {
		tr := &domain.Transition{
			TargetID: r.target.ID,
			From:     r.state,
			To:       domain.StateDown,
			Streak:   r.failStreak,
			Reason:   res.Reason,
			At:       res.CheckedAt,
		}
		r.state = domain.StateDown
		r.okStreak = 0
		r.changedAt = res.CheckedAt
		return tr
	}

	if r.state == domain.StateHealthy &&
		r.target.DegradeThreshold > 0 &&
		r.failStreak == r.target.DegradeThreshold {
		tr := &domain.Transition{
			TargetID: r.target.ID,
			From:     r.state,
			To:       domain.StateDegraded,
			Streak:   r.failStreak,
			Reason:   res.Reason,
			At:       res.CheckedAt,
		}
		r.state = domain.StateDegraded
		r.okStreak = 0
		r.changedAt = res.CheckedAt
		return tr
	}
	return nil
}

// State returns the current state for a target (Unknown for ids the tracker
// does not know).
func (tr *Tracker) State(id domain.TargetID) domain.HealthState {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if r, ok := tr.records[id]; ok {
		return r.state
	}
	return domain.StateUnknown
}

// Snapshot returns the status of every tracked target, for the status API.
func (tr *Tracker) Snapshot() []TargetStatus {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]TargetStatus, 0, len(tr.records))
	for _, r := range tr.records {
		st := TargetStatus{
			Target:        r.target,
			State:         r.state,
			FailStreak:    r.failStreak,
			OKStreak:      r.okStreak,
			LastChangedAt: r.changedAt,
		}
		if r.lastResult != nil {
			cp := *r.lastResult
			st.LastResult = &cp
		}
		out = append(out, st)
	}
	return out
}
