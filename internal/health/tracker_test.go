package health

import (
	"testing"
	"time"

	"availwatch/internal/domain"
)

func testTarget(fail, recov, degrade int) domain.Target {
	return domain.Target{
		ID:                "T1",
		URL:               "https://example.com",
		Probe:             "http",
		Interval:          30 * time.Second,
		Timeout:           5 * time.Second,
		FailureThreshold:  fail,
		RecoveryThreshold: recov,
		DegradeThreshold:  degrade,
		Cooldown:          time.Minute,
	}
}

func feed(tr *Tracker, id domain.TargetID, outcomes ...bool) []*domain.Transition {
	var out []*domain.Transition
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, ok := range outcomes {
		res := domain.ProbeResult{
			TargetID:  id,
			Success:   ok,
			CheckedAt: at.Add(time.Duration(i) * time.Second),
		}
		if !ok {
			res.Reason = "connection refused"
		}
		if p := tr.Observe(res); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func TestTracker_FirstProbeSeedsWithoutTransition(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(3, 2, 0)})

	if got := feed(tr, "T1", false); len(got) != 0 {
		t.Fatalf("baseline seeding must not emit a transition, got %+v", got)
	}
	if tr.State("T1") != domain.StateDown {
		t.Fatalf("first failure should seed Down, got %v", tr.State("T1"))
	}

	tr2 := NewTracker([]domain.Target{testTarget(3, 2, 0)})
	feed(tr2, "T1", true)
	if tr2.State("T1") != domain.StateHealthy {
		t.Fatalf("first success should seed Healthy, got %v", tr2.State("T1"))
	}
}

func TestTracker_NoTransitionBelowThreshold(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(3, 2, 0)})

	// Healthy baseline, then two failures and a success: no transition.
	got := feed(tr, "T1", true, false, false, true)
	if len(got) != 0 {
		t.Fatalf("want no transitions, got %+v", got)
	}
	if tr.State("T1") != domain.StateHealthy {
		t.Fatalf("state should stay Healthy, got %v", tr.State("T1"))
	}
}

func TestTracker_DownAfterThreshold(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(3, 2, 0)})

	got := feed(tr, "T1", true, false, false, false)
	if len(got) != 1 {
		t.Fatalf("want exactly one transition, got %+v", got)
	}
	if got[0].From != domain.StateHealthy || got[0].To != domain.StateDown || got[0].Streak != 3 {
		t.Fatalf("unexpected transition: %+v", got[0])
	}
	if got[0].Reason == "" {
		t.Fatal("down transition should carry the failure reason")
	}

	// Further failures while Down stay silent.
	if more := feed(tr, "T1", false, false); len(more) != 0 {
		t.Fatalf("no re-fire while Down, got %+v", more)
	}
}

func TestTracker_RecoveryAfterThreshold(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(3, 2, 0)})

	feed(tr, "T1", false) // seed Down
	got := feed(tr, "T1", true, true)
	if len(got) != 1 {
		t.Fatalf("want one recovery transition, got %+v", got)
	}
	if got[0].From != domain.StateDown || got[0].To != domain.StateHealthy || got[0].Streak != 2 {
		t.Fatalf("unexpected transition: %+v", got[0])
	}
}

func TestTracker_FailureDuringRecoveryResetsOKStreak(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(3, 2, 0)})

	feed(tr, "T1", false)       // Down
	got := feed(tr, "T1", true) // one success, below M
	if len(got) != 0 {
		t.Fatalf("single success must not recover, got %+v", got)
	}
	feed(tr, "T1", false) // failure resets recovery count
	got = feed(tr, "T1", true)
	if len(got) != 0 {
		t.Fatalf("ok streak should have reset, got %+v", got)
	}
	got = feed(tr, "T1", true)
	if len(got) != 1 || got[0].To != domain.StateHealthy {
		t.Fatalf("want recovery on second consecutive success, got %+v", got)
	}
}

func TestTracker_DegradeTier(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(4, 2, 2)})

	got := feed(tr, "T1", true, false, false)
	if len(got) != 1 || got[0].To != domain.StateDegraded || got[0].Streak != 2 {
		t.Fatalf("want Degraded at K1=2, got %+v", got)
	}

	// Failure streak keeps counting from the first failure.
	got = feed(tr, "T1", false, false)
	if len(got) != 1 || got[0].From != domain.StateDegraded || got[0].To != domain.StateDown || got[0].Streak != 4 {
		t.Fatalf("want Down at N=4 from Degraded, got %+v", got)
	}
}

func TestTracker_DegradedRecovers(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(4, 2, 2)})

	feed(tr, "T1", true, false, false) // Degraded
	got := feed(tr, "T1", true, true)
	if len(got) != 1 || got[0].From != domain.StateDegraded || got[0].To != domain.StateHealthy {
		t.Fatalf("want Degraded->Healthy, got %+v", got)
	}
}

func TestTracker_Deterministic(t *testing.T) {
	seq := []bool{true, false, false, true, false, false, false, true, true, false, true, true}

	run := func() []domain.Transition {
		tr := NewTracker([]domain.Target{testTarget(3, 2, 1)})
		var out []domain.Transition
		for _, p := range feed(tr, "T1", seq...) {
			out = append(out, *p)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run mismatch at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestTracker_SnapshotReflectsState(t *testing.T) {
	tr := NewTracker([]domain.Target{testTarget(3, 2, 0)})
	feed(tr, "T1", true, false)

	snap := tr.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("want 1 status, got %d", len(snap))
	}
	st := snap[0]
	if st.State != domain.StateHealthy || st.FailStreak != 1 {
		t.Fatalf("unexpected snapshot: %+v", st)
	}
	if st.LastResult == nil || st.LastResult.Success {
		t.Fatalf("last result should be the failure: %+v", st.LastResult)
	}
}
