package domain

import (
	"strings"
	"testing"
	"time"
)

func TestHealthState_Strings(t *testing.T) {
	cases := map[HealthState]string{
		StateUnknown:  "unknown",
		StateHealthy:  "healthy",
		StateDegraded: "degraded",
		StateDown:     "down",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Fatalf("want %q, got %q", want, state.String())
		}
		if ParseHealthState(want) != state {
			t.Fatalf("parse %q: got %v", want, ParseHealthState(want))
		}
	}
	if ParseHealthState("garbage") != StateUnknown {
		t.Fatal("unrecognized states must parse to Unknown")
	}
}

func TestNewAlertEvent_Messages(t *testing.T) {
	target := Target{ID: "T1", URL: "https://example.com"}
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	down := NewAlertEvent(target, Transition{
		TargetID: "T1", From: StateHealthy, To: StateDown,
		Streak: 3, Reason: "connection refused", At: at,
	})
	if down.ID == "" {
		t.Fatal("event needs an id")
	}
	if !strings.Contains(down.Message, "DOWN") || !strings.Contains(down.Message, "connection refused") {
		t.Fatalf("down message incomplete: %q", down.Message)
	}
	if down.State != StateDown || down.Previous != StateHealthy || !down.At.Equal(at) {
		t.Fatalf("event fields wrong: %+v", down)
	}

	up := NewAlertEvent(target, Transition{
		TargetID: "T1", From: StateDown, To: StateHealthy, Streak: 2, At: at,
	})
	if !strings.Contains(up.Message, "recovered") {
		t.Fatalf("recovery message incomplete: %q", up.Message)
	}
	if up.ID == down.ID {
		t.Fatal("events must get distinct ids")
	}
}
