package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"availwatch/internal/domain"
	"availwatch/internal/repo"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sent := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := repo.AlertRecord{
		TargetID:   "T1",
		LastState:  domain.StateDown,
		LastSentAt: &sent,
	}
	if err := s.Set(ctx, rec); err != nil {
		t.Fatal(err)
	}
	// upsert flips state, clears sent
	rec.LastState = domain.StateHealthy
	rec.LastSentAt = nil
	if err := s.Set(ctx, rec); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	// State must survive reopen; that is the point of this store.
	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "T1")
	if err != nil || got == nil {
		t.Fatalf("want record after reopen, got %+v, %v", got, err)
	}
	if got.LastState != domain.StateHealthy || got.LastSentAt != nil {
		t.Fatalf("upsert not applied: %+v", got)
	}
}

func TestStore_GetMissingIsNilNil(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("want nil, nil; got %+v, %v", got, err)
	}
}

func TestStore_HistoryOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ev := domain.AlertEvent{
			ID:       string(rune('a' + i)),
			TargetID: "T1",
			URL:      "https://example.com",
			State:    domain.StateDown,
			Previous: domain.StateHealthy,
			Message:  "down",
			At:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentEvents(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	if got[0].ID != "e" || got[2].ID != "c" {
		t.Fatalf("want newest first, got %q %q %q", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].State != domain.StateDown || got[0].Previous != domain.StateHealthy {
		t.Fatalf("states lost in round trip: %+v", got[0])
	}
}
