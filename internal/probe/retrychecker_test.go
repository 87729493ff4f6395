package probe

import (
	"context"
	"testing"
	"time"
)

// fake checker you can control
type fakeChecker struct {
	results []CheckResult
	i       int
}

func (f *fakeChecker) Check(ctx context.Context, target string) CheckResult {
	if f.i >= len(f.results) {
		return CheckResult{Success: false, Message: "no more"}
	}
	r := f.results[f.i]
	f.i++
	return r
}

func TestRetryChecker_SucceedsAfterRetry(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Success: false, Message: "first fail"},
			{Success: true, Message: "ok"},
		},
	}
	rc := &RetryChecker{
		Inner:    f,
		Attempts: 3,
		Backoff:  10 * time.Millisecond,
	}
	out := rc.Check(context.Background(), "https://example.com")
	if !out.Success {
		t.Fatalf("expected success after retry, got %+v", out)
	}
}

func TestRetryChecker_AllFailAnnotates(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Success: false, Message: "fail1"},
			{Success: false, Message: "fail2"},
		},
	}
	rc := &RetryChecker{
		Inner:    f,
		Attempts: 2,
		Backoff:  0,
	}
	out := rc.Check(context.Background(), "https://example.com")
	if out.Success {
		t.Fatalf("expected failure, got success")
	}
	if out.Message == "" {
		t.Fatalf("expected failure message annotation, got empty")
	}
}

func TestRetryChecker_StopsOnCancel(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Success: false, Message: "fail"},
		},
	}
	rc := &RetryChecker{
		Inner:    f,
		Attempts: 5,
		Backoff:  time.Hour,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	out := rc.Check(ctx, "https://example.com")
	if out.Success {
		t.Fatal("expected failure")
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancelled retry should return promptly")
	}
}
