package probe

import (
	"context"
	"time"
)

// RetryChecker re-runs a flaky inner check a bounded number of times before
// reporting failure. Off by default; enabling it dampens what the health
// tracker sees, so it is meant for targets whose transport drops probes even
// when the service is fine.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Success {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	// annotate message so the retry series is visible in logs
	last.Message = last.Message + " (after retries)"
	return last
}

// ForKind returns the checker for a config probe kind.
func ForKind(kind string, timeout time.Duration) Checker {
	switch kind {
	case "tcp":
		return NewTCPChecker(timeout)
	case "dns":
		return NewDNSChecker()
	default:
		return NewHTTPChecker(timeout)
	}
}
