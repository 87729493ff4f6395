package probe

import "context"

// CheckResult is the unified result of a single probe.
type CheckResult struct {
	Name      string  `json:"name"`
	Success   bool    `json:"success"`
	TimedOut  bool    `json:"timed_out,omitempty"`
	Message   string  `json:"message"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
}

// Checker performs a single check for a given target URL.
// Implementations must honor ctx cancellation; the scheduler enforces the
// per-target timeout through the context it passes in.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
