package domain

import "time"

type TargetID string

// Target is a monitored endpoint plus its polling and alerting thresholds.
// Built once by the config loader; never mutated afterwards.
type Target struct {
	ID                TargetID      `json:"id"`
	URL               string        `json:"url"`
	Probe             string        `json:"probe"` // "http" | "tcp" | "dns"
	Interval          time.Duration `json:"interval"`
	Timeout           time.Duration `json:"timeout"`
	FailureThreshold  int           `json:"failure_threshold"`
	RecoveryThreshold int           `json:"recovery_threshold"`
	DegradeThreshold  int           `json:"degrade_threshold,omitempty"` // 0 disables the degrade tier
	Cooldown          time.Duration `json:"cooldown"`
	DegradeAlerts     bool          `json:"degrade_alerts"`
}

// ProbeResult is the outcome of one check. Produced each tick, consumed by
// the health tracker, then discarded.
type ProbeResult struct {
	TargetID  TargetID  `json:"target_id"`
	Success   bool      `json:"success"`
	TimedOut  bool      `json:"timed_out,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}
