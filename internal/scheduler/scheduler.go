// Package scheduler drives periodic probing, one worker goroutine per
// target, and wires probe results through health tracking, deduplication
// and notification.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"availwatch/internal/domain"
	"availwatch/internal/probe"
)

// ResultFunc consumes probe results for a target. It is always called from
// that target's single worker goroutine, so per-target handling needs no
// locking of its own.
type ResultFunc func(ctx context.Context, res domain.ProbeResult)

// Scheduler runs one ticker loop per target. A slow probe on one target
// never delays another; a slow probe on its own target causes skipped
// ticks, never queued ones.
type Scheduler struct {
	logger       *zap.Logger
	wg           sync.WaitGroup
	skippedTicks atomic.Int64
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// SkippedTicks reports how many ticks were dropped because the previous
// probe for the same target was still in flight.
func (s *Scheduler) SkippedTicks() int64 { return s.skippedTicks.Load() }

// Schedule starts the recurring probe loop for one target. The loop does an
// immediate pass, then fires on the target's wall-clock interval until ctx
// is cancelled.
func (s *Scheduler) Schedule(ctx context.Context, t domain.Target, chk probe.Checker, onResult ResultFunc) {
	s.wg.Add(1)
	go s.runWorker(ctx, t, chk, onResult)
}

// Drain blocks until every worker and in-flight probe has finished, or the
// grace period elapses. A false return means something was abandoned.
func (s *Scheduler) Drain(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}

func (s *Scheduler) runWorker(ctx context.Context, t domain.Target, chk probe.Checker, onResult ResultFunc) {
	defer s.wg.Done()

	var inFlight atomic.Bool

	fire := func() {
		if !inFlight.CompareAndSwap(false, true) {
			s.skippedTicks.Add(1)
			s.logger.Info("tick_skipped",
				zap.String("target_id", string(t.ID)),
				zap.Duration("interval", t.Interval),
			)
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer inFlight.Store(false)
			res, ok := s.execute(ctx, t, chk)
			if !ok {
				// shutdown interrupted the probe; do not feed a fabricated
				// failure into the state machine
				s.logger.Info("probe_aborted", zap.String("target_id", string(t.ID)))
				return
			}
			onResult(ctx, res)
		}()
	}

	fire()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("worker_stopped", zap.String("target_id", string(t.ID)))
			return
		case <-ticker.C:
			fire()
		}
	}
}

// execute runs one probe under the target's hard timeout. A checker that
// ignores its context is abandoned at the deadline and reported as a
// timeout failure. ok is false only when the parent context was cancelled.
func (s *Scheduler) execute(ctx context.Context, t domain.Target, chk probe.Checker) (domain.ProbeResult, bool) {
	pctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan probe.CheckResult, 1)
	go func() {
		done <- chk.Check(pctx, t.URL)
	}()

	var out probe.CheckResult
	select {
	case out = <-done:
	case <-pctx.Done():
		if ctx.Err() != nil {
			return domain.ProbeResult{}, false
		}
		out = probe.CheckResult{
			Success:   false,
			TimedOut:  true,
			Message:   "probe timeout exceeded",
			LatencyMS: time.Since(start).Seconds() * 1000,
		}
	}
	if ctx.Err() != nil {
		return domain.ProbeResult{}, false
	}

	return domain.ProbeResult{
		TargetID:  t.ID,
		Success:   out.Success,
		TimedOut:  out.TimedOut,
		Reason:    out.Message,
		LatencyMS: out.LatencyMS,
		CheckedAt: time.Now().UTC(),
	}, true
}
