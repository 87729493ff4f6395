package notify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"availwatch/internal/domain"
)

// RetryPolicy is the explicit backoff schedule for one sink's delivery
// attempts: exponential from BaseDelay, capped at MaxDelay, with up to 50%
// added jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay returns the pause before attempt n (1-based; no pause before the
// first attempt). jitter must be in [0, 1).
func (p RetryPolicy) Delay(attempt int, jitter float64) time.Duration {
	if attempt <= 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d + time.Duration(jitter*0.5*float64(d))
}

// Dispatcher fans one alert event out to every sink, each with its own
// retry loop. Send returns only when every sink has succeeded or exhausted
// its attempts, which keeps per-target delivery order intact when the
// caller sends sequentially.
type Dispatcher struct {
	logger *zap.Logger
	sinks  []Sink
	policy RetryPolicy

	// test seams; defaults sleep for real and use math/rand
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

func NewDispatcher(logger *zap.Logger, policy RetryPolicy, sinks ...Sink) *Dispatcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	live := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return &Dispatcher{
		logger: logger,
		sinks:  live,
		policy: policy,
		sleep:  sleepCtx,
		jitter: rand.Float64,
	}
}

// Sinks reports how many sinks are wired.
func (d *Dispatcher) Sinks() int { return len(d.sinks) }

// Send delivers ev to all sinks concurrently. The returned error aggregates
// every sink that exhausted its retries; callers log it and move on —
// delivery failure never affects health tracking.
func (d *Dispatcher) Send(ctx context.Context, ev domain.AlertEvent) error {
	if len(d.sinks) == 0 {
		return nil
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, s := range d.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			if err := d.deliverWithRetry(ctx, s, ev); err != nil {
				d.logger.Warn("delivery_failed",
					zap.String("sink", s.Name()),
					zap.String("target_id", string(ev.TargetID)),
					zap.String("event_id", ev.ID),
					zap.Error(err),
				)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()
	return errs
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, s Sink, ev domain.AlertEvent) error {
	var last error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		if wait := d.policy.Delay(attempt, d.jitter()); wait > 0 {
			if err := d.sleep(ctx, wait); err != nil {
				return multierr.Append(last, err)
			}
		}
		if last = s.Deliver(ctx, ev); last == nil {
			if attempt > 1 {
				d.logger.Info("delivery_recovered",
					zap.String("sink", s.Name()),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
