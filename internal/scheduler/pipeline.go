package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"availwatch/internal/dedupe"
	"availwatch/internal/domain"
	"availwatch/internal/health"
	"availwatch/internal/notify"
	"availwatch/internal/probe"
	"availwatch/internal/repo"
)

// Entry binds a target to the checker that probes it.
type Entry struct {
	Target  domain.Target
	Checker probe.Checker
}

// Pipeline is the run loop: scheduler -> health tracker -> deduplicator ->
// dispatcher, with alert history recorded along the way. Alert events for
// one target flow synchronously through its worker goroutine, so their
// delivery order is preserved.
type Pipeline struct {
	logger     *zap.Logger
	sched      *Scheduler
	tracker    *health.Tracker
	deduper    *dedupe.Deduper
	dispatcher *notify.Dispatcher
	history    repo.HistoryStore
	entries    []Entry
	grace      time.Duration

	// deliverCtx outlives the run context so in-flight notifications can
	// drain during the shutdown grace period
	deliverCtx    context.Context
	deliverCancel context.CancelFunc
}

func NewPipeline(
	logger *zap.Logger,
	sched *Scheduler,
	tracker *health.Tracker,
	deduper *dedupe.Deduper,
	dispatcher *notify.Dispatcher,
	history repo.HistoryStore,
	entries []Entry,
	grace time.Duration,
) *Pipeline {
	if grace <= 0 {
		grace = 10 * time.Second
	}
	dctx, dcancel := context.WithCancel(context.Background())
	return &Pipeline{
		logger:        logger,
		sched:         sched,
		tracker:       tracker,
		deduper:       deduper,
		dispatcher:    dispatcher,
		history:       history,
		entries:       entries,
		grace:         grace,
		deliverCtx:    dctx,
		deliverCancel: dcancel,
	}
}

// Run registers every target and blocks until ctx is cancelled, then drains
// in-flight work within the grace period.
func (p *Pipeline) Run(ctx context.Context) {
	for _, e := range p.entries {
		e := e
		p.sched.Schedule(ctx, e.Target, e.Checker, func(_ context.Context, res domain.ProbeResult) {
			p.handleResult(e.Target, res)
		})
	}
	p.logger.Info("pipeline_started",
		zap.Int("targets", len(p.entries)),
		zap.Int("sinks", p.dispatcher.Sinks()),
	)

	<-ctx.Done()

	if drained := p.sched.Drain(p.grace); !drained {
		p.logger.Warn("shutdown_incomplete", zap.Duration("grace", p.grace))
	} else {
		p.logger.Info("shutdown_drained")
	}
	p.deliverCancel()
}

func (p *Pipeline) handleResult(t domain.Target, res domain.ProbeResult) {
	p.logger.Debug("probe_checked",
		zap.String("target_id", string(res.TargetID)),
		zap.Bool("success", res.Success),
		zap.Bool("timed_out", res.TimedOut),
		zap.Float64("latency_ms", res.LatencyMS),
		zap.String("reason", res.Reason),
	)

	tr := p.tracker.Observe(res)
	if tr == nil {
		return
	}
	p.logger.Info("state_transition",
		zap.String("target_id", string(tr.TargetID)),
		zap.Stringer("from", tr.From),
		zap.Stringer("to", tr.To),
		zap.Int("streak", tr.Streak),
		zap.String("reason", tr.Reason),
	)

	ev, err := p.deduper.Decide(p.deliverCtx, t, *tr)
	if err != nil {
		p.logger.Warn("alert_state_error",
			zap.String("target_id", string(tr.TargetID)),
			zap.Error(err),
		)
	}
	if ev == nil {
		return
	}

	if err := p.history.AppendEvent(p.deliverCtx, *ev); err != nil {
		p.logger.Warn("history_append_error",
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
	}

	p.logger.Info("alert_event",
		zap.String("event_id", ev.ID),
		zap.String("target_id", string(ev.TargetID)),
		zap.Stringer("state", ev.State),
		zap.String("message", ev.Message),
	)

	// Send blocks until all sinks finish or exhaust retries; errors are
	// already logged per sink and never affect health tracking.
	_ = p.dispatcher.Send(p.deliverCtx, *ev)
}
