package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"availwatch/internal/config"
	"availwatch/internal/dedupe"
	"availwatch/internal/health"
	"availwatch/internal/httpapi"
	"availwatch/internal/logging"
	"availwatch/internal/notify"
	"availwatch/internal/probe"
	"availwatch/internal/repo"
	"availwatch/internal/repo/memory"
	"availwatch/internal/repo/sqlite"
	"availwatch/internal/scheduler"
)

const shutdownGrace = 10 * time.Second

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config.yaml>\n", os.Args[0])
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "availwatch:", err)
		os.Exit(1)
	}
}

// run returns an error only for configuration/startup failures. Once the
// pipeline is up, probe and delivery failures are logged and absorbed.
func run(configPath string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Options{
		Dir:    cfg.Log.Dir,
		Stdout: cfg.Log.Stdout,
		Debug:  cfg.Log.Debug,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store repo.Store
	if cfg.StateDB != "" {
		s, err := sqlite.Open(ctx, cfg.StateDB)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		logger.Info("state_db_opened", zap.String("path", cfg.StateDB))
	} else {
		store = memory.New()
	}

	sinks := buildSinks(cfg)
	if len(sinks) == 0 {
		logger.Warn("no_sinks_configured")
	}
	dispatcher := notify.NewDispatcher(logger, notify.RetryPolicy{
		MaxAttempts: cfg.Delivery.MaxAttempts,
		BaseDelay:   cfg.Delivery.BaseDelayDuration(),
		MaxDelay:    cfg.Delivery.MaxDelayDuration(),
	}, sinks...)

	targets := cfg.DomainTargets()
	tracker := health.NewTracker(targets)
	sched := scheduler.New(logger)

	entries := make([]scheduler.Entry, 0, len(targets))
	for i, t := range targets {
		chk := probe.ForKind(t.Probe, t.Timeout)
		if rc := cfg.Targets[i].Retry; rc != nil {
			chk = &probe.RetryChecker{Inner: chk, Attempts: rc.Attempts, Backoff: rc.BackoffDuration()}
		}
		entries = append(entries, scheduler.Entry{Target: t, Checker: chk})
	}

	pipeline := scheduler.NewPipeline(
		logger, sched, tracker, dedupe.New(store), dispatcher, store, entries, shutdownGrace,
	)

	if cfg.API.Addr != "" {
		ln, err := net.Listen("tcp", cfg.API.Addr)
		if err != nil {
			return fmt.Errorf("bind status api: %w", err)
		}
		api := httpapi.NewServer(logger, tracker, store, sched.SkippedTicks)
		srv := &http.Server{Handler: api.Router()}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.API.Addr))
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				logger.Error("api_serve_error", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	logger.Info("availwatch_started",
		zap.Int("targets", len(targets)),
		zap.Int("sinks", len(sinks)),
	)
	pipeline.Run(ctx)
	logger.Info("availwatch_stopped")
	return nil
}

func buildSinks(cfg *config.Config) []notify.Sink {
	var out []notify.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "slack":
			if s := notify.NewSlack(sc.Webhook); s != nil {
				out = append(out, s)
			}
		case "pushover":
			if p := notify.NewPushover(sc.Token, sc.User); p != nil {
				out = append(out, p)
			}
		case "webhook":
			if w := notify.NewWebhook(sc.URL); w != nil {
				out = append(out, w)
			}
		}
	}
	return out
}
