package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"availwatch/internal/health"
	"availwatch/internal/repo"
)

// Server exposes the monitor's state read-only: current target health and
// recent alert history. There are no mutating routes; targets come from the
// config file.
type Server struct {
	Logger  *zap.Logger
	Tracker *health.Tracker
	History repo.HistoryStore
	Skips   func() int64
}

func NewServer(l *zap.Logger, tr *health.Tracker, hs repo.HistoryStore, skips func() int64) *Server {
	return &Server{Logger: l, Tracker: tr, History: hs, Skips: skips}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/targets", s.handleTargets)
	r.Get("/api/alerts", s.handleAlerts)

	return r
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	snap := s.Tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"targets":       snap,
		"skipped_ticks": s.Skips(),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	evs, err := s.History.RecentEvents(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("alert_history_error", zap.Error(err))
		http.Error(w, "history error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(evs)
}
