package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/logging"
	"saaspulse-sim/internal/metrics"
	"saaspulse-sim/internal/scenario"
	"saaspulse-sim/internal/sim"
)

// Server exposes the running simulator over HTTP: a live dashboard page,
// JSON views of the state, manual ticks, Prometheus metrics and a
// websocket stream of snapshots.
type Server struct {
	Sim      *sim.Simulator
	gatherer prometheus.Gatherer
	tpl      *template.Template
	upgrader websocket.Upgrader
	log      *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

// NewServer creates a server for s. A nil gatherer serves the default
// Prometheus registry.
func NewServer(s *sim.Simulator, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{
		Sim:      s,
		gatherer: gatherer,
		tpl:      tpl,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: slog.Default().With("component", "admin"),
	}
}

// Handler returns the router serving every admin route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/state", s.handleState)
	r.Get("/history", s.handleHistory)
	r.Get("/activity", s.handleActivity)
	r.Get("/config", s.handleConfig)
	r.Get("/phase", s.handlePhase)
	r.Get("/scenarios", s.handleScenarios)
	r.Post("/tick/{op}", s.handleTick)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)
	return r
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.log = logging.FromContext(ctx).With("component", "admin")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin shutdown: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "err", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		RunID    string
		Config   *config.SimulationConfig
		Phase    sim.PhaseInfo
		Snapshot metrics.Snapshot
	}{
		RunID:    s.Sim.RunID(),
		Config:   s.Sim.Config(),
		Phase:    s.Sim.Phase(),
		Snapshot: s.Sim.Snapshot(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("failed to render index", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.History())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Activity())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Config())
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Phase())
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, scenario.Names())
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "op")
	snap, err := s.Sim.Tick(r.Context(), op)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, snap)
}
