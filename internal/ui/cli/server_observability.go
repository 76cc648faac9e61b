package cli

import (
	"context"
	coreapp "depmanifest/internal/core/app"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is served on /health while watching.
type HealthStatus struct {
	Status     string    `json:"status"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	Modules    int       `json:"modules"`
	Edges      int       `json:"edges"`
	OutputPath string    `json:"output_path,omitempty"`
}

type runStatus struct {
	mu   sync.RWMutex
	last HealthStatus
}

func newRunStatus() *runStatus {
	return &runStatus{last: HealthStatus{Status: "starting"}}
}

func (s *runStatus) record(result coreapp.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = HealthStatus{
		Status:     "up",
		LastRunID:  result.RunID,
		LastRunAt:  time.Now().UTC(),
		Modules:    result.Modules,
		Edges:      result.Edges,
		OutputPath: result.OutputPath,
	}
}

func (s *runStatus) snapshot() HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

type ObservabilityServer struct {
	addr   string
	status func() HealthStatus
	server *http.Server
}

func NewObservabilityServer(addr string, status func() HealthStatus) *ObservabilityServer {
	return &ObservabilityServer{
		addr:   addr,
		status: status,
	}
}

func (s *ObservabilityServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.status()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return mux
}

// Start binds addr and serves in the background.
func (s *ObservabilityServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
