package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/registry"
	"github.com/ocx/rmos/internal/store"
	"github.com/ocx/rmos/internal/workflow"
)

// Server wires the registry, feasibility engine, kernel worker pool,
// post-processor, run artifact store, and workflow machine into the
// four HTTP endpoint groups the façade exposes.
type Server struct {
	reg      *registry.Registry
	engine   *feasibility.Engine
	runs     *store.Store
	machine  *workflow.Machine
	pool     *kernel.WorkerPool
	metrics  *Metrics
	events   *RunEventEmitter
	router   *mux.Router
}

// NewServer constructs the façade. events may be nil, in which case
// run-lifecycle notifications are skipped entirely.
func NewServer(reg *registry.Registry, engine *feasibility.Engine, runs *store.Store, machine *workflow.Machine, pool *kernel.WorkerPool, metrics *Metrics, evts *RunEventEmitter) *Server {
	s := &Server{reg: reg, engine: engine, runs: runs, machine: machine, pool: pool, metrics: metrics, events: evts}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	api := r.PathPrefix("/api/rmos").Subrouter()
	api.HandleFunc("/feasibility", s.handleFeasibility).Methods(http.MethodPost)
	api.HandleFunc("/toolpaths", s.handleToolpaths).Methods(http.MethodPost)

	api.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/stream", s.handleStreamRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/diff/{a}/{b}", s.handleDiffRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/download", s.handleDownloadRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)

	api.HandleFunc("/workflow/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/workflow/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/workflow/approve", s.handleApprove).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// ServeHTTP satisfies http.Handler, letting tests drive the façade with
// httptest.NewServer/httptest.NewRecorder without a real listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Run starts the HTTP server on addr (e.g. ":8080") and blocks until
// ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("httpapi: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("httpapi: graceful shutdown: %w", err)
		}
		return nil
	}
}
