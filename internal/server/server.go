package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harshithgowdakt/granulekey/internal/storage"
)

// Server serves index analysis over HTTP for a single table.
type Server struct {
	addr     string
	handler  *QueryHandler
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates a new server. gatherer backs the /metrics endpoint and
// may be nil.
func NewServer(addr string, table *storage.Table, selector *storage.Selector, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:     addr,
		handler:  NewQueryHandler(table, selector, logger),
		gatherer: gatherer,
		logger:   logger,
	}
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ping", s.handler.HandlePing)
	r.Get("/explain", s.handler.HandleExplain)
	r.Post("/explain", s.handler.HandleExplain)
	r.Get("/select", s.handler.HandleSelect)
	r.Post("/select", s.handler.HandleSelect)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("shutdown failed", zap.Error(err))
			}
		case <-done:
		}
	}()

	s.logger.Info("index analysis server listening", zap.String("addr", s.addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "serving on %s", s.addr)
	}
	return nil
}
