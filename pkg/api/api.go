// Package api implements the flowboard HTTP API.
//
// The API exposes flowchart CRUD plus the two graph queries (outgoing
// edges and connected nodes) over a chi router. All handlers delegate to
// the service layer; this package only translates between HTTP and the
// service's error codes.
//
// # Routes
//
//	POST   /flowcharts                                 create
//	GET    /flowcharts                                 list
//	GET    /flowcharts/{id}                            fetch
//	PUT    /flowcharts/{id}                            replace
//	DELETE /flowcharts/{id}                            delete
//	GET    /flowcharts/{id}/nodes/{nodeID}/edges       outgoing edges
//	GET    /flowcharts/{id}/nodes/{nodeID}/connected   reachable nodes
//	GET    /flowcharts/{id}/export?format=dot|svg      render
//	GET    /healthz                                    liveness probe
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowboard/pkg/service"
)

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server is the flowboard HTTP server.
type Server struct {
	svc    *service.Service
	logger *log.Logger
	addr   string

	// RequestTimeout bounds each request end to end when positive.
	RequestTimeout time.Duration
}

// NewServer creates a server around the given service.
// If logger is nil, the default logger is used.
func NewServer(svc *service.Service, addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{svc: svc, logger: logger, addr: addr}
}

// Router builds the chi router with all routes and middleware registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/flowcharts", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Put("/", s.handleUpdate)
			r.Delete("/", s.handleDelete)
			r.Get("/export", s.handleExport)

			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Get("/edges", s.handleOutgoingEdges)
				r.Get("/connected", s.handleConnectedNodes)
			})
		})
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
