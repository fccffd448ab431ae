// Package httpapi implements the C14 HTTP Shell: a REST surface over the
// graph, search, and note stores for CRUD on projects/plans/tasks/notes
// plus full-text search, for callers that want plain HTTP/JSON instead of
// the C13 JSON-RPC stdio shell. Grounded on the teacher's
// internal/auth/antigravity/server.go for the http.Server lifecycle
// (mux registration, goroutine ListenAndServe, context-driven graceful
// shutdown); the router itself is stdlib net/http.ServeMux rather than a
// third-party router, since no pack dependency covers that concern for a
// server this thin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/notes"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

// Server is the C14 HTTP Shell.
type Server struct {
	graph  *graphstore.Store
	search searchstore.Index
	notes  *notes.Manager

	mux *http.ServeMux
}

// NewServer wires a Server over the given stores and registers its routes.
func NewServer(graph *graphstore.Store, search searchstore.Index, noteMgr *notes.Manager) *Server {
	s := &Server{graph: graph, search: search, notes: noteMgr, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP lets Server satisfy http.Handler directly, useful in tests that
// drive it with httptest.NewServer without going through Run.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run starts an http.Server on addr and blocks until ctx is cancelled,
// shutting down gracefully within the given grace period.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	httpServer := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		logging.HTTP("http shell listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		logging.HTTP("http shell shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}
