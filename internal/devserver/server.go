// ABOUTME: Development server wiring: routes, middleware, and lifecycle
// ABOUTME: Runs the HTTP server and its shutdown watcher in one errgroup

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/auth"
	"github.com/2389/genia/internal/broadcast"
	"github.com/2389/genia/internal/dedupe"
	"github.com/2389/genia/internal/store"
)

const (
	maxUploadBytes   = 32 << 20
	uploadDedupeTTL  = 10 * time.Minute
	uploadDedupeSize = 256
	shutdownTimeout  = 5 * time.Second
)

// Store is the persistence the server needs.
type Store interface {
	store.TodoStore
	store.DocumentStore
}

// Options configure a Server.
type Options struct {
	Store      Store
	UploadsDir string
	// Answerer composes answers from retrieved passages. Nil uses ExtractiveAnswerer.
	Answerer Answerer
	// Verifier enables bearer authentication when non-nil.
	Verifier auth.TokenVerifier
	Logger   *slog.Logger
}

// Server is the development backend.
type Server struct {
	store       Store
	uploadsDir  string
	answerer    Answerer
	verifier    auth.TokenVerifier
	broadcaster *broadcast.Broadcaster
	uploads     *dedupe.Cache[api.Ack]
	logger      *slog.Logger
}

// New creates a server. Call Close when done.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("devserver: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	answerer := opts.Answerer
	if answerer == nil {
		answerer = ExtractiveAnswerer{}
	}
	if opts.UploadsDir != "" {
		if err := os.MkdirAll(opts.UploadsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating uploads directory: %w", err)
		}
	}

	return &Server{
		store:       opts.Store,
		uploadsDir:  opts.UploadsDir,
		answerer:    answerer,
		verifier:    opts.Verifier,
		broadcaster: broadcast.New(logger),
		uploads:     dedupe.New[api.Ack](uploadDedupeTTL, uploadDedupeSize),
		logger:      logger.With("component", "devserver"),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	authMiddleware := auth.HTTPAuthMiddleware(s.verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /chat", authMiddleware(http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /upload", authMiddleware(http.HandlerFunc(s.handleUpload)))
	mux.Handle("GET /todos", authMiddleware(http.HandlerFunc(s.handleListTodos)))
	mux.Handle("POST /todos", authMiddleware(http.HandlerFunc(s.handleTodoAction)))
	mux.Handle("GET /events", authMiddleware(http.HandlerFunc(s.handleEvents)))
	return mux
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails, then shuts
// down gracefully. Open event streams are ended first so shutdown does not
// wait on them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("serving", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.broadcaster.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// Close releases background resources and ends open event streams.
func (s *Server) Close() {
	s.broadcaster.Close()
	s.uploads.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownerID resolves whose todo list a request addresses. An authenticated
// subject always wins; requested is only honored when it matches.
func ownerID(r *http.Request, requested string) (string, error) {
	if sub, ok := auth.OwnerFromContext(r.Context()); ok {
		if requested != "" && requested != sub {
			return "", errForbiddenOwner
		}
		return sub, nil
	}
	if requested == "" {
		return defaultOwnerID, nil
	}
	return requested, nil
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
