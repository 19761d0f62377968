// ABOUTME: Server orchestration: builds the store, auth and API from config and runs HTTP
// ABOUTME: Owns health endpoints, listener setup and graceful shutdown

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/taskboard/internal/api"
	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/idempotency"
	"github.com/2389/taskboard/internal/repository"
	"github.com/2389/taskboard/internal/store"
)

// Server runs the taskboard HTTP API.
type Server struct {
	config     *config.Config
	backend    store.Backend
	repo       *repository.Repository
	idem       *idempotency.Cache
	limiter    *auth.Limiter
	httpServer *http.Server
	logger     *slog.Logger
}

// OpenBackend creates the storage backend selected by cfg.Storage.
func OpenBackend(cfg *config.Config, logger *slog.Logger) (store.Backend, error) {
	storeLogger := logger.With("component", "store")

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		storeLogger.Info("sqlite store initialized", "path", cfg.Storage.Path)
		return s, nil
	default:
		opts := []store.FileOption{store.WithLogger(storeLogger)}
		if cfg.Storage.MirrorPath != "" {
			opts = append(opts, store.WithMirror(cfg.Storage.MirrorPath))
		}
		if cfg.Storage.ValidateOnLoad {
			opts = append(opts, store.WithSchemaValidation())
		}
		s, err := store.NewFileStore(cfg.Storage.Path, opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return s, nil
	}
}

// NewTokenService builds the token service from cfg.Auth.
func NewTokenService(cfg *config.Config) (*auth.TokenService, error) {
	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}
	return auth.NewTokenService(verifier, cfg.Auth.TokenTTL), nil
}

// New creates a Server from configuration. The caller must Run or Shutdown it.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(cfg, backend, logger)
}

// NewWithBackend is New with an already opened backend. The server takes
// ownership and closes it on Shutdown.
func NewWithBackend(cfg *config.Config, backend store.Backend, logger *slog.Logger) (*Server, error) {
	tokens, err := NewTokenService(cfg)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	repo := repository.New(backend)
	idem := idempotency.New(cfg.Idempotency.TTL, cfg.Idempotency.MaxKeys)
	limiter := auth.NewLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, 10*time.Minute)

	s := &Server{
		config:  cfg,
		backend: backend,
		repo:    repo,
		idem:    idem,
		limiter: limiter,
		logger:  logger.With("component", "server"),
	}

	apiHandler := api.New(api.Deps{
		Repo:           repo,
		Hasher:         auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:         tokens,
		Idempotency:    idem,
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Debug:          cfg.Debug.Enabled,
		Logger:         logger,
	}).Handler()

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	mux.Handle("/api/", apiHandler)

	if cfg.Debug.Enabled {
		s.logger.Warn("debug endpoint enabled at /api/debug")
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and blocks until ctx is canceled or
// the server fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the caller's is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases the store and background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", s.backend.Close())

	s.idem.Close()
	s.limiter.Close()

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the document can be loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.Stats(r.Context())
	if err != nil {
		s.logger.Error("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("storage unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d users, %d boards, %d tasks)", stats.Users, stats.Boards, stats.Tasks)
}
