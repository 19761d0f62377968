// ABOUTME: JSON HTTP API for registration, login, boards and tasks.
// ABOUTME: Wires the repository, credential service and auth gate into a single handler.

package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/idempotency"
	"github.com/2389/taskboard/internal/repository"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Deps are the collaborators the API needs. Repo, Hasher and Tokens are required.
type Deps struct {
	Repo   *repository.Repository
	Hasher *auth.PasswordHasher
	Tokens *auth.TokenService

	// Optional
	Idempotency    *idempotency.Cache
	LoginLimiter   *auth.Limiter
	AllowedOrigins []string
	Debug          bool
	Logger         *slog.Logger
	NewID          func() string
}

// API serves the /api routes.
type API struct {
	repo     *repository.Repository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	idem     *idempotency.Cache
	limiter  *auth.Limiter
	origins  []string
	debug    bool
	logger   *slog.Logger
	newID    func() string
	markdown goldmark.Markdown

	// registerMu makes the email uniqueness check and insert atomic.
	registerMu sync.Mutex
}

// New creates the API from its dependencies.
func New(d Deps) *API {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := d.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &API{
		repo:     d.Repo,
		hasher:   d.Hasher,
		tokens:   d.Tokens,
		idem:     d.Idempotency,
		limiter:  d.LoginLimiter,
		origins:  d.AllowedOrigins,
		debug:    d.Debug,
		logger:   logger.With("component", "api"),
		newID:    newID,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Handler returns the routed API wrapped in CORS, body limit and request logging.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	throttled := func(h http.HandlerFunc) http.Handler {
		if a.limiter == nil {
			return h
		}
		return a.limiter.Middleware(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(a.tokens, a.logger)(h)
	}

	mux.Handle("POST /api/auth/register", throttled(a.handleRegister))
	mux.Handle("POST /api/auth/login", throttled(a.handleLogin))

	mux.Handle("GET /api/boards", protected(a.handleListBoards))
	mux.Handle("POST /api/boards", protected(a.handleCreateBoard))
	mux.Handle("PUT /api/boards", protected(a.handleUpdateBoard))
	mux.Handle("DELETE /api/boards", protected(a.handleDeleteBoard))

	mux.Handle("GET /api/tasks", protected(a.handleListTasks))
	mux.Handle("POST /api/tasks", protected(a.handleCreateTask))
	mux.Handle("PUT /api/tasks", protected(a.handleUpdateTask))
	mux.Handle("DELETE /api/tasks", protected(a.handleDeleteTask))

	if a.debug {
		mux.Handle("GET /api/debug", protected(a.handleDebug))
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	var h http.Handler = mux
	h = limitBody(h)
	h = CORS(a.origins)(h)
	h = logRequests(a.logger, h)
	return h
}
