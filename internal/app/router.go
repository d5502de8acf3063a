package app

import (
	"log/slog"
	"net/http"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/chatrelay/internal/storage"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger      *slog.Logger
	Storage     storage.Storage
	APIKeyCache *ristretto.Cache[string, *auth.CachedAPIKey]
	Limiter     *ratelimit.Limiter
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	if repo.Metrics != nil {
		mux.Handle("GET /metrics", repo.Metrics.Handler())
	}

	// Chat route: client key identifies the profile, then per-key rate limit.
	// Buckets of keys found revoked are dropped.
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New()
	}
	chat := auth.APIKeyAuth(opts.Storage, opts.APIKeyCache, limiter.Forget)(
		ratelimit.Middleware(limiter)(http.HandlerFunc(repo.Chat.ChatProxy)),
	)
	mux.Handle("POST /api/chat/openrouter", chat)

	mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	if opts.Logger != nil {
		h = middleware.Recover(opts.Logger)(h)
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	// Request ID (always applied)
	h = middleware.RequestID(h)

	// CORS (always applied for browser front ends)
	h = middleware.CORS(h)

	return h
}
