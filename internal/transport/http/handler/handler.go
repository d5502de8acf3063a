// Package handler composes the HTTP handlers of the relay.
package handler

import (
	"log/slog"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/metrics"
	"github.com/mandalnilabja/chatrelay/internal/provider"
	"github.com/mandalnilabja/chatrelay/internal/provider/openrouter"
	"github.com/mandalnilabja/chatrelay/internal/storage"
	"github.com/mandalnilabja/chatrelay/internal/tokenizer"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler/chat"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler/infra"
)

// Deps are the shared components the handlers are built from.
type Deps struct {
	Upstream    *openrouter.Client
	Credentials *provider.CredentialResolver
	Storage     storage.Storage
	Tokenizer   tokenizer.Tokenizer
	Metrics     *metrics.Collector
	Logger      *slog.Logger
}

// Repo composes all domain-specific handlers.
type Repo struct {
	Chat    *chat.Handlers
	Infra   *infra.Handlers
	Metrics *metrics.Collector
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(deps Deps) *Repo {
	return &Repo{
		Chat:    chat.New(deps.Upstream, deps.Credentials, deps.Storage, deps.Tokenizer, deps.Metrics, deps.Logger),
		Infra:   infra.New(time.Now()),
		Metrics: deps.Metrics,
	}
}
