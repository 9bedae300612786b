// Package server exposes an Engine over HTTP.
//
//	GET  /api/search?t=notes&q=emacs&n=5
//	POST /api/regenerate?t=notes
//	GET  /api/status
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/registry"
)

// Service is the query surface served over HTTP. semindex.Engine satisfies it.
type Service interface {
	Search(ctx context.Context, tag, query string, n int) ([]core.SearchResult, error)
	Regenerate(ctx context.Context, tag string) (*core.Index, error)
	Status() []registry.SlotStatus
}

// New builds an http.Server for svc listening on addr. defaultResults is
// used when a search omits n.
func New(addr string, svc Service, defaultResults int, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	handlers := NewHandlers(svc, defaultResults, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", handlers.HandleSearch)
	mux.HandleFunc("GET /api/regenerate", handlers.HandleRegenerate)
	mux.HandleFunc("POST /api/regenerate", handlers.HandleRegenerate)
	mux.HandleFunc("GET /api/status", handlers.HandleStatus)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
