package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, tokens TokenVerifier, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /sources", h.AddSource)
	mux.HandleFunc("GET /sources", h.ListSources)
	mux.HandleFunc("GET /sources/enabled", h.ListEnabledSources)
	mux.HandleFunc("PUT /sources/{id}", h.UpdateSource)
	mux.HandleFunc("DELETE /sources/{id}", h.DeleteSource)
	mux.HandleFunc("PUT /sources/{id}/enabled", h.ToggleSource)

	mux.HandleFunc("POST /search", h.Search)
	mux.HandleFunc("GET /search", h.SearchQuery)

	mux.HandleFunc("GET /me/role", h.CallerRole)
	mux.HandleFunc("GET /me/admin", h.CallerIsAdmin)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
		AuthMiddleware(tokens, logger),
	)

	return chain(mux)
}
