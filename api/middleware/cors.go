package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/staffstore-backend/pkg/config"
)

// CORS applies the configured origin policy. With no origins configured every
// origin is allowed, matching the storefront's open default.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
	if cfg.AllowAll() {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = cfg.AllowedOrigins
		opts.AllowCredentials = true
	}
	return cors.New(opts).Handler
}
