package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/diseasepredict/diseasepredict/server/internal/config"
)

// CORS applies the configured cross-origin policy. Preflight requests are
// answered here with 204 and never reach the API handler.
//
// Browsers reject a literal "*" origin on credentialed responses, so when
// any origin is allowed together with credentials the request Origin is
// reflected instead.
func CORS(cfg config.CORSConfig) Middleware {
	opts := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           int(cfg.MaxAge.Seconds()),
	}
	if cfg.AllowsAnyOrigin() && cfg.AllowCredentials {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.AllowedOrigins
	}
	c := cors.New(opts)
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
