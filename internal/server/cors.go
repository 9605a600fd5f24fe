package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsAllowMethods  = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsAllowHeaders  = []string{"Authorization", "Content-Type", "Mcp-Session-Id"}
	corsExposeHeaders = []string{"Content-Disposition", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
)

// corsMiddleware allows the configured origins. Entries may be exact origins, "*", or
// one-wildcard patterns such as "https://*.onrender.com".
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   corsAllowMethods,
		AllowedHeaders:   corsAllowHeaders,
		ExposedHeaders:   corsExposeHeaders,
		AllowCredentials: true,
		MaxAge:           600,
	})
}
