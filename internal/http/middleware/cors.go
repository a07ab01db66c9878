package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS allows cross-origin calls to the JSON API from allowedOrigins. "*"
// allows any origin. With no origins configured no CORS headers are sent.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	var origins []string
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:       []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:       []string{"X-Request-Id"},
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	})
}
