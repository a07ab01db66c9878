package router

import (
	"mime"
	"net/http"
)

// requireJSON rejects API writes that carry a body in anything but JSON.
// Bodyless POSTs (advance, retreat, submit) pass through.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = w.Write([]byte(`{"error":"content type must be application/json"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
