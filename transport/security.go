package transport

import "net/http"

// SecurityHeaders wraps an http.Handler with the two headers that
// matter for a JSON long-polling endpoint: nosniff (the body is always
// application/json, never meant to be sniffed as HTML) and a no-store
// cache directive (every response is session-specific and must never
// be cached by an intermediary). Adapted down from the host
// application's full security-header middleware, which also covers
// HTML-serving concerns (CSP, frame options, HSTS) that don't apply to
// this endpoint.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
