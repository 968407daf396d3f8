// Package middleware holds the HTTP middleware the API server composes
// around its routes.
package middleware

import "net/http"

// CORS allows cross-origin requests so a locally served frontend can call
// the API. The server has no authentication layer, so a permissive policy
// leaks nothing beyond what the API already serves.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
