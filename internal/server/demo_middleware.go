package server

import "net/http"

// DemoMiddleware makes the whole API read-only for public demo deployments.
// GET, HEAD, and OPTIONS pass through; every mutating method gets a 405
// problem response so demo visitors cannot alter the seeded data.
func DemoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			writeProblem(w, http.StatusMethodNotAllowed, "method-not-allowed",
				"Method Not Allowed", "demo mode: read-only access", r.URL.Path)
		}
	})
}
