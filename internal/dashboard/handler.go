package dashboard

import (
	"io/fs"
	"net/http"
	"strings"
)

// reservedPrefixes are never served by the SPA catch-all.
var reservedPrefixes = []string{"/api/", "/swagger/"}

// reservedPaths are exact paths owned by the server, not the SPA.
var reservedPaths = []string{"/healthz", "/readyz", "/metrics"}

// Handler serves the built dashboard SPA. Requests that match neither a
// static asset nor a reserved server path fall back to index.html so
// the client-side router can take over.
func Handler() http.Handler {
	if distFS == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "dashboard not available (dev mode)", http.StatusNotFound)
		})
	}

	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("dashboard: failed to create sub filesystem: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reserved(r.URL.Path) {
			http.NotFound(w, r)
			return
		}

		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}

		if f, err := subFS.Open(strings.TrimPrefix(path, "/")); err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}

		// Unknown path: hand index.html to the client-side router.
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}

func reserved(path string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, p := range reservedPaths {
		if path == p {
			return true
		}
	}
	return false
}
