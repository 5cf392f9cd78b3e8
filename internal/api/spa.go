package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// assetsPrefix holds fingerprinted build output that can be cached forever.
const assetsPrefix = "assets/"

// WithSPA serves the web client from webDir and forwards /api/ to apiHandler.
// Paths that do not name a file fall back to index.html for client-side routing.
func WithSPA(apiHandler http.Handler, webDir string) http.Handler {
	files := http.FileServer(http.Dir(webDir))
	indexPath := filepath.Join(webDir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apiHandler.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if rel == "" || rel == "." {
			serveIndex(w, r, indexPath)
			return
		}

		info, err := os.Stat(filepath.Join(webDir, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			serveIndex(w, r, indexPath)
			return
		}
		if strings.HasPrefix(rel, assetsPrefix) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-store")
		}
		files.ServeHTTP(w, r)
	})
}

func serveIndex(w http.ResponseWriter, r *http.Request, indexPath string) {
	if _, err := os.Stat(indexPath); err != nil {
		http.Error(w, "index.html not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, indexPath)
}
