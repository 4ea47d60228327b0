package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LiveHandler reports that the process is serving requests.
func LiveHandler(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports whether ping succeeds within two seconds.
func ReadyHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			writeErrorCode(w, http.StatusServiceUnavailable, "database_unavailable", "database is not reachable")
			return
		}
		writeData(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// SPAHandler serves files from dir and falls back to index.html for paths
// that do not name a file, so client-side routes resolve.
func SPAHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeErrorCode(w, http.StatusNotFound, "not_found", "no such endpoint")
			return
		}
		http.ServeFile(w, r, index)
	})
}
