package internal

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/testutil"
)

func testRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	st := testutil.TestStore(t)
	svc := newServices(cfg, st, slog.Default(), nil)
	return newRouter(cfg, svc, st, nil)
}

func get(h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	cfg := NewDefaultConfig()
	h := testRouter(t, cfg)

	for _, path := range []string{"/health/live", "/health/ready"} {
		if w := get(h, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s = %d, body = %s", path, w.Code, w.Body.String())
		}
	}

	// Generate one API request so the counters have a sample.
	if w := get(h, "/api/tags", map[string]string{"X-Client-Id": "1"}); w.Code != http.StatusOK {
		t.Fatalf("/api/tags = %d, body = %s", w.Code, w.Body.String())
	}
	w := get(h, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "plugconversa_http_requests_total") {
		t.Errorf("/metrics = %d", w.Code)
	}
}

func TestRouter_AuthAndStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	cfg.Metrics.Enabled = false
	cfg.App.StaticDir = dir
	h := testRouter(t, cfg)

	if w := get(h, "/api/contacts", map[string]string{"X-Client-Id": "1"}); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d", w.Code)
	}
	w := get(h, "/api/contacts", map[string]string{"X-Client-Id": "1", "Authorization": "Bearer s3cret"})
	if w.Code != http.StatusOK {
		t.Errorf("with token = %d, body = %s", w.Code, w.Body.String())
	}
	// Health stays public.
	if w := get(h, "/health/live", nil); w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}
	if w := get(h, "/metrics", nil); w.Code == http.StatusOK && strings.Contains(w.Body.String(), "# HELP") {
		t.Error("metrics served while disabled")
	}
	w = get(h, "/kanban", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "spa") {
		t.Errorf("spa fallback = %d, body = %q", w.Code, w.Body.String())
	}
}

func TestReloadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	level := new(slog.LevelVar)

	if err := os.WriteFile(path, []byte("app:\n  log_level: debug\n  http:\n    port: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reloadLogLevel(slog.Default(), path, level)
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}

	// An invalid file keeps the current level.
	if err := os.WriteFile(path, []byte("app:\n  log_level: error\n  http:\n    port: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reloadLogLevel(slog.Default(), path, level)
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug after invalid reload", level.Level())
	}
}
