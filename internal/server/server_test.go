package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/precast-yard/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := *config.Default()
	cfg.Version = "test"
	cfg.DataDir = t.TempDir()
	cfg.ModelPath = filepath.Join(cfg.DataDir, "models", "precast.gob")
	cfg.Training.Samples = 200
	cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	return cfg
}

func TestServerRoutes(t *testing.T) {
	srv, err := New(testConfig(t))
	require.NoError(t, err)
	defer srv.Stop()

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv, err := New(testConfig(t))
	require.NoError(t, err)
	defer srv.Stop()

	req := httptest.NewRequest("GET", "/api/precast/signals", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	srv, err := New(testConfig(t))
	require.NoError(t, err)
	defer srv.Stop()

	preflight := httptest.NewRequest(http.MethodOptions, "/api/precast/evaluate", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, preflight)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")

	other := httptest.NewRequest("GET", "/api/health", nil)
	other.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWarmSavesAndReloads(t *testing.T) {
	cfg := testConfig(t)

	srv, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Warm(context.Background()))
	id := srv.Simulator().Report().ID
	require.NoError(t, srv.Stop())

	// a second server picks up the saved model instead of training
	again, err := New(cfg)
	require.NoError(t, err)
	defer again.Stop()
	require.True(t, again.Simulator().IsTrained())
	assert.Equal(t, id, again.Simulator().Report().ID)

	req := httptest.NewRequest("GET", "/api/precast/runs", nil)
	w := httptest.NewRecorder()
	again.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)
}
