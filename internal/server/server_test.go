// ABOUTME: Tests for server assembly, health endpoints and lifecycle
// ABOUTME: Uses real file and sqlite backends under t.TempDir

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data.json")
	cfg.Auth.JWTSecret = "server-tests-secret-of-32-bytes!"
	cfg.Auth.BcryptCost = 4
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReady(t *testing.T) {
	cfg := testConfig(t)
	s := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready (0 users, 0 boards, 0 tasks)", rec.Body.String())

	_, err := os.Stat(cfg.Storage.Path)
	assert.NoError(t, err, "readiness check creates the document")
}

func TestReady_StorageDown(t *testing.T) {
	backend := store.NewMemoryStore()
	backend.LoadErr = store.ErrStorageUnavailable

	s, err := NewWithBackend(testConfig(t), backend, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNew_BadSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, testLogger())
	assert.Error(t, err)
}

func TestNew_UnavailableStorage(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	cfg.Storage.Path = filepath.Join(blocker, "data.json")

	_, err := New(cfg, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)
}

func TestOpenBackend_Drivers(t *testing.T) {
	cfg := testConfig(t)

	b, err := OpenBackend(cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, b)
	require.NoError(t, b.Close())

	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data.db")
	b, err = OpenBackend(cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, b)
	require.NoError(t, b.Close())
}

func TestServer_EndToEndWithMirror(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.MirrorPath = filepath.Join(t.TempDir(), "mirror", "data.json")
	cfg.Storage.ValidateOnLoad = true

	s := newTestServer(t, cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp := postJSON(t, ts.URL+"/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))

	resp = postJSON(t, ts.URL+"/api/boards", auth.Token, map[string]string{"name": "Work"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	primary, err := os.ReadFile(cfg.Storage.Path)
	require.NoError(t, err)
	mirror, err := os.ReadFile(cfg.Storage.MirrorPath)
	require.NoError(t, err)
	assert.Equal(t, primary, mirror)
	assert.NoError(t, store.ValidateDocument(primary))
}

func TestServer_SQLiteEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data.db")

	s := newTestServer(t, cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp := postJSON(t, ts.URL+"/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	s, err := New(testConfig(t), testLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
