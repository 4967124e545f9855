package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maelig/identibot/internal/config"
	"github.com/maelig/identibot/internal/db"
	"github.com/maelig/identibot/internal/domain"
	"github.com/maelig/identibot/internal/gate"
	"github.com/maelig/identibot/internal/news"
	"github.com/maelig/identibot/internal/plugin"
)

type staticPlugin struct {
	calls []plugin.Options
}

func (p *staticPlugin) Name() string { return "Plantnet" }
func (p *staticPlugin) Ready() bool  { return true }

func (p *staticPlugin) Process(_ context.Context, opts plugin.Options) (domain.Envelope, error) {
	p.calls = append(p.calls, opts)
	return domain.Envelope{Text: "done", HTML: "<p>done</p>", Status: http.StatusOK, PostCount: 1}, nil
}

func newTestServer(t *testing.T) (*Server, *staticPlugin) {
	t.Helper()

	cfg := &config.Config{
		Port:                8080,
		HookToken:           "live-token",
		HookSimulationToken: "simulation-token",
	}

	p := &staticPlugin{}
	registry := plugin.NewRegistry()
	registry.Register(p)

	store, err := db.NewStore(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	buffer := news.NewBuffer(10)
	cache := news.NewSummaryCache(time.Minute)
	g := gate.New(gate.Config{
		Registry: registry,
		News:     buffer,
		Cache:    cache,
		Audit:    store,
	})

	return NewServer(cfg, g, buffer, cache, store, slog.Default()), p
}

func hookRequest(token, pluginName string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/hook", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if pluginName != "" {
		req.Header.Set(PluginHeader, pluginName)
	}
	return req
}

func TestHook_LiveTokenRunsLive(t *testing.T) {
	s, p := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, hookRequest("live-token", "Plantnet"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.calls, 1)
	assert.False(t, p.calls[0].DoSimulate)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "done", body["text"])
	assert.EqualValues(t, 1, body["postCount"])
}

func TestHook_SimulationTokenRunsSimulated(t *testing.T) {
	s, p := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, hookRequest("simulation-token", "Plantnet"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.calls, 1)
	assert.True(t, p.calls[0].DoSimulate)
}

func TestHook_BadTokenIsUnauthorized(t *testing.T) {
	s, p := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, hookRequest("wrong", "Plantnet"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, p.calls)
}

func TestHook_MissingTokenIsUnauthorized(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, hookRequest("", "Plantnet"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHook_MissingPluginHeaderIsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, hookRequest("live-token", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHook_UnknownPluginMapsGateError(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, hookRequest("live-token", "Nonexistent"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["mustBeReported"])
}

func TestStatus_RendersSummaryAndNews(t *testing.T) {
	s, _ := newTestServer(t)
	s.news.Add("<p>une actualité</p>")

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "une actualité")
	assert.Contains(t, rec.Body.String(), "incident(s) au journal")
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
