// Package httpserver exposes the hook, status, health, and metrics
// endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maelig/identibot/internal/config"
	"github.com/maelig/identibot/internal/db"
	"github.com/maelig/identibot/internal/domain"
	"github.com/maelig/identibot/internal/gate"
	"github.com/maelig/identibot/internal/metrics"
	"github.com/maelig/identibot/internal/news"
)

// PluginHeader carries the plugin name on hook calls.
const PluginHeader = "X-Identibot-Plugin"

// Server serves the bot's HTTP surface.
type Server struct {
	cfg        *config.Config
	gate       *gate.Gate
	news       *news.Buffer
	cache      *news.SummaryCache
	store      *db.Store
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates the HTTP server.
func NewServer(cfg *config.Config, g *gate.Gate, nb *news.Buffer, cache *news.SummaryCache, store *db.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		gate:   g,
		news:   nb,
		cache:  cache,
		store:  store,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/hook", s.handleHook)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHook triggers one plugin dispatch. The bearer token selects the
// execution mode: the real token runs live, the simulation token runs
// network-free against the fixtures.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	var doSimulate bool
	switch {
	case s.cfg.HookToken != "" && token == s.cfg.HookToken:
		doSimulate = false
	case s.cfg.HookSimulationToken != "" && token == s.cfg.HookSimulationToken:
		doSimulate = true
	default:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid token"})
		return
	}

	pluginName := r.Header.Get(PluginHeader)
	if pluginName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "missing " + PluginHeader + " header"})
		return
	}

	env, err := s.gate.Process(r.Context(), r.RemoteAddr, doSimulate, pluginName)
	if err != nil {
		derr := domain.AsDomainError(err)
		writeJSON(w, derr.Status, map[string]any{
			"status":         derr.Status,
			"message":        derr.Message,
			"text":           derr.Text,
			"mustBeReported": derr.MustBeReported,
		})
		return
	}

	writeJSON(w, env.Status, map[string]any{
		"status":    env.Status,
		"text":      env.Text,
		"postCount": env.PostCount,
	})
}

// handleStatus renders the recent news plus the cached summary.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary := s.cache.Get(func() string { return s.computeSummary(r.Context()) })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "<html><head><title>identibot</title></head><body>")
	fmt.Fprintf(w, "<h1>identibot</h1><section class=\"summary\">%s</section>", summary)
	fmt.Fprintf(w, "<section class=\"news\"><h2>Dernières actualités</h2>")
	for _, item := range s.news.Items() {
		fmt.Fprint(w, item)
	}
	fmt.Fprintf(w, "</section></body></html>")
}

func (s *Server) computeSummary(ctx context.Context) string {
	entries, err := s.store.Recent(ctx, 10)
	if err != nil {
		s.logger.Error("summary computation failed", "error", err)
		return "<p>résumé indisponible</p>"
	}
	return fmt.Sprintf("<p>%d actualité(s) récentes, %d incident(s) au journal</p>",
		s.news.Len(), len(entries))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("write response failed", "error", err)
	}
}

// withLogging wraps a handler with request logging.
func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}
