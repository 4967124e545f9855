// Package gate is the single entry point for plugin invocations: it
// rate-limits dispatches, resolves the plugin by name, and records every
// outcome into the news feed and the audit log.
package gate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/maelig/identibot/internal/db"
	"github.com/maelig/identibot/internal/domain"
	"github.com/maelig/identibot/internal/metrics"
	"github.com/maelig/identibot/internal/news"
	"github.com/maelig/identibot/internal/plugin"
)

// AuditSink receives reportable failures.
type AuditSink interface {
	Append(ctx context.Context, entry db.AuditEntry) error
}

// Gate dispatches plugin runs behind a global cooldown. The cooldown is
// shared across plugins: it protects the single bot account from
// overposting, whichever plugin is asking. Limiter.Allow is an atomic
// check-and-consume, so concurrent hook calls cannot both pass.
type Gate struct {
	limiter  *rate.Limiter
	registry *plugin.Registry
	news     *news.Buffer
	cache    *news.SummaryCache
	audit    AuditSink
	logger   *slog.Logger
}

// Config wires a gate.
type Config struct {
	MinInterval time.Duration
	Registry    *plugin.Registry
	News        *news.Buffer
	Cache       *news.SummaryCache
	Audit       AuditSink
	Logger      *slog.Logger
}

// New creates a gate with a cooldown of one dispatch per MinInterval.
func New(cfg Config) *Gate {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		registry: cfg.Registry,
		news:     cfg.News,
		cache:    cfg.Cache,
		audit:    cfg.Audit,
		logger:   logger,
	}
}

// Process runs the named plugin once. Rejections at the gate itself
// (cooldown, unknown or unready plugin) are caller misuse: they carry fixed
// messages and bypass the audit log. Plugin errors propagate unchanged,
// with reportable ones appended to the audit log with their context.
func (g *Gate) Process(ctx context.Context, remoteAddr string, doSimulate bool, pluginName string) (domain.Envelope, error) {
	if !g.limiter.Allow() {
		metrics.CooldownRejections.Inc()
		g.logger.Info("dispatch rejected by cooldown", "remote", remoteAddr, "plugin", pluginName)
		return domain.Envelope{}, domain.ErrTooManyRequests
	}

	p, ok := g.registry.Get(pluginName)
	if !ok || !p.Ready() {
		g.logger.Info("plugin unavailable", "remote", remoteAddr, "plugin", pluginName, "registered", ok)
		return domain.Envelope{}, domain.ErrServiceUnavailable
	}

	start := time.Now()
	opts := plugin.Options{DoSimulate: doSimulate, DoSimulateSearch: doSimulate}
	if doSimulate {
		opts.SearchSimulationFile = defaultFixture(pluginName)
		opts.SimulateIdentifyCase = "GoodScoreImages"
	}

	env, err := p.Process(ctx, opts)
	metrics.ObservePluginDuration(pluginName, start)

	if err != nil {
		derr := domain.AsDomainError(err)
		g.news.Add(derr.HTML)
		metrics.Dispatches.WithLabelValues(pluginName, "error").Inc()

		if derr.MustBeReported {
			g.logger.Error("plugin failed", "remote", remoteAddr, "plugin", pluginName, "status", derr.Status, "message", derr.Message)
			if auditErr := g.audit.Append(ctx, db.AuditEntry{
				RemoteAddr: remoteAddr,
				Plugin:     pluginName,
				Message:    derr.Message,
			}); auditErr != nil {
				g.logger.Error("audit append failed", "error", auditErr)
			}
		} else {
			g.logger.Info("plugin rejected", "remote", remoteAddr, "plugin", pluginName, "status", derr.Status, "message", derr.Message)
		}
		return domain.Envelope{}, derr
	}

	g.news.Add(env.HTML)
	metrics.Dispatches.WithLabelValues(pluginName, "ok").Inc()
	if env.PostCount > 0 {
		metrics.RepliesPosted.Add(float64(env.PostCount))
		g.cache.Invalidate()
	}

	g.logger.Info("dispatch complete",
		"remote", remoteAddr,
		"plugin", pluginName,
		"status", env.Status,
		"posts", env.PostCount,
	)
	return env, nil
}

// defaultFixture maps a plugin to the search fixture used when the hook
// asks for a simulated run.
func defaultFixture(pluginName string) string {
	switch pluginName {
	case "Plantnet":
		return "blueskyPostFakeFlower"
	case "AskPlantnet":
		return "blueskyPostFakeFlowerMention"
	case "Bird":
		return "blueskyPostBird"
	case "AskBird":
		return "blueskyPostBirdMention"
	case "DailyPhoto":
		return "blueskyPostNaturePhoto"
	default:
		return ""
	}
}
