package plugin

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
)

// defaultAuditRetention bounds the audit log: incidents older than this
// are purged on each housekeeping run.
const defaultAuditRetention = 30 * 24 * time.Hour

// MuteManager is the mute-list collaborator of the housekeeping plugin.
type MuteManager interface {
	GetMutes(ctx context.Context) ([]bluesky.MutedEntry, error)
	SafeUnmute(ctx context.Context, entry bluesky.MutedEntry, origin string)
}

// NewsDrainer is the notify-and-clear view of the news buffer.
type NewsDrainer interface {
	Items() []string
	Clear()
}

// AuditPurger is the retention view of the audit store.
type AuditPurger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Housekeeping drains the news buffer, trims the audit log to the
// retention window, and releases muted authors. Mutes in this system are
// throttles on low-value mention spam, not bans, so each run gives
// everyone another chance.
type Housekeeping struct {
	mutes     MuteManager
	news      NewsDrainer
	audit     AuditPurger
	retention time.Duration
	ready     bool
}

// HousekeepingConfig wires the housekeeping plugin.
type HousekeepingConfig struct {
	Mutes MuteManager
	News  NewsDrainer
	Audit AuditPurger

	// Retention is the audit-log age cutoff; zero means the default.
	Retention time.Duration
}

// NewHousekeeping creates the "Housekeeping" plugin.
func NewHousekeeping(cfg HousekeepingConfig) *Housekeeping {
	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultAuditRetention
	}
	return &Housekeeping{
		mutes:     cfg.Mutes,
		news:      cfg.News,
		audit:     cfg.Audit,
		retention: retention,
		ready:     cfg.Mutes != nil && cfg.News != nil && cfg.Audit != nil,
	}
}

// Name returns the plugin name.
func (p *Housekeeping) Name() string {
	return "Housekeeping"
}

// Ready reports whether the plugin verified its resources at construction.
func (p *Housekeeping) Ready() bool {
	return p.ready
}

// Process unmutes every currently muted author, clears the news buffer,
// and purges audit entries past the retention window, reporting what it
// did as a news-only envelope.
func (p *Housekeeping) Process(ctx context.Context, opts Options) (domain.Envelope, error) {
	if !p.ready {
		return domain.Envelope{}, domain.ErrServiceUnavailable
	}

	unmuted := 0
	entries, err := p.mutes.GetMutes(ctx)
	if err != nil {
		return domain.Envelope{}, domain.NewInternalError(fmt.Sprintf("get mutes: %v", err))
	}
	for _, entry := range entries {
		if opts.DoSimulate {
			continue
		}
		p.mutes.SafeUnmute(ctx, entry, "housekeeping")
		unmuted++
	}

	drained := len(p.news.Items())
	if !opts.DoSimulate {
		p.news.Clear()
	}

	var purged int64
	if !opts.DoSimulate {
		purged, err = p.audit.Purge(ctx, time.Now().UTC().Add(-p.retention))
		if err != nil {
			return domain.Envelope{}, domain.NewInternalError(fmt.Sprintf("purge audit log: %v", err))
		}
	}

	text := fmt.Sprintf("Entretien terminé : %d compte(s) réactivé(s), %d actualité(s) archivée(s), %d incident(s) purgé(s)",
		unmuted, drained, purged)
	return domain.Envelope{
		Text:   text,
		HTML:   fmt.Sprintf(`<p class="housekeeping">%s</p>`, html.EscapeString(text)),
		Status: http.StatusOK,
	}, nil
}
