package plugin

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/maelig/identibot/internal/domain"
)

const photoTags = "📷 #identibot #naturephoto"

// DailyPhoto boosts one recent nature photo per run with an appreciation
// reply. No identification call is involved: the point is keeping the bot
// account visible between identification runs.
type DailyPhoto struct {
	questions   []string
	platform    Platform
	outcome     *Outcome
	maxHoursOld int
	ready       bool
}

// DailyPhotoConfig wires the daily-photo plugin.
type DailyPhotoConfig struct {
	Questions   []string
	Platform    Platform
	MaxHoursOld int
}

// NewDailyPhoto creates the "DailyPhoto" plugin.
func NewDailyPhoto(cfg DailyPhotoConfig) *DailyPhoto {
	return &DailyPhoto{
		questions:   cfg.Questions,
		platform:    cfg.Platform,
		outcome:     NewOutcome(cfg.Platform),
		maxHoursOld: cfg.MaxHoursOld,
		ready:       len(cfg.Questions) > 0 && cfg.Platform != nil,
	}
}

// Name returns the plugin name.
func (p *DailyPhoto) Name() string {
	return "DailyPhoto"
}

// Ready reports whether the plugin verified its resources at construction.
func (p *DailyPhoto) Ready() bool {
	return p.ready
}

// Process finds a recent photoworthy post and replies with a compliment.
func (p *DailyPhoto) Process(ctx context.Context, opts Options) (domain.Envelope, error) {
	if !p.ready {
		return domain.Envelope{}, domain.ErrServiceUnavailable
	}

	candidate, err := NextCandidate(ctx, p.platform, SearchConfig{
		Questions:            p.questions,
		HasImages:            true,
		HasNoReplyFromBot:    true,
		IsNotMuted:           true,
		ThreadGetLimited:     true,
		MaxHoursOld:          p.maxHoursOld,
		Bookmark:             opts.Bookmark,
		DoSimulateSearch:     opts.DoSimulateSearch,
		SearchSimulationFile: opts.SearchSimulationFile,
	})
	if err != nil {
		return domain.Envelope{}, domain.AsDomainError(err)
	}
	if candidate == nil {
		return domain.Notice("Aucune photo à mettre en avant aujourd'hui"), nil
	}

	text := fmt.Sprintf("@%s : Superbe photo, merci pour le partage ! 🙏\n%s",
		candidate.Author.Handle, photoTags)
	if _, err := p.outcome.dispatch(ctx, candidate, text, opts, nil); err != nil {
		return domain.Envelope{}, err
	}

	env := domain.Envelope{
		Text: text,
		HTML: fmt.Sprintf(`<div class="outcome photo"><p>%s</p>%s</div>`,
			html.EscapeString("Photo du jour"), candidate.HTML()),
		Status: http.StatusOK,
	}
	if !opts.DoSimulate {
		env.PostCount = 1
	}
	return env, nil
}
