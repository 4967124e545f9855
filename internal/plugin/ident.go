package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
	"github.com/maelig/identibot/internal/identify"
)

// identPlugin runs the identification state machine shared by the plant and
// bird plugins: searchNextCandidate → resolveImage → callIdentification →
// classify → {replyPositive | handleNegative | rejectError}. The mention
// variants differ only in where the subject image lives.
type identPlugin struct {
	name        string
	questions   []string
	platform    Platform
	provider    identify.Provider
	outcome     *Outcome
	tags        string
	maxHoursOld int

	// mention: the candidate is a mention post and the subject image lives
	// on its parent. A mention without a usable parent is low-value spam:
	// the author is muted rather than retried.
	mention bool

	ready bool
}

func (p *identPlugin) Name() string {
	return p.name
}

func (p *identPlugin) Ready() bool {
	return p.ready
}

func (p *identPlugin) searchConfig(opts Options) SearchConfig {
	return SearchConfig{
		Questions:            p.questions,
		HasImages:            !p.mention,
		HasNoReply:           !p.mention,
		HasNoReplyFromBot:    true,
		IsNotMuted:           true,
		ThreadGetLimited:     true,
		MaxHoursOld:          p.maxHoursOld,
		Bookmark:             opts.Bookmark,
		DoSimulateSearch:     opts.DoSimulateSearch,
		SearchSimulationFile: opts.SearchSimulationFile,
	}
}

// Process runs one full identification attempt.
func (p *identPlugin) Process(ctx context.Context, opts Options) (domain.Envelope, error) {
	if !p.ready {
		return domain.Envelope{}, domain.ErrServiceUnavailable
	}

	candidate, err := NextCandidate(ctx, p.platform, p.searchConfig(opts))
	if err != nil {
		return domain.Envelope{}, domain.AsDomainError(err)
	}
	if candidate == nil {
		return domain.Notice(fmt.Sprintf("Aucun candidat pour %s", p.name)), nil
	}
	slog.Info("candidate selected", "plugin", p.name, "post", candidate.Text(), "info", candidate.Info())

	subject := candidate
	if p.mention {
		parent, err := p.parentOf(ctx, candidate, opts)
		if err != nil {
			return domain.Envelope{}, domain.NewInternalError(fmt.Sprintf("parent lookup: %v", err))
		}
		if parent == nil {
			p.muteSpam(ctx, candidate, "mention sans post parent", opts)
			return domain.Envelope{}, domain.NewNoticeError(
				fmt.Sprintf("La mention de @%s n'a pas de post parent à identifier", candidate.Author.Handle))
		}
		if !parent.HasImage() {
			p.muteSpam(ctx, candidate, "post parent sans image", opts)
			return domain.Envelope{}, domain.NewNoticeError(
				fmt.Sprintf("Le post parent de la mention de @%s ne contient pas d'image", candidate.Author.Handle))
		}
		subject = parent
	}

	image := subject.FirstImage()
	if image == nil {
		return domain.Notice(fmt.Sprintf("Le candidat de %s ne contient pas d'image", p.name)), nil
	}

	ident, err := p.provider.Identify(ctx, identify.Request{
		ImageURL:     image.Fullsize,
		DoSimulate:   opts.DoSimulate,
		SimulateCase: opts.SimulateIdentifyCase,
	})
	if err != nil {
		return domain.Envelope{}, domain.AsDomainError(err)
	}

	switch ident.Kind {
	case identify.OK:
		return p.outcome.HandlePositive(ctx, PositiveParams{
			Candidate: candidate,
			Ident:     ident,
			Tags:      p.tags,
		}, opts)
	default:
		return p.outcome.HandleNegative(ctx, NegativeParams{
			Candidate: candidate,
			Sentence:  p.negativeSentence(ident.Kind),
		}, opts)
	}
}

func (p *identPlugin) parentOf(ctx context.Context, candidate *domain.Post, opts Options) (*domain.Post, error) {
	if opts.DoSimulateSearch {
		return bluesky.FixtureParentOf(opts.SearchSimulationFile), nil
	}
	// A mention that is not itself a reply cannot have a parent; skip the
	// thread round trip.
	if !candidate.IsReply() {
		return nil, nil
	}
	return p.platform.GetParentPostOf(ctx, candidate.URI)
}

func (p *identPlugin) muteSpam(ctx context.Context, candidate *domain.Post, reason string, opts Options) {
	if opts.DoSimulate {
		return
	}
	p.platform.SafeMuteAuthor(ctx, candidate.Author, reason, p.name)
}

func (p *identPlugin) negativeSentence(kind identify.Kind) string {
	if kind == identify.None {
		return fmt.Sprintf("%s n'a trouvé aucune espèce sur cette image 🤷", p.provider.Name())
	}
	return fmt.Sprintf("%s n'a pas donné de résultat assez concluant 🤷 (score minimal %d%%)",
		p.provider.Name(), int(p.provider.MinScore()*100))
}
