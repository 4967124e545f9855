package plugin

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
	"github.com/maelig/identibot/internal/identify"
)

// Outcome resolves a classified identification into a reply, an optional
// mute, and the text + HTML renderings every plugin returns.
type Outcome struct {
	poster Poster
}

// NewOutcome creates the shared outcome handler.
func NewOutcome(p Poster) *Outcome {
	return &Outcome{poster: p}
}

// NegativeParams describes a negative identification resolution.
type NegativeParams struct {
	Candidate  *domain.Post // reply target; nil produces a news-only message
	Sentence   string       // localized negative-result sentence
	MuteAuthor bool
	MuteReason string
}

// HandleNegative resolves a BAD_SCORE/NONE outcome. A reply is still sent
// when a reply target exists; otherwise only a news message is produced.
// The rendering depends only on the inputs, so repeated calls with the same
// params are byte-identical.
func (o *Outcome) HandleNegative(ctx context.Context, params NegativeParams, opts Options) (domain.Envelope, error) {
	if params.Candidate == nil {
		return domain.Notice(params.Sentence), nil
	}

	if params.MuteAuthor && !opts.DoSimulate {
		o.poster.SafeMuteAuthor(ctx, params.Candidate.Author, params.MuteReason, "negative identification")
	}

	text := fmt.Sprintf("@%s : %s", params.Candidate.Author.Handle, params.Sentence)
	if _, err := o.dispatch(ctx, params.Candidate, text, opts, nil); err != nil {
		return domain.Envelope{}, err
	}

	env := domain.Envelope{
		Text: text,
		HTML: fmt.Sprintf(`<div class="outcome negative"><p>%s</p>%s</div>`,
			html.EscapeString(params.Sentence), params.Candidate.HTML()),
		Status: http.StatusAccepted,
	}
	if !opts.DoSimulate {
		env.PostCount = 1
	}
	return env, nil
}

// PositiveParams describes a positive identification resolution.
type PositiveParams struct {
	Candidate *domain.Post
	Ident     identify.Identification
	Tags      string
}

// HandlePositive replies with the scored result plus the plugin tags. An
// illustrative image is embedded when the blob upload succeeds; on failure
// the reply falls back to a shortened link.
func (o *Outcome) HandlePositive(ctx context.Context, params PositiveParams, opts Options) (domain.Envelope, error) {
	text := fmt.Sprintf("@%s : %s", params.Candidate.Author.Handle, params.Ident.ScoredResult)
	if params.Tags != "" {
		text += "\n" + params.Tags
	}

	var embed *bluesky.ImageEmbed
	if ill := params.Ident.Illustration; ill != nil && !opts.DoSimulate {
		var err error
		embed, err = o.poster.UploadImage(ctx, ill.URL, ill.Caption)
		if err != nil {
			slog.Warn("image embed failed, falling back to link", "url", ill.URL, "error", err)
			embed = nil
			short := bluesky.ShortenURL(ctx, ill.URL)
			if utf8.RuneCountInString(text)+1+utf8.RuneCountInString(short) <= bluesky.MaxPostLength {
				text += "\n" + short
			}
		}
	}

	text = fitReply(text)
	if _, err := o.dispatch(ctx, params.Candidate, text, opts, embed); err != nil {
		return domain.Envelope{}, err
	}

	env := domain.Envelope{
		Text: text,
		HTML: fmt.Sprintf(`<div class="outcome positive"><p>%s</p>%s</div>`,
			html.EscapeString(params.Ident.ScoredResult), params.Candidate.HTML()),
		Status: http.StatusOK,
	}
	if !opts.DoSimulate {
		env.PostCount = 1
	}
	return env, nil
}

// dispatch sends the reply and folds any failure into the error taxonomy:
// upstream 404/408/503 keep their status unreported, everything else is a
// reportable 500.
func (o *Outcome) dispatch(ctx context.Context, target *domain.Post, text string, opts Options, embed *bluesky.ImageEmbed) (*bluesky.ReplyRef, error) {
	ref, err := o.poster.ReplyTo(ctx, target, text, opts.DoSimulate, embed)
	if err == nil {
		return ref, nil
	}

	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return nil, derr
	}
	var apiErr *bluesky.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound, http.StatusRequestTimeout, http.StatusServiceUnavailable:
			return nil, domain.NewTransientError(apiErr.Status, fmt.Sprintf("reply dispatch: %s", apiErr.Body))
		}
	}
	return nil, domain.NewInternalError(fmt.Sprintf("reply dispatch: %v", err))
}

// fitReply trims a reply to the platform ceiling at a rune boundary.
func fitReply(text string) string {
	if utf8.RuneCountInString(text) <= bluesky.MaxPostLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:bluesky.MaxPostLength-1]) + "…"
}
