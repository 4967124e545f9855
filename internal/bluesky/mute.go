package bluesky

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maelig/identibot/internal/domain"
)

// MutedEntry is one account on the bot's mute list.
type MutedEntry struct {
	DID         string
	Handle      string
	DisplayName string
}

type muteActorRequest struct {
	Actor string `json:"actor"`
}

// SafeMuteAuthor mutes the author of a low-value candidate. Best effort:
// failures are logged and never propagated, a missed mute only means one
// more spam candidate later.
func (c *Client) SafeMuteAuthor(ctx context.Context, author domain.Author, reason, origin string) {
	if err := c.authenticate(ctx); err != nil {
		slog.Warn("mute skipped, authentication failed", "handle", author.Handle, "error", err)
		return
	}

	err := c.post(ctx, "/xrpc/app.bsky.graph.muteActor", muteActorRequest{Actor: author.DID}, nil)
	if err != nil {
		slog.Warn("mute failed", "handle", author.Handle, "error", err)
		return
	}
	slog.Info("author muted", "handle", author.Handle, "reason", reason, "origin", origin)
}

// SafeUnmute removes an account from the mute list. Best effort.
func (c *Client) SafeUnmute(ctx context.Context, entry MutedEntry, origin string) {
	if err := c.authenticate(ctx); err != nil {
		slog.Warn("unmute skipped, authentication failed", "handle", entry.Handle, "error", err)
		return
	}

	err := c.post(ctx, "/xrpc/app.bsky.graph.unmuteActor", muteActorRequest{Actor: entry.DID}, nil)
	if err != nil {
		slog.Warn("unmute failed", "handle", entry.Handle, "error", err)
		return
	}
	slog.Info("author unmuted", "handle", entry.Handle, "origin", origin)
}

type getMutesResponse struct {
	Mutes []actorView `json:"mutes"`
}

// GetMutes returns the bot's current mute list.
func (c *Client) GetMutes(ctx context.Context) ([]MutedEntry, error) {
	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	q := url.Values{}
	q.Set("limit", "100")

	var resp getMutesResponse
	if err := c.get(ctx, "/xrpc/app.bsky.graph.getMutes", q, &resp); err != nil {
		return nil, fmt.Errorf("get mutes: %w", err)
	}

	entries := make([]MutedEntry, 0, len(resp.Mutes))
	for _, m := range resp.Mutes {
		entries = append(entries, MutedEntry{
			DID:         m.DID,
			Handle:      m.Handle,
			DisplayName: m.DisplayName,
		})
	}
	return entries, nil
}

// ShortenURL asks TinyURL for a short form of rawURL, used when an image
// embed fails and the reply falls back to a link. Best effort with its own
// short timeout; the original URL comes back on any failure.
func ShortenURL(ctx context.Context, rawURL string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	endpoint := "https://tinyurl.com/api-create.php?url=" + url.QueryEscape(rawURL)
	short, err := fetchText(ctx, endpoint)
	if err != nil || short == "" {
		slog.Debug("url shortening failed, using original", "url", rawURL, "error", err)
		return rawURL
	}
	return short
}
