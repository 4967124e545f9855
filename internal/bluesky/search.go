package bluesky

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/maelig/identibot/internal/domain"
)

// threadGetBudget caps per-search thread lookups when ThreadGetLimited is
// set, so one search never fans out into unbounded round trips.
const threadGetBudget = 5

// SearchParams drives one post search. Flags the search API does not take
// are applied client-side after the call.
type SearchParams struct {
	Query             string
	HasImages         bool
	HasNoReply        bool
	HasNoReplyFromBot bool
	IsNotMuted        bool
	ThreadGetLimited  bool
	MaxHoursOld       int
	Limit             int
}

// searchPostsResponse is the app.bsky.feed.searchPosts payload.
type searchPostsResponse struct {
	Posts []postView `json:"posts"`
}

// SearchPosts runs a search and returns eligible posts, newest first.
// Posts whose author disabled replies are always dropped.
func (c *Client) SearchPosts(ctx context.Context, params SearchParams) ([]domain.Post, error) {
	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 25
	}

	q := url.Values{}
	q.Set("q", params.Query)
	q.Set("sort", "latest")
	q.Set("limit", strconv.Itoa(limit))
	if params.MaxHoursOld > 0 {
		since := time.Now().UTC().Add(-time.Duration(params.MaxHoursOld) * time.Hour)
		q.Set("since", since.Format(time.RFC3339))
	}

	var resp searchPostsResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.searchPosts", q, &resp); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	threadGets := 0
	var posts []domain.Post
	for _, pv := range resp.Posts {
		post := pv.toDomain()
		if !c.eligible(ctx, &post, params, &threadGets) {
			continue
		}
		posts = append(posts, post)
	}

	slog.Debug("search complete",
		"query", params.Query,
		"returned", len(resp.Posts),
		"eligible", len(posts),
	)
	return posts, nil
}

func (c *Client) eligible(ctx context.Context, post *domain.Post, params SearchParams, threadGets *int) bool {
	if post.ReplyDisabled {
		return false
	}
	if params.HasImages && !post.HasImage() {
		return false
	}
	if params.IsNotMuted && post.Author.Muted {
		return false
	}
	if params.HasNoReply && post.ReplyCount > 0 {
		return false
	}
	if params.MaxHoursOld > 0 {
		cutoff := time.Now().UTC().Add(-time.Duration(params.MaxHoursOld) * time.Hour)
		if post.Record.CreatedAt.Before(cutoff) {
			return false
		}
	}
	if params.HasNoReplyFromBot && post.ReplyCount > 0 {
		if params.ThreadGetLimited && *threadGets >= threadGetBudget {
			// Budget exhausted: assume already answered rather than spend
			// more round trips.
			return false
		}
		*threadGets++
		replied, err := c.hasReplyFrom(ctx, post.URI, c.handle)
		if err != nil {
			slog.Warn("thread check failed, skipping post", "uri", post.URI, "error", err)
			return false
		}
		if replied {
			return false
		}
	}
	return true
}

// threadResponse is the app.bsky.feed.getPostThread payload, pruned to the
// fields the client reads.
type threadResponse struct {
	Thread threadView `json:"thread"`
}

type threadView struct {
	Post    *postView    `json:"post,omitempty"`
	Parent  *threadView  `json:"parent,omitempty"`
	Replies []threadView `json:"replies,omitempty"`
}

// hasReplyFrom reports whether any direct reply under uri comes from handle.
func (c *Client) hasReplyFrom(ctx context.Context, uri, handle string) (bool, error) {
	q := url.Values{}
	q.Set("uri", uri)
	q.Set("depth", "1")
	q.Set("parentHeight", "0")

	var resp threadResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPostThread", q, &resp); err != nil {
		return false, fmt.Errorf("get post thread: %w", err)
	}

	for _, reply := range resp.Thread.Replies {
		if reply.Post != nil && reply.Post.Author.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

// GetParentPostOf fetches the parent post of the post at uri, or nil when
// the post is not a reply.
func (c *Client) GetParentPostOf(ctx context.Context, uri string) (*domain.Post, error) {
	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	q := url.Values{}
	q.Set("uri", uri)
	q.Set("depth", "0")
	q.Set("parentHeight", "1")

	var resp threadResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPostThread", q, &resp); err != nil {
		return nil, fmt.Errorf("get post thread: %w", err)
	}

	if resp.Thread.Parent == nil || resp.Thread.Parent.Post == nil {
		return nil, nil
	}
	parent := resp.Thread.Parent.Post.toDomain()
	return &parent, nil
}
