package plugin

import (
	"context"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
)

type replyCall struct {
	TargetURI string
	Text      string
	Simulated bool
	Embed     *bluesky.ImageEmbed
}

// fakePlatform records every collaborator call a plugin makes.
type fakePlatform struct {
	searchResults [][]domain.Post
	searchErr     error
	queries       []string

	parent      *domain.Post
	parentErr   error
	parentCalls int

	replies  []replyCall
	replyErr error

	uploads   []string
	uploadErr error

	muted []domain.Author
}

func (f *fakePlatform) SearchPosts(_ context.Context, params bluesky.SearchParams) ([]domain.Post, error) {
	f.queries = append(f.queries, params.Query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchResults) == 0 {
		return nil, nil
	}
	next := f.searchResults[0]
	f.searchResults = f.searchResults[1:]
	return next, nil
}

func (f *fakePlatform) GetParentPostOf(context.Context, string) (*domain.Post, error) {
	f.parentCalls++
	return f.parent, f.parentErr
}

func (f *fakePlatform) ReplyTo(_ context.Context, post *domain.Post, text string, doSimulate bool, embed *bluesky.ImageEmbed) (*bluesky.ReplyRef, error) {
	f.replies = append(f.replies, replyCall{TargetURI: post.URI, Text: text, Simulated: doSimulate, Embed: embed})
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	if doSimulate {
		return &bluesky.ReplyRef{URI: bluesky.SimulatedURI, CID: bluesky.SimulatedCID}, nil
	}
	return &bluesky.ReplyRef{URI: "at://did:plc:bot/app.bsky.feed.post/real", CID: "bafyreireal"}, nil
}

func (f *fakePlatform) UploadImage(_ context.Context, imageURL, _ string) (*bluesky.ImageEmbed, error) {
	f.uploads = append(f.uploads, imageURL)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &bluesky.ImageEmbed{Type: "app.bsky.embed.images"}, nil
}

func (f *fakePlatform) SafeMuteAuthor(_ context.Context, author domain.Author, _, _ string) {
	f.muted = append(f.muted, author)
}
