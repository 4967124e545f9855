package bluesky

import (
	"fmt"
	"time"

	"github.com/maelig/identibot/internal/domain"
)

// Search fixtures: deterministic stand-ins for the live search collaborator,
// keyed by the names the hook and tests use.
const (
	FixtureFakeFlower      = "blueskyPostFakeFlower"
	FixtureBird            = "blueskyPostBird"
	FixtureFlowerMention   = "blueskyPostFakeFlowerMention"
	FixtureBirdMention     = "blueskyPostBirdMention"
	FixtureMentionNoParent = "blueskyPostMentionNoParent"
	FixtureNaturePhoto     = "blueskyPostNaturePhoto"
)

var fixtureTime = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

func fixtureFlowerPost() domain.Post {
	return domain.Post{
		URI: "at://did:plc:fakeflower/app.bsky.feed.post/3kflower",
		CID: "bafyreifakeflower",
		Author: domain.Author{
			DID:         "did:plc:fakeflower",
			Handle:      "jardinier.bsky.social",
			DisplayName: "Jardinier Curieux",
		},
		Record: domain.Record{
			CreatedAt: fixtureTime,
			Langs:     []string{"fr"},
			Text:      "Quelle est cette fleur trouvée sur la dune ce matin ?",
		},
		Images: []domain.Image{
			{Alt: "fleur blanche sur le sable", Fullsize: "https://cdn.bsky.app/img/feed_fullsize/plain/fakeflower.jpg"},
		},
		LikeCount:  3,
		ReplyCount: 0,
	}
}

func fixtureBirdPost() domain.Post {
	return domain.Post{
		URI: "at://did:plc:fakebird/app.bsky.feed.post/3kbird",
		CID: "bafyreifakebird",
		Author: domain.Author{
			DID:         "did:plc:fakebird",
			Handle:      "ornitho.bsky.social",
			DisplayName: "Promeneur Ornithologue",
		},
		Record: domain.Record{
			CreatedAt: fixtureTime,
			Langs:     []string{"fr"},
			Text:      "Quel est cet oiseau aperçu au bord du lac ?",
		},
		Images: []domain.Image{
			{Alt: "grand rapace en vol", Fullsize: "https://cdn.bsky.app/img/feed_fullsize/plain/fakebird.jpg"},
		},
		LikeCount:  7,
		ReplyCount: 0,
	}
}

func fixtureMention(parent *domain.Post, text string) domain.Post {
	post := domain.Post{
		URI: "at://did:plc:mentioner/app.bsky.feed.post/3kmention",
		CID: "bafyreimention",
		Author: domain.Author{
			DID:         "did:plc:mentioner",
			Handle:      "curieux.bsky.social",
			DisplayName: "Curieux de Nature",
		},
		Record: domain.Record{
			CreatedAt: fixtureTime,
			Langs:     []string{"fr"},
			Text:      text,
		},
	}
	if parent != nil {
		post.Record.ReplyParent = parent.URI
	}
	return post
}

// SearchFixture returns the canned posts recorded under name. Unknown names
// are an error: a simulation that silently returns nothing would hide a
// misconfigured hook call.
func SearchFixture(name string) ([]domain.Post, error) {
	switch name {
	case FixtureFakeFlower:
		return []domain.Post{fixtureFlowerPost()}, nil
	case FixtureBird:
		return []domain.Post{fixtureBirdPost()}, nil
	case FixtureFlowerMention:
		parent := fixtureFlowerPost()
		return []domain.Post{fixtureMention(&parent, "@identibot.bsky.social quelle est cette plante ?")}, nil
	case FixtureBirdMention:
		parent := fixtureBirdPost()
		return []domain.Post{fixtureMention(&parent, "@identibot.bsky.social quel est cet oiseau ?")}, nil
	case FixtureMentionNoParent:
		return []domain.Post{fixtureMention(nil, "@identibot.bsky.social une idée ?")}, nil
	case FixtureNaturePhoto:
		post := fixtureBirdPost()
		post.Record.Text = "Ma photo du matin au bord du lac"
		return []domain.Post{post}, nil
	default:
		return nil, fmt.Errorf("unknown search fixture %q", name)
	}
}

// FixtureParentOf resolves the parent of a fixture mention post, mirroring
// GetParentPostOf for simulated runs.
func FixtureParentOf(fixtureName string) *domain.Post {
	switch fixtureName {
	case FixtureFlowerMention:
		parent := fixtureFlowerPost()
		return &parent
	case FixtureBirdMention:
		parent := fixtureBirdPost()
		return &parent
	default:
		return nil
	}
}
