package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
)

// SearchConfig drives one candidate search: an ordered list of queries
// tried best-first with shared filter flags. Bookmark is the index to
// resume from; it only ever moves forward and is bounded by the question
// count.
type SearchConfig struct {
	Questions         []string
	HasImages         bool
	HasNoReply        bool
	HasNoReplyFromBot bool
	IsNotMuted        bool
	ThreadGetLimited  bool
	MaxHoursOld       int
	Bookmark          int

	DoSimulateSearch     bool
	SearchSimulationFile string
}

// NextCandidate walks the question list from the bookmark, one collaborator
// call per query, and returns the first post of the first non-empty result.
// Exhausting the list resolves to nil, nil: no candidate is an expected
// outcome, not an error.
func NextCandidate(ctx context.Context, s Searcher, cfg SearchConfig) (*domain.Post, error) {
	if cfg.DoSimulateSearch {
		if cfg.SearchSimulationFile == "" {
			return nil, domain.NewInternalError("search simulation requested without a fixture name")
		}
		posts, err := bluesky.SearchFixture(cfg.SearchSimulationFile)
		if err != nil {
			return nil, domain.NewInternalError(err.Error())
		}
		if len(posts) == 0 {
			return nil, nil
		}
		return &posts[0], nil
	}

	for i := cfg.Bookmark; i < len(cfg.Questions); i++ {
		posts, err := s.SearchPosts(ctx, bluesky.SearchParams{
			Query:             cfg.Questions[i],
			HasImages:         cfg.HasImages,
			HasNoReply:        cfg.HasNoReply,
			HasNoReplyFromBot: cfg.HasNoReplyFromBot,
			IsNotMuted:        cfg.IsNotMuted,
			ThreadGetLimited:  cfg.ThreadGetLimited,
			MaxHoursOld:       cfg.MaxHoursOld,
		})
		if err != nil {
			return nil, domain.NewInternalError(fmt.Sprintf("search %q: %v", cfg.Questions[i], err))
		}
		if len(posts) > 0 {
			slog.Debug("candidate found", "question", cfg.Questions[i], "uri", posts[0].URI)
			post := posts[0]
			return &post, nil
		}
	}

	slog.Debug("no candidate found", "questions", len(cfg.Questions), "bookmark", cfg.Bookmark)
	return nil, nil
}
