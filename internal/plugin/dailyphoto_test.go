package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
)

func TestDailyPhoto_SimulatedRun(t *testing.T) {
	platform := &fakePlatform{}
	p := NewDailyPhoto(DailyPhotoConfig{Questions: []string{"photo nature"}, Platform: platform})

	env, err := p.Process(context.Background(), Options{
		DoSimulate:           true,
		DoSimulateSearch:     true,
		SearchSimulationFile: bluesky.FixtureNaturePhoto,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, env.Text, "Superbe photo, merci pour le partage !")
	assert.Contains(t, env.Text, "📷 #identibot #naturephoto")
	assert.Zero(t, env.PostCount)
}

func TestDailyPhoto_LiveRunCountsThePost(t *testing.T) {
	post := domain.Post{
		URI:    "at://did:plc:photo/app.bsky.feed.post/1",
		Author: domain.Author{Handle: "photographe.bsky.social"},
		Images: []domain.Image{{Fullsize: "https://cdn.example/photo.jpg"}},
	}
	platform := &fakePlatform{searchResults: [][]domain.Post{{post}}}
	p := NewDailyPhoto(DailyPhotoConfig{Questions: []string{"photo nature"}, Platform: platform})

	env, err := p.Process(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, env.PostCount)
	assert.Contains(t, env.Text, "@photographe.bsky.social")
	require.Len(t, platform.replies, 1)
	assert.False(t, platform.replies[0].Simulated)
}

func TestDailyPhoto_NoCandidateIsNotice(t *testing.T) {
	platform := &fakePlatform{}
	p := NewDailyPhoto(DailyPhotoConfig{Questions: []string{"photo nature"}, Platform: platform})

	env, err := p.Process(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, env.Status)
	assert.Zero(t, env.PostCount)
	assert.Empty(t, platform.replies)
}

func TestDailyPhoto_NotReadyIsUnavailable(t *testing.T) {
	p := NewDailyPhoto(DailyPhotoConfig{})

	assert.False(t, p.Ready())
	_, err := p.Process(context.Background(), Options{})
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
}
