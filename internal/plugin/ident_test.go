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
	"github.com/maelig/identibot/internal/identify"
)

var testQuestions = []string{"quelle est cette plante", "what is this plant"}

func simulatedOptions(fixture, identifyCase string) Options {
	return Options{
		DoSimulate:           true,
		DoSimulateSearch:     true,
		SearchSimulationFile: fixture,
		SimulateIdentifyCase: identifyCase,
	}
}

func newTestPlantnet(platform Platform) Identifier {
	return NewPlantnet(PlantnetConfig{
		Questions: testQuestions,
		Platform:  platform,
		Provider:  identify.NewPlantnet(identify.PlantnetConfig{APIKey: "key", MinScore: 0.20}),
	})
}

func newTestBird(platform Platform) Identifier {
	return NewBird(BirdConfig{
		Questions: testQuestions,
		Platform:  platform,
		Provider:  identify.NewBird(identify.BirdConfig{APIKey: "key", MinScore: 0.55}),
	})
}

func TestPlantnet_SimulatedPositiveRun(t *testing.T) {
	platform := &fakePlatform{}
	p := newTestPlantnet(platform)

	env, err := p.Process(context.Background(), simulatedOptions(bluesky.FixtureFakeFlower, identify.CaseGoodScoreImages))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, env.Text, ": Pl@ntNet identifie (à 85.09%) Pancratium SIMULATINIUM")
	assert.Contains(t, env.Text, "🪴 #identibot #plantnet")
	assert.Zero(t, env.PostCount)

	require.Len(t, platform.replies, 1)
	assert.True(t, platform.replies[0].Simulated)
	assert.Empty(t, platform.queries, "simulated search never reaches the live collaborator")
	assert.Empty(t, platform.uploads)
}

func TestPlantnet_SimulatedBadScoreRun(t *testing.T) {
	platform := &fakePlatform{}
	p := newTestPlantnet(platform)

	env, err := p.Process(context.Background(), simulatedOptions(bluesky.FixtureFakeFlower, identify.CaseBadScore))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, env.Status)
	assert.Contains(t, env.Text, "n'a pas donné de résultat assez concluant")
	assert.Contains(t, env.Text, "20%")
	assert.Zero(t, env.PostCount)
}

func TestBird_SimulatedPositiveRun(t *testing.T) {
	platform := &fakePlatform{}
	b := newTestBird(platform)

	env, err := b.Process(context.Background(), simulatedOptions(bluesky.FixtureBird, identify.CaseGoodScoreImages))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, env.Text, "Haliaeetus leucocephalus genus:Haliaeetus (fam. Accipitridae) com. Bald Eagle")
	assert.Contains(t, env.Text, "🦅 #identibot #birdid")
}

func TestBird_SimulatedBadScoreMentionsThreshold(t *testing.T) {
	platform := &fakePlatform{}
	b := newTestBird(platform)

	env, err := b.Process(context.Background(), simulatedOptions(bluesky.FixtureBird, identify.CaseBadScore))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, env.Status)
	assert.Contains(t, env.Text, "55%")
}

func TestAskPlantnet_SimulatedMentionUsesParentImage(t *testing.T) {
	platform := &fakePlatform{}
	p := NewAskPlantnet(PlantnetConfig{
		Questions: testQuestions,
		Platform:  platform,
		Provider:  identify.NewPlantnet(identify.PlantnetConfig{APIKey: "key", MinScore: 0.20}),
	})

	env, err := p.Process(context.Background(), simulatedOptions(bluesky.FixtureFlowerMention, identify.CaseGoodScoreImages))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, env.Status)
	// The reply addresses the mentioner, not the parent's author.
	assert.Contains(t, env.Text, "@curieux.bsky.social")
}

func TestAskPlantnet_MentionWithoutParentIsNoticeAndMute(t *testing.T) {
	platform := &fakePlatform{}
	p := NewAskPlantnet(PlantnetConfig{
		Questions: testQuestions,
		Platform:  platform,
		Provider:  identify.NewPlantnet(identify.PlantnetConfig{APIKey: "key", MinScore: 0.20}),
	})

	// Live-mode dispatch with a simulated search: the mute must be applied.
	_, err := p.Process(context.Background(), Options{
		DoSimulateSearch:     true,
		SearchSimulationFile: bluesky.FixtureMentionNoParent,
	})
	require.Error(t, err)

	derr, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, http.StatusAccepted, derr.Status)
	assert.False(t, derr.MustBeReported)
	require.Len(t, platform.muted, 1)
	assert.Equal(t, "curieux.bsky.social", platform.muted[0].Handle)
	assert.Empty(t, platform.replies)
}

func TestAskPlantnet_NonReplyMentionSkipsThreadLookup(t *testing.T) {
	mention := domain.Post{
		URI:    "at://did:plc:mentioner/app.bsky.feed.post/3k",
		Author: domain.Author{DID: "did:plc:mentioner", Handle: "curieux.bsky.social"},
	}
	platform := &fakePlatform{
		searchResults: [][]domain.Post{{mention}},
		parent:        &domain.Post{URI: "at://did:plc:other/app.bsky.feed.post/1"},
	}
	p := NewAskPlantnet(PlantnetConfig{
		Questions: testQuestions,
		Platform:  platform,
		Provider:  identify.NewPlantnet(identify.PlantnetConfig{APIKey: "key", MinScore: 0.20}),
	})

	_, err := p.Process(context.Background(), Options{})
	require.Error(t, err)

	derr, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, http.StatusAccepted, derr.Status)
	assert.Zero(t, platform.parentCalls, "a root post cannot have a parent, no lookup needed")
	require.Len(t, platform.muted, 1)
}

func TestAskPlantnet_SimulationSkipsMute(t *testing.T) {
	platform := &fakePlatform{}
	p := NewAskPlantnet(PlantnetConfig{
		Questions: testQuestions,
		Platform:  platform,
		Provider:  identify.NewPlantnet(identify.PlantnetConfig{APIKey: "key", MinScore: 0.20}),
	})

	_, err := p.Process(context.Background(), simulatedOptions(bluesky.FixtureMentionNoParent, identify.CaseGoodScoreImages))
	require.Error(t, err)
	assert.Empty(t, platform.muted)
}

func TestIdentPlugin_NoCandidateIsNotice(t *testing.T) {
	platform := &fakePlatform{}
	p := newTestPlantnet(platform)

	env, err := p.Process(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, env.Status)
	assert.Contains(t, env.Text, "Aucun candidat")
	assert.Len(t, platform.queries, len(testQuestions))
}

func TestIdentPlugin_NotReadyIsUnavailable(t *testing.T) {
	p := NewPlantnet(PlantnetConfig{})

	assert.False(t, p.Ready())
	_, err := p.Process(context.Background(), Options{})
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
}

func TestRegistry_NamesKeepRegistrationOrder(t *testing.T) {
	platform := &fakePlatform{}
	r := NewRegistry()
	r.Register(newTestPlantnet(platform))
	r.Register(newTestBird(platform))

	assert.Equal(t, []string{"Plantnet", "Bird"}, r.Names())

	p, ok := r.Get("Plantnet")
	require.True(t, ok)
	assert.Equal(t, "Plantnet", p.Name())

	_, ok = r.Get("Unknown")
	assert.False(t, ok)
}
