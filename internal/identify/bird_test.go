package identify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maelig/identibot/internal/domain"
)

func newBird(baseURL string, ref *SpeciesRef) *Bird {
	return NewBird(BirdConfig{APIKey: "key", BaseURL: baseURL, MinScore: 0.55, Ref: ref})
}

func TestBird_Simulated_GoodScoreImages(t *testing.T) {
	b := newBird("", nil)
	ident, err := b.Identify(context.Background(), Request{DoSimulate: true, SimulateCase: CaseGoodScoreImages})
	require.NoError(t, err)

	assert.Equal(t, OK, ident.Kind)
	assert.Contains(t, ident.ScoredResult, "(à 92.74%) Haliaeetus leucocephalus genus:Haliaeetus (fam. Accipitridae) com. Bald Eagle")
	require.NotNil(t, ident.Illustration)
	assert.Equal(t, "https://cdn.birdid.example/haliaeetus-leucocephalus.jpg", ident.Illustration.URL)
}

func TestBird_Simulated_BadScore(t *testing.T) {
	b := newBird("", nil)
	ident, err := b.Identify(context.Background(), Request{DoSimulate: true, SimulateCase: CaseBadScore})
	require.NoError(t, err)
	assert.Equal(t, BadScore, ident.Kind)
}

func TestBird_NotFoundIsTransientNotNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	b := newBird(server.URL, nil)
	_, err := b.Identify(context.Background(), Request{ImageURL: "https://cdn.example/bird.jpg"})
	require.Error(t, err)

	derr, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, derr.Status)
	assert.False(t, derr.MustBeReported)
}

func TestBird_LiveCallSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/identify", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req birdIdentifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example/bird.jpg", req.ImageURL)

		w.Write([]byte(`{"results":[{"score":0.81,"scientificName":"Turdus merula","genus":"Turdus","family":"Turdidae","commonNames":["Merle noir"]}]}`))
	}))
	defer server.Close()

	b := newBird(server.URL, nil)
	ident, err := b.Identify(context.Background(), Request{ImageURL: "https://cdn.example/bird.jpg"})
	require.NoError(t, err)
	assert.Equal(t, OK, ident.Kind)
	assert.Equal(t, "(à 81.00%) Turdus merula genus:Turdus (fam. Turdidae) com. Merle noir", ident.ScoredResult)
}

func TestBird_EnrichmentAppendsSpeciesLink(t *testing.T) {
	refServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/oiseaux/pygargue.a.tete.blanche.html">Pygargue à tête blanche - Haliaeetus leucocephalus</a></body></html>`))
	}))
	defer refServer.Close()

	b := newBird("", NewSpeciesRef(refServer.URL))
	ident, err := b.Identify(context.Background(), Request{DoSimulate: true, SimulateCase: CaseGoodScoreNoImage})
	require.NoError(t, err)

	assert.Contains(t, ident.ScoredResult, "\n"+refServer.URL+"/oiseaux/pygargue.a.tete.blanche.html")
}

func TestBird_EnrichmentFailureIsSilent(t *testing.T) {
	refServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer refServer.Close()

	b := newBird("", NewSpeciesRef(refServer.URL))
	ident, err := b.Identify(context.Background(), Request{DoSimulate: true, SimulateCase: CaseGoodScoreNoImage})
	require.NoError(t, err)

	assert.Equal(t, OK, ident.Kind)
	assert.NotContains(t, ident.ScoredResult, "\nhttp")
}
