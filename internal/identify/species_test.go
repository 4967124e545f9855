package identify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeciesLink_ResolvesFirstMatchingPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Turdus merula", r.URL.Query().Get("sais"))
		w.Write([]byte(`<html><body>
			<a href="/accueil.html">Accueil</a>
			<a href="/oiseaux/merle.noir.html">Merle noir - Turdus merula</a>
			<a href="/oiseaux/merle.a.plastron.html">Merle à plastron - Turdus torquatus</a>
		</body></html>`))
	}))
	defer server.Close()

	ref := NewSpeciesRef(server.URL)
	link := ref.SpeciesLink(context.Background(), "Turdus merula")
	assert.Equal(t, server.URL+"/oiseaux/merle.noir.html", link)
}

func TestSpeciesLink_NoMatchReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/accueil.html">Accueil</a></body></html>`))
	}))
	defer server.Close()

	ref := NewSpeciesRef(server.URL)
	assert.Empty(t, ref.SpeciesLink(context.Background(), "Turdus merula"))
}

func TestSpeciesLink_ServerErrorReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ref := NewSpeciesRef(server.URL)
	assert.Empty(t, ref.SpeciesLink(context.Background(), "Turdus merula"))
}
