// Package plugin contains the identification plugins and the shared
// candidate-search and outcome-resolution logic they compose.
package plugin

import (
	"context"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/domain"
)

// Options drives one plugin invocation. Simulation options substitute the
// network collaborators with deterministic fixtures.
type Options struct {
	DoSimulate           bool
	DoSimulateSearch     bool
	SearchSimulationFile string
	SimulateIdentifyCase string
	Bookmark             int
}

// Identifier is one identification plugin. Process errors are always
// *domain.DomainError: no plugin lets a raw failure escape un-enveloped.
type Identifier interface {
	Name() string
	Ready() bool
	Process(ctx context.Context, opts Options) (domain.Envelope, error)
}

// Searcher is the post-search collaborator.
type Searcher interface {
	SearchPosts(ctx context.Context, params bluesky.SearchParams) ([]domain.Post, error)
}

// ThreadLookup resolves the parent of a mention post.
type ThreadLookup interface {
	GetParentPostOf(ctx context.Context, uri string) (*domain.Post, error)
}

// Poster dispatches replies and applies mutes.
type Poster interface {
	ReplyTo(ctx context.Context, post *domain.Post, text string, doSimulate bool, embed *bluesky.ImageEmbed) (*bluesky.ReplyRef, error)
	UploadImage(ctx context.Context, imageURL, alt string) (*bluesky.ImageEmbed, error)
	SafeMuteAuthor(ctx context.Context, author domain.Author, reason, origin string)
}

// Platform bundles the collaborators a plugin needs; *bluesky.Client
// satisfies it.
type Platform interface {
	Searcher
	ThreadLookup
	Poster
}

// Registry holds the available plugins, looked up by name at dispatch time.
type Registry struct {
	plugins map[string]Identifier
	order   []string
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Identifier)}
}

// Register adds a plugin. Last registration wins on name collision.
func (r *Registry) Register(p Identifier) {
	if _, exists := r.plugins[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.plugins[p.Name()] = p
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Identifier, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// Names returns the plugin names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
