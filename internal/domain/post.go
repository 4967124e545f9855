package domain

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Author identifies the account behind a post.
type Author struct {
	DID         string
	Handle      string
	DisplayName string
	Muted       bool
}

// Image is an embedded image attached to a post.
type Image struct {
	Alt      string
	Fullsize string
}

// Record holds the authored content of a post.
type Record struct {
	CreatedAt   time.Time
	Langs       []string
	Text        string
	ReplyParent string // URI of the post this one replies to, empty for root posts
}

// Post is an immutable snapshot of a Bluesky post as returned by the
// search or thread collaborators. Posts are never mutated in place, only
// transformed into derived projections.
type Post struct {
	URI    string
	CID    string
	Author Author
	Record Record
	Images []Image

	LikeCount   int
	ReplyCount  int
	RepostCount int

	// ReplyDisabled mirrors viewer.replyDisabled: the author does not
	// accept replies, so the post can never be a candidate.
	ReplyDisabled bool
}

// HasImage reports whether the post carries at least one embedded image.
func (p *Post) HasImage() bool {
	return p != nil && len(p.Images) > 0
}

// FirstImage returns the first embedded image, or nil.
func (p *Post) FirstImage() *Image {
	if !p.HasImage() {
		return nil
	}
	return &p.Images[0]
}

// IsReply reports whether the post replies to another post.
func (p *Post) IsReply() bool {
	return p != nil && p.Record.ReplyParent != ""
}

// WebURL converts the post's AT URI into a bsky.app link.
func (p *Post) WebURL() string {
	rest, ok := strings.CutPrefix(p.URI, "at://")
	if !ok {
		return p.URI
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return p.URI
	}
	handle := p.Author.Handle
	if handle == "" {
		handle = parts[0]
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, parts[2])
}

// Text renders a compact one-line projection of the post.
func (p *Post) Text() string {
	body := p.Record.Text
	if len([]rune(body)) > 80 {
		body = string([]rune(body)[:77]) + "..."
	}
	return fmt.Sprintf("@%s (%s): %q", p.Author.Handle, p.Record.CreatedAt.Format("2006-01-02 15:04"), body)
}

// HTML renders the post as a status-page card.
func (p *Post) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="post">`)
	fmt.Fprintf(&b, `<a href="%s">@%s</a> `, html.EscapeString(p.WebURL()), html.EscapeString(p.Author.Handle))
	fmt.Fprintf(&b, `<span class="when">%s</span>`, p.Record.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(p.Record.Text))
	if img := p.FirstImage(); img != nil {
		fmt.Fprintf(&b, `<img src="%s" alt="%s"/>`, html.EscapeString(img.Fullsize), html.EscapeString(img.Alt))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Info returns a log-friendly summary of the post.
func (p *Post) Info() map[string]any {
	return map[string]any{
		"uri":     p.URI,
		"handle":  p.Author.Handle,
		"created": p.Record.CreatedAt.Format(time.RFC3339),
		"images":  len(p.Images),
		"likes":   p.LikeCount,
		"replies": p.ReplyCount,
	}
}
