package bluesky

import (
	"time"

	"github.com/maelig/identibot/internal/domain"
)

// postView is the app.bsky wire shape of a post, pruned to what the bot
// reads.
type postView struct {
	URI         string      `json:"uri"`
	CID         string      `json:"cid"`
	Author      actorView   `json:"author"`
	Record      recordView  `json:"record"`
	Embed       *embedView  `json:"embed,omitempty"`
	LikeCount   int         `json:"likeCount"`
	ReplyCount  int         `json:"replyCount"`
	RepostCount int         `json:"repostCount"`
	Viewer      *postViewer `json:"viewer,omitempty"`
}

type actorView struct {
	DID         string       `json:"did"`
	Handle      string       `json:"handle"`
	DisplayName string       `json:"displayName"`
	Viewer      *actorViewer `json:"viewer,omitempty"`
}

type actorViewer struct {
	Muted bool `json:"muted"`
}

type recordView struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Langs     []string  `json:"langs,omitempty"`
	Reply     *replyRef `json:"reply,omitempty"`
}

type replyRef struct {
	Root   strongRef `json:"root"`
	Parent strongRef `json:"parent"`
}

type strongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type embedView struct {
	Type   string      `json:"$type"`
	Images []imageView `json:"images,omitempty"`
}

type imageView struct {
	Alt      string `json:"alt"`
	Fullsize string `json:"fullsize"`
}

type postViewer struct {
	ReplyDisabled bool `json:"replyDisabled"`
}

func (pv postView) toDomain() domain.Post {
	createdAt, _ := time.Parse(time.RFC3339, pv.Record.CreatedAt)

	post := domain.Post{
		URI: pv.URI,
		CID: pv.CID,
		Author: domain.Author{
			DID:         pv.Author.DID,
			Handle:      pv.Author.Handle,
			DisplayName: pv.Author.DisplayName,
		},
		Record: domain.Record{
			CreatedAt: createdAt,
			Langs:     pv.Record.Langs,
			Text:      pv.Record.Text,
		},
		LikeCount:   pv.LikeCount,
		ReplyCount:  pv.ReplyCount,
		RepostCount: pv.RepostCount,
	}
	if pv.Author.Viewer != nil {
		post.Author.Muted = pv.Author.Viewer.Muted
	}
	if pv.Record.Reply != nil {
		post.Record.ReplyParent = pv.Record.Reply.Parent.URI
	}
	if pv.Embed != nil {
		for _, img := range pv.Embed.Images {
			post.Images = append(post.Images, domain.Image{
				Alt:      img.Alt,
				Fullsize: img.Fullsize,
			})
		}
	}
	if pv.Viewer != nil {
		post.ReplyDisabled = pv.Viewer.ReplyDisabled
	}
	return post
}
