package bluesky

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/maelig/identibot/internal/domain"
)

const (
	// MaxPostLength is the Bluesky character ceiling for one post.
	MaxPostLength = 300

	// Sentinel identifiers returned by simulated reply dispatch.
	SimulatedURI = "at://did:plc:simulated/app.bsky.feed.post/simulated"
	SimulatedCID = "bafyreisimulated"
)

// ReplyRef identifies a dispatched reply.
type ReplyRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// BlobRef represents an AT Protocol blob reference for uploaded content.
type BlobRef struct {
	Type string `json:"$type"`
	Ref  struct {
		Link string `json:"$link"`
	} `json:"ref"`
	MimeType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// ImageEmbed is an app.bsky.embed.images record fragment.
type ImageEmbed struct {
	Type   string       `json:"$type"`
	Images []embedImage `json:"images"`
}

type embedImage struct {
	Alt   string   `json:"alt"`
	Image *BlobRef `json:"image"`
}

// postRecord is the record body for app.bsky.feed.post.
type postRecord struct {
	Type      string      `json:"$type"`
	Text      string      `json:"text"`
	CreatedAt string      `json:"createdAt"`
	Langs     []string    `json:"langs,omitempty"`
	Reply     *replyRef   `json:"reply,omitempty"`
	Embed     *ImageEmbed `json:"embed,omitempty"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

// ReplyTo dispatches a reply to post. Empty text and text over the platform
// ceiling are rejected before any network I/O. When doSimulate is set no
// network call is made and the fixed sentinel identifiers are returned.
func (c *Client) ReplyTo(ctx context.Context, post *domain.Post, text string, doSimulate bool, embed *ImageEmbed) (*ReplyRef, error) {
	if text == "" {
		return nil, fmt.Errorf("reply text is empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxPostLength {
		return nil, fmt.Errorf("reply text is %d characters, above the %d limit", n, MaxPostLength)
	}

	if doSimulate {
		slog.Info("simulated reply", "to", post.URI, "text", text)
		return &ReplyRef{URI: SimulatedURI, CID: SimulatedCID}, nil
	}

	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	target := strongRef{URI: post.URI, CID: post.CID}
	record := postRecord{
		Type:      "app.bsky.feed.post",
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     []string{"fr", "en"},
		Reply:     &replyRef{Root: target, Parent: target},
		Embed:     embed,
	}

	var resp ReplyRef
	err := c.post(ctx, "/xrpc/com.atproto.repo.createRecord", createRecordRequest{
		Repo:       c.did,
		Collection: "app.bsky.feed.post",
		Record:     record,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	slog.Info("reply posted", "uri", resp.URI, "to", post.URI)
	return &resp, nil
}

type uploadBlobResponse struct {
	Blob BlobRef `json:"blob"`
}

// UploadImage fetches an image by URL and uploads it to the blob store,
// returning an embed fragment for the reply record.
func (c *Client) UploadImage(ctx context.Context, imageURL, alt string) (*ImageEmbed, error) {
	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	data, mimeType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)

	var result uploadBlobResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	return &ImageEmbed{
		Type: "app.bsky.embed.images",
		Images: []embedImage{
			{Alt: alt, Image: &result.Blob},
		},
	}, nil
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}
