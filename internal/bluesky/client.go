package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultPDS = "https://bsky.social"

// Client is a minimal Bluesky/AT Protocol client covering what the
// identification pipeline needs: post search, thread lookup, replies with
// optional image embeds, and the mute graph.
type Client struct {
	pds        string
	httpClient *http.Client

	handle      string
	appPassword string

	// populated after authenticate
	accessJwt string
	did       string
}

// Config holds configuration for the Bluesky client.
type Config struct {
	Handle      string
	AppPassword string
	PDS         string // defaults to https://bsky.social
}

// NewClient creates a new Bluesky client.
func NewClient(cfg Config) *Client {
	pds := cfg.PDS
	if pds == "" {
		pds = defaultPDS
	}
	return &Client{
		pds: pds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		handle:      cfg.Handle,
		appPassword: cfg.AppPassword,
	}
}

// Handle returns the bot's own handle.
func (c *Client) Handle() string {
	return c.handle
}

// APIError is a non-2xx response from the PDS, preserving the status code
// so callers can distinguish expected conditions (404) from faults.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Body)
}

// createSessionRequest is the request body for session creation.
type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// createSessionResponse is the response from session creation.
type createSessionResponse struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// ValidateCredentials authenticates and validates the credentials.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	return c.authenticate(ctx)
}

func (c *Client) authenticate(ctx context.Context) error {
	if c.accessJwt != "" {
		return nil // Already authenticated
	}

	var session createSessionResponse
	err := c.post(ctx, "/xrpc/com.atproto.server.createSession", createSessionRequest{
		Identifier: c.handle,
		Password:   c.appPassword,
	}, &session)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.accessJwt = session.AccessJwt
	c.did = session.DID

	slog.Debug("authenticated with Bluesky",
		"handle", session.Handle,
		"did", session.DID,
	)

	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pds+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// fetchText performs a plain GET and returns the trimmed response body.
func fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
