// Package firehose watches the Jetstream firehose for posts mentioning the
// bot and turns them into dispatch triggers for the mention plugins.
package firehose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maelig/identibot/internal/domain"
	"github.com/maelig/identibot/internal/gate"
)

const reconnectDelay = 5 * time.Second

// wantedCollections is the set of AT Proto collection NSIDs the watcher
// requests from Jetstream. Only post events can carry mentions.
var wantedCollections = []string{
	"app.bsky.feed.post",
}

// Watcher connects to Jetstream and dispatches the mention plugins when a
// new post mentions the bot handle.
type Watcher struct {
	url       string
	botHandle string
	gate      *gate.Gate
	plugins   []string
	logger    *slog.Logger
}

// NewWatcher creates a firehose watcher triggering the given plugins.
func NewWatcher(firehoseURL, botHandle string, g *gate.Gate, plugins []string, logger *slog.Logger) *Watcher {
	return &Watcher{
		url:       firehoseURL,
		botHandle: botHandle,
		gate:      g,
		plugins:   plugins,
		logger:    logger,
	}
}

// Start connects to the firehose and processes events until the context is
// cancelled. It automatically reconnects on transient errors.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.subscribe(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				w.logger.Error("firehose connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
					// backoff before reconnecting
				}
			}
		}
	}
}

func (w *Watcher) buildURL() string {
	u, _ := url.Parse(w.url)
	q := u.Query()
	for _, c := range wantedCollections {
		q.Add("wantedCollections", c)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (w *Watcher) subscribe(ctx context.Context) error {
	wsURL := w.buildURL()
	w.logger.Info("connecting to firehose", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial firehose: %w", err)
	}
	defer conn.Close()

	w.logger.Info("connected to firehose")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var event jetstreamEvent
		if err := json.Unmarshal(message, &event); err != nil {
			w.logger.Error("failed to parse event", "error", err)
			continue
		}

		if event.Kind != "commit" || event.Commit == nil {
			continue
		}
		if event.Commit.Operation != "create" || event.Commit.Record == nil {
			continue
		}
		if !strings.Contains(event.Commit.Record.Text, "@"+w.botHandle) {
			continue
		}

		w.logger.Info("mention spotted on firehose", "did", event.DID)
		w.trigger(ctx)
	}
}

// trigger dispatches the mention plugins. Cooldown rejections are routine
// here: mentions arrive in bursts and the next scheduled run will pick the
// candidate up through search anyway.
func (w *Watcher) trigger(ctx context.Context) {
	for _, name := range w.plugins {
		_, err := w.gate.Process(ctx, "firehose", false, name)
		if err == nil {
			continue
		}
		var derr *domain.DomainError
		if errors.As(err, &derr) && derr.Status == 429 {
			w.logger.Debug("mention dispatch deferred by cooldown", "plugin", name)
			return
		}
		w.logger.Warn("mention dispatch failed", "plugin", name, "error", err)
	}
}
