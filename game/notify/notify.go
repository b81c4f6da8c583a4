package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

// EventPuzzleCompleted is the WebSocket event carrying a completion
const EventPuzzleCompleted = "puzzle_completed"

// DefaultWebhookTimeout bounds a single webhook delivery
const DefaultWebhookTimeout = 5 * time.Second

var log = logrus.WithField("component", "notify")

// LogNotifier writes one log line per completion
type LogNotifier struct {
	Logger logrus.FieldLogger
}

// NotifyCompletion implements service.CompletionNotifier
func (n LogNotifier) NotifyCompletion(ctx context.Context, c service.Completion) error {
	logger := n.Logger
	if logger == nil {
		logger = log
	}
	logger.WithFields(logrus.Fields{
		"completion": c.ID,
		"session":    c.SessionID,
		"config":     c.ConfigName,
		"moves":      c.Moves,
		"game":       c.GameNumber,
		"duration":   c.Duration.String(),
	}).Info("completion recorded")
	return nil
}

// Broadcaster sends an event to the clients of one session
type Broadcaster interface {
	BroadcastEvent(sessionID string, event string, data any)
}

// HubNotifier pushes completions to the session's WebSocket clients
type HubNotifier struct {
	hub Broadcaster
}

// NewHubNotifier creates a notifier that broadcasts through hub
func NewHubNotifier(hub Broadcaster) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// NotifyCompletion implements service.CompletionNotifier
func (n *HubNotifier) NotifyCompletion(ctx context.Context, c service.Completion) error {
	n.hub.BroadcastEvent(c.SessionID, EventPuzzleCompleted, c)
	return nil
}

// WebhookNotifier POSTs each completion as JSON to a URL. The completion ID is sent as
// the Idempotency-Key header so receivers can drop redeliveries.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier. A nil client gets one with
// DefaultWebhookTimeout.
func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: DefaultWebhookTimeout}
	}
	return &WebhookNotifier{url: url, client: client}
}

// NotifyCompletion implements service.CompletionNotifier
func (n *WebhookNotifier) NotifyCompletion(ctx context.Context, c service.Completion) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal completion: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", c.ID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans a completion out to several notifiers
type Multi []service.CompletionNotifier

// NotifyCompletion calls every notifier and joins their errors
func (m Multi) NotifyCompletion(ctx context.Context, c service.Completion) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyCompletion(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
