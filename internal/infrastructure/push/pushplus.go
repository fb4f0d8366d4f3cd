package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"MarketRadar/internal/config"
	"MarketRadar/internal/ports"
)

// Notifier delivers markdown reports through a PushPlus-style webhook.
type Notifier struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint and token.
func NewNotifier(cfg config.PushConfig, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   client,
	}
}

// Push posts the report as a markdown message.
func (n *Notifier) Push(ctx context.Context, title, markdown string) error {
	if n.token == "" || n.endpoint == "" {
		return fmt.Errorf("push notifier misconfigured")
	}

	body, err := json.Marshal(map[string]string{
		"token":    n.token,
		"title":    title,
		"content":  markdown,
		"template": "markdown",
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push endpoint error: %s", resp.Status)
	}
	return nil
}
