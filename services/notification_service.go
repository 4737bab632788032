package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type ntfyPayload struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
}

// Notifier pushes a short alert to an ntfy-compatible endpoint. An empty URL
// disables it.
type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify never fails the caller; problems are only logged.
func (n *Notifier) Notify(ctx context.Context, title, message string) {
	if n == nil || n.url == "" {
		return
	}
	if err := n.send(ctx, title, message); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func (n *Notifier) send(ctx context.Context, title, message string) error {
	body, err := json.Marshal(ntfyPayload{
		Title:    title,
		Message:  message,
		Priority: "high",
		Tags:     []string{"question"},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}
