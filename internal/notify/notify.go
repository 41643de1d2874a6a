// Package notify pushes scan results to an external webhook. A sweep
// that found nothing new sends nothing; the webhook only hears about
// changes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tonylu00/bili-sync-sub002/internal/syncer"
)

// Webhook posts a JSON event for each finished sweep that ingested at
// least one new video. Delivery is best-effort: a failed post is
// logged and dropped, never retried into a running sweep.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:  url,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// event is the posted payload. EventID makes deliveries idempotent on
// the receiving side when the webhook endpoint retries internally.
type event struct {
	EventID   string              `json:"event_id"`
	Type      string              `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	Summary   *syncer.ScanSummary `json:"summary"`
}

func (wh *Webhook) ScanFinished(summary *syncer.ScanSummary) {
	if summary == nil || summary.NewVideos == 0 {
		return
	}

	payload, err := json.Marshal(event{
		EventID:   uuid.NewString(),
		Type:      "scan_finished",
		Timestamp: time.Now(),
		Summary:   summary,
	})
	if err != nil {
		log.Printf("notify: failed to encode scan event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("notify: failed to build webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wh.http.Do(req)
	if err != nil {
		log.Printf("notify: webhook delivery failed: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("notify: webhook answered HTTP %d", resp.StatusCode)
	}
}

// FromConfig returns a webhook notifier, or nil when no URL is
// configured. A nil Notifier is valid for the syncer.
func FromConfig(url string) syncer.Notifier {
	if url == "" {
		return nil
	}
	return NewWebhook(url)
}
