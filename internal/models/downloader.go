package models

import "time"

const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusPaused     = "paused"
)

type DownloadQueueItem struct {
	ID        int64     `json:"id"`
	VideoID   int64     `json:"video_id"`
	Bvid      string    `json:"bvid"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Status    string    `json:"status"`   // e.g. "queued", "in_progress", "completed", "failed", "paused"
	Progress  float64   `json:"progress"` // Percentage of download progress
	Message   string    `json:"message"`  // Optional message for status updates
	CreatedAt time.Time `json:"created_at"`
}
