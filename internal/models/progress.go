package models

// ProgressUpdate is the event pushed over the websocket while the
// download pool works through the queue. One update describes one
// queue item's state at a point in time.
type ProgressUpdate struct {
	JobID    string  `json:"jobId"`
	VideoID  int64   `json:"video_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	// Done marks the item's terminal update (completed or failed).
	Done bool `json:"done"`
}
