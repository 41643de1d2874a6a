package syncer

import (
	"fmt"
	"sync"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// NewItem identifies one newly ingested video in a scan summary.
type NewItem struct {
	Bvid      string `json:"bvid"`
	Name      string `json:"name"`
	UpperName string `json:"upper_name,omitempty"`
}

// SourceResult is one source's slice of a sweep's outcome. A source
// that yielded nothing still appears here with zero new items, so the
// summary distinguishes "scanned, nothing new" from "not scanned".
type SourceResult struct {
	Kind     models.SourceKind `json:"kind"`
	SourceID int64             `json:"source_id"`
	Label    string            `json:"label"`
	NewItems []NewItem         `json:"new_items"`
	Error    string            `json:"error,omitempty"`
}

// ScanSummary describes one completed sweep over all enabled sources.
type ScanSummary struct {
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Sources   int            `json:"sources_scanned"`
	NewVideos int            `json:"new_videos"`
	Results   []SourceResult `json:"results"`
}

// Collector tallies one sweep. A result slot is registered before a
// source's fetch begins; batches of inserted videos are appended to it
// as ingestion progresses.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	order   []string
	slots   map[string]*SourceResult
}

func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		slots:   make(map[string]*SourceResult),
	}
}

func slotKey(kind models.SourceKind, id int64) string {
	return fmt.Sprintf("%s/%d", kind, id)
}

// StartSource registers a result slot for one source.
func (c *Collector) StartSource(kind models.SourceKind, id int64, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := slotKey(kind, id)
	if _, ok := c.slots[key]; ok {
		return
	}
	c.order = append(c.order, key)
	c.slots[key] = &SourceResult{Kind: kind, SourceID: id, Label: label}
}

// Append adds a batch of newly inserted videos to a source's slot.
func (c *Collector) Append(kind models.SourceKind, id int64, videos []models.Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.slots[slotKey(kind, id)]
	if !ok {
		return
	}
	for _, v := range videos {
		slot.NewItems = append(slot.NewItems, NewItem{Bvid: v.Bvid, Name: v.Name, UpperName: v.UpperName})
	}
}

// Fail records a scan error on a source's slot. Items appended before
// the failure stay counted; they were ingested.
func (c *Collector) Fail(kind models.SourceKind, id int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot, ok := c.slots[slotKey(kind, id)]; ok {
		slot.Error = err.Error()
	}
}

// Summary closes out the sweep and sums its counts.
func (c *Collector) Summary() ScanSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := ScanSummary{
		StartedAt: c.started,
		Duration:  time.Since(c.started),
		Sources:   len(c.order),
	}
	for _, key := range c.order {
		slot := c.slots[key]
		summary.NewVideos += len(slot.NewItems)
		summary.Results = append(summary.Results, *slot)
	}
	return summary
}
