package syncer

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/tonylu00/bili-sync-sub002/internal/store"
)

// Checkpoints for every creator feed are serialized into a single
// settings row under this key.
const checkpointSettingKey = "scan_checkpoints"

// Checkpoint marks the last fully processed position within a paged
// listing: the page number and how many items of that page were
// already ingested.
type Checkpoint struct {
	Page  int `json:"page"`
	Index int `json:"index"`
}

// CheckpointStore keeps pagination progress in memory, keyed by
// creator id, and mirrors it to the settings table so an interrupted
// scan of a long feed resumes where it stopped instead of at page one.
type CheckpointStore struct {
	mu      sync.RWMutex
	st      *store.Store
	entries map[string]Checkpoint
}

func NewCheckpointStore(st *store.Store) *CheckpointStore {
	return &CheckpointStore{st: st, entries: make(map[string]Checkpoint)}
}

// Load reads the durable copy back into memory. A malformed blob is
// logged and replaced with an empty set; startup never fails on bad
// checkpoint data.
func (c *CheckpointStore) Load() error {
	value, ok, err := c.st.GetSetting(checkpointSettingKey)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Checkpoint)
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(value), &c.entries); err != nil {
		log.Printf("Ignoring malformed scan checkpoint data: %v", err)
		c.entries = make(map[string]Checkpoint)
	}
	return nil
}

// Get returns the checkpoint for one key, if any.
func (c *CheckpointStore) Get(key string) (Checkpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp, ok := c.entries[key]
	return cp, ok
}

// Set records progress in memory. The durable copy is written by Save
// at the end of a sweep, or by Remove.
func (c *CheckpointStore) Set(key string, cp Checkpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cp
}

// Clear drops a key from memory once its listing was scanned to the
// end, so the next sweep starts over at page one.
func (c *CheckpointStore) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Remove drops a key and rewrites the durable copy immediately. Used
// when the owning source is deleted.
func (c *CheckpointStore) Remove(key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return c.Save()
}

// Save mirrors the in-memory set to the settings table. An empty set
// deletes the settings row rather than storing an empty document.
func (c *CheckpointStore) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.entries) == 0 {
		return c.st.DeleteSetting(checkpointSettingKey)
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return err
	}
	return c.st.SetSetting(checkpointSettingKey, string(data))
}
