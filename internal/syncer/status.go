package syncer

import (
	"sync/atomic"
	"time"
)

// TaskStatus is the scheduler's externally visible state. It is
// replaced as a whole on every transition, so readers always see a
// consistent snapshot.
type TaskStatus struct {
	IsRunning  bool      `json:"is_running"`
	LastRun    time.Time `json:"last_run,omitempty"`
	LastFinish time.Time `json:"last_finish,omitempty"`
	NextRun    time.Time `json:"next_run,omitempty"`
}

// StatusPublisher hands the current TaskStatus to any number of
// observers without them touching the scan loop.
type StatusPublisher struct {
	v atomic.Value
}

func NewStatusPublisher() *StatusPublisher {
	p := &StatusPublisher{}
	p.v.Store(TaskStatus{})
	return p
}

// Current returns the latest published snapshot.
func (p *StatusPublisher) Current() TaskStatus {
	return p.v.Load().(TaskStatus)
}

// Publish atomically replaces the snapshot.
func (p *StatusPublisher) Publish(s TaskStatus) {
	p.v.Store(s)
}
