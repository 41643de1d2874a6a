package syncer

import (
	"context"
	"sync/atomic"
	"time"
)

const pausePollInterval = 100 * time.Millisecond

// PauseController is the cooperative pause flag the sweep consults
// between sources. Pausing never interrupts the source currently
// being scanned; it takes effect before the next one starts.
type PauseController struct {
	paused atomic.Bool
}

func (p *PauseController) Pause()       { p.paused.Store(true) }
func (p *PauseController) Resume()      { p.paused.Store(false) }
func (p *PauseController) Paused() bool { return p.paused.Load() }

// Wait blocks while the flag is set, polling at a fixed short
// interval, and returns early when ctx is cancelled.
func (p *PauseController) Wait(ctx context.Context) error {
	for p.paused.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pausePollInterval):
		}
	}
	return ctx.Err()
}
