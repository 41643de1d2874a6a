package bilibili

import (
	"context"
	"log"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// PageFunc fetches one 1-based page of a remote listing.
type PageFunc func(ctx context.Context, page int) (*Page, error)

// Pager yields the items of a paged listing one at a time, fetching
// pages only when the previous one is exhausted. It is not safe for
// concurrent use.
//
// The listing ends cleanly when a page comes back empty. If the remote
// still reports a nonzero total at that point it has filtered content
// server side; that is logged and treated as end of data, not as an
// error.
type Pager struct {
	fetch PageFunc
	label string

	page     int // page currently buffered, 1-based
	index    int // items of the buffered page already yielded
	skip     int // pending resume offset for the first fetched page
	buf      []models.RemoteItem
	lastPage bool
	started  bool
	finished bool
}

// NewPager returns a pager positioned at page 1. The label identifies
// the source in log lines.
func NewPager(label string, fetch PageFunc) *Pager {
	return &Pager{fetch: fetch, label: label, page: 1}
}

// Resume positions the pager at a checkpoint: fetching restarts at
// page, and index items of that page are skipped as already ingested.
// Must be called before the first Next.
func (p *Pager) Resume(page, index int) {
	if p.started || page < 1 {
		return
	}
	p.page = page
	p.skip = index
}

// Pos reports pagination progress as (page, items consumed within that
// page). It always points at the last consumed item, so it is valid as
// a checkpoint after any Next, including one that returned an error.
func (p *Pager) Pos() (page, index int) {
	if !p.started {
		// Nothing consumed yet; report the resume position unchanged.
		return p.page, p.skip
	}
	return p.page, p.index
}

// Next returns the next item in page order. The second return is false
// when the listing is exhausted. An error ends the sequence; the pager
// stays finished afterwards.
func (p *Pager) Next(ctx context.Context) (models.RemoteItem, bool, error) {
	for {
		if p.index < len(p.buf) {
			item := p.buf[p.index]
			p.index++
			return item, true, nil
		}
		if p.finished || (p.started && p.lastPage) {
			p.finished = true
			return models.RemoteItem{}, false, nil
		}
		if p.started {
			p.page++
		}

		pg, err := p.fetch(ctx, p.page)
		if err != nil {
			// The requested page yielded nothing; step back so Pos keeps
			// pointing at the last consumed item instead of a page that
			// was never processed.
			if p.started {
				p.page--
			}
			p.finished = true
			return models.RemoteItem{}, false, err
		}
		p.started = true

		if len(pg.Items) == 0 {
			if pg.Total > 0 {
				log.Printf("sync %s: page %d is empty though the remote reports %d matching items; assuming server-side filtering and stopping", p.label, p.page, pg.Total)
			}
			p.finished = true
			return models.RemoteItem{}, false, nil
		}

		p.buf = pg.Items
		p.index = p.skip
		p.skip = 0
		p.lastPage = !pg.HasMore
	}
}
