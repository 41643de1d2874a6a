// Package source defines the uniform contract over the five remote
// collection variants. The scan loop only ever sees the Adapter
// interface, so adding a sixth variant means writing one new
// implementation, not touching the orchestration.
package source

import (
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

type Adapter interface {
	Kind() models.SourceKind
	// ID is the row id within the variant's own table.
	ID() int64
	Name() string
	// Label identifies the source in logs and scan summaries.
	Label() string
	// Path is the local storage root for this source's downloads.
	Path() string
	// Watermark is the latest-seen remote time, a decimal unix-seconds
	// string.
	Watermark() string
	// ShouldTake decides whether an item with the given remote time is
	// new enough to ingest.
	ShouldTake(remoteTime, watermark string) bool
	// ItemTime picks the watermark-relevant timestamp off an item:
	// favourited-at for favorites-style sources, publish time otherwise.
	ItemTime(item models.RemoteItem) string
	// Ordered reports whether the remote listing is newest first. An
	// ordered scan may stop at the first stale item; an unordered one
	// must walk the whole listing and filter.
	Ordered() bool
	// ScanDeleted reports whether locally known items that vanished
	// from the remote listing should be marked deleted.
	ScanDeleted() bool
	// Bind stamps this source's identity onto a newly ingested video.
	Bind(v *models.Video)
	// Fetch builds the lazy page sequence over the source's remote
	// listing.
	Fetch(client *bilibili.Client) *bilibili.Pager
	// CheckpointKey is the key under which mid-scan pagination progress
	// is persisted, or "" for variants that do not checkpoint.
	CheckpointKey() string
}

// laterThan compares two decimal unix-seconds strings numerically.
// Unparsable values count as zero, so a fresh source (watermark "0" or
// empty) takes everything.
func laterThan(remoteTime, watermark string) bool {
	return parseUnix(remoteTime) > parseUnix(watermark)
}

func parseUnix(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
