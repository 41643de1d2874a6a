package source

import (
	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// WatchLater adapts the account's watch-later queue. The queue's
// remote ordering is not reliably monotonic, so this variant ignores
// the watermark and re-reconciles the full list every sweep; the
// unique index on (watch_later_id, bvid) makes the re-ingestion
// idempotent.
type WatchLater struct {
	row models.WatchLater
}

func NewWatchLater(row models.WatchLater) *WatchLater {
	return &WatchLater{row: row}
}

func (w *WatchLater) Kind() models.SourceKind { return models.KindWatchLater }
func (w *WatchLater) ID() int64               { return w.row.ID }
func (w *WatchLater) Name() string            { return "watch later" }
func (w *WatchLater) Label() string           { return "watch later" }
func (w *WatchLater) Path() string            { return w.row.Path }
func (w *WatchLater) Watermark() string       { return w.row.LatestRowAt }

// ShouldTake always takes: full re-reconciliation is deliberate here,
// not an oversight.
func (w *WatchLater) ShouldTake(remoteTime, watermark string) bool { return true }

func (w *WatchLater) ItemTime(item models.RemoteItem) string { return item.FavTime }

func (w *WatchLater) Ordered() bool { return false }

func (w *WatchLater) ScanDeleted() bool { return w.row.ScanDeleted }

func (w *WatchLater) Bind(v *models.Video) {
	id := w.row.ID
	v.WatchLaterID = &id
}

func (w *WatchLater) Fetch(client *bilibili.Client) *bilibili.Pager {
	return bilibili.NewPager(w.Label(), client.WatchLaterList)
}

func (w *WatchLater) CheckpointKey() string { return "" }
