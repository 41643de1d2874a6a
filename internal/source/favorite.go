package source

import (
	"context"
	"fmt"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// Favorite adapts a remote favorites folder. Items carry a
// favourited-at time, which is what the watermark tracks.
type Favorite struct {
	row models.Favorite
}

func NewFavorite(row models.Favorite) *Favorite {
	return &Favorite{row: row}
}

func (f *Favorite) Kind() models.SourceKind { return models.KindFavorite }
func (f *Favorite) ID() int64               { return f.row.ID }
func (f *Favorite) Name() string            { return f.row.Name }

func (f *Favorite) Label() string {
	return fmt.Sprintf("favorite %d (%s)", f.row.FID, f.row.Name)
}

func (f *Favorite) Path() string      { return f.row.Path }
func (f *Favorite) Watermark() string { return f.row.LatestRowAt }

func (f *Favorite) ShouldTake(remoteTime, watermark string) bool {
	return laterThan(remoteTime, watermark)
}

func (f *Favorite) ItemTime(item models.RemoteItem) string { return item.FavTime }

func (f *Favorite) Ordered() bool { return true }

func (f *Favorite) ScanDeleted() bool { return f.row.ScanDeleted }

func (f *Favorite) Bind(v *models.Video) {
	id := f.row.ID
	v.FavoriteID = &id
}

func (f *Favorite) Fetch(client *bilibili.Client) *bilibili.Pager {
	return bilibili.NewPager(f.Label(), func(ctx context.Context, page int) (*bilibili.Page, error) {
		return client.FavoritePage(ctx, f.row.FID, page)
	})
}

func (f *Favorite) CheckpointKey() string { return "" }
