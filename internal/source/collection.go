package source

import (
	"context"
	"fmt"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// Collection adapts a creator-curated collection, identified remotely
// by the (season id, owner mid) pair.
type Collection struct {
	row models.Collection
}

func NewCollection(row models.Collection) *Collection {
	return &Collection{row: row}
}

func (c *Collection) Kind() models.SourceKind { return models.KindCollection }
func (c *Collection) ID() int64               { return c.row.ID }
func (c *Collection) Name() string            { return c.row.Name }

func (c *Collection) Label() string {
	return fmt.Sprintf("collection %d/%d (%s)", c.row.SID, c.row.MID, c.row.Name)
}

func (c *Collection) Path() string      { return c.row.Path }
func (c *Collection) Watermark() string { return c.row.LatestRowAt }

func (c *Collection) ShouldTake(remoteTime, watermark string) bool {
	return laterThan(remoteTime, watermark)
}

func (c *Collection) ItemTime(item models.RemoteItem) string { return item.Ctime }

func (c *Collection) Ordered() bool { return true }

func (c *Collection) ScanDeleted() bool { return c.row.ScanDeleted }

func (c *Collection) Bind(v *models.Video) {
	id := c.row.ID
	v.CollectionID = &id
}

func (c *Collection) Fetch(client *bilibili.Client) *bilibili.Pager {
	return bilibili.NewPager(c.Label(), func(ctx context.Context, page int) (*bilibili.Page, error) {
		return client.CollectionPage(ctx, c.row.MID, c.row.SID, page)
	})
}

func (c *Collection) CheckpointKey() string { return "" }
