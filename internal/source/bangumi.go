package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// Bangumi adapts an episodic series. The remote episode listing is a
// single document per season, so the whole subscription arrives as one
// page; multi-season subscriptions concatenate their selected seasons
// in order.
type Bangumi struct {
	row models.Bangumi
}

func NewBangumi(row models.Bangumi) *Bangumi {
	return &Bangumi{row: row}
}

func (b *Bangumi) Kind() models.SourceKind { return models.KindBangumi }
func (b *Bangumi) ID() int64               { return b.row.ID }
func (b *Bangumi) Name() string            { return b.row.Name }

func (b *Bangumi) Label() string {
	return fmt.Sprintf("bangumi %d (%s)", b.row.SeasonID, b.row.Name)
}

func (b *Bangumi) Path() string      { return b.row.Path }
func (b *Bangumi) Watermark() string { return b.row.LatestRowAt }

func (b *Bangumi) ShouldTake(remoteTime, watermark string) bool {
	return laterThan(remoteTime, watermark)
}

func (b *Bangumi) ItemTime(item models.RemoteItem) string { return item.Ctime }

// Episode listings run oldest first, so a stale episode early in the
// list says nothing about the tail.
func (b *Bangumi) Ordered() bool { return false }

func (b *Bangumi) ScanDeleted() bool { return b.row.ScanDeleted }

func (b *Bangumi) Bind(v *models.Video) {
	id := b.row.ID
	v.BangumiID = &id
}

func (b *Bangumi) Fetch(client *bilibili.Client) *bilibili.Pager {
	return bilibili.NewPager(b.Label(), func(ctx context.Context, page int) (*bilibili.Page, error) {
		var items []models.RemoteItem
		for _, sid := range b.selectedSeasons() {
			eps, err := client.SeasonEpisodes(ctx, sid)
			if err != nil {
				return nil, err
			}
			items = append(items, eps...)
		}
		return &bilibili.Page{Items: items, Total: int64(len(items)), HasMore: false}, nil
	})
}

func (b *Bangumi) CheckpointKey() string { return "" }

// selectedSeasons decodes the optional season restriction; an absent
// or malformed restriction means just the subscribed season itself.
func (b *Bangumi) selectedSeasons() []int64 {
	if b.row.SelectedSeasons != "" {
		var ids []int64
		if err := json.Unmarshal([]byte(b.row.SelectedSeasons), &ids); err == nil && len(ids) > 0 {
			return ids
		}
	}
	return []int64{b.row.SeasonID}
}
