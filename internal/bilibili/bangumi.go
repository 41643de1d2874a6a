package bilibili

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

// SeasonMeta describes one season of an episodic series, including
// sibling seasons so a subscription can select a subset.
type SeasonMeta struct {
	SeasonID int64  `json:"season_id"`
	MediaID  int64  `json:"media_id"`
	Title    string `json:"title"`
	Seasons  []struct {
		SeasonID int64  `json:"season_id"`
		Title    string `json:"season_title"`
	} `json:"seasons"`
}

type bangumiEpisode struct {
	ID        int64  `json:"id"`
	Aid       int64  `json:"aid"`
	Bvid      string `json:"bvid"`
	Cid       int64  `json:"cid"`
	Title     string `json:"title"`
	LongTitle string `json:"long_title"`
	Cover     string `json:"cover"`
	PubTime   int64  `json:"pub_time"`
}

// SeasonInfo fetches season-level metadata for registration.
func (c *Client) SeasonInfo(ctx context.Context, seasonID int64) (*SeasonMeta, error) {
	q := url.Values{}
	q.Set("season_id", strconv.FormatInt(seasonID, 10))

	var meta SeasonMeta
	if err := c.getPGC(ctx, "/pgc/view/web/season", q, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SeasonEpisodes fetches every episode of one season. The endpoint is
// not paginated; callers that track multiple seasons call this once
// per selected season.
func (c *Client) SeasonEpisodes(ctx context.Context, seasonID int64) ([]models.RemoteItem, error) {
	q := url.Values{}
	q.Set("season_id", strconv.FormatInt(seasonID, 10))

	var payload struct {
		Episodes []bangumiEpisode `json:"episodes"`
	}
	if err := c.getPGC(ctx, "/pgc/view/web/season", q, &payload); err != nil {
		return nil, err
	}

	items := make([]models.RemoteItem, 0, len(payload.Episodes))
	for _, ep := range payload.Episodes {
		name := ep.Title
		if ep.LongTitle != "" {
			name = ep.Title + " " + ep.LongTitle
		}
		items = append(items, models.RemoteItem{
			Bvid:    ep.Bvid,
			Cid:     ep.Cid,
			EpID:    ep.ID,
			Name:    util.StripHTML(name),
			Cover:   ep.Cover,
			Ctime:   strconv.FormatInt(ep.PubTime, 10),
		})
	}
	return items, nil
}
