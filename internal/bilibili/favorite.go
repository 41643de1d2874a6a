package bilibili

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

const favResourceListPath = "/x/v3/fav/resource/list"

// FavoriteMeta is the folder-level metadata used when a favorites
// source is first registered.
type FavoriteMeta struct {
	FID        int64  `json:"id"`
	Title      string `json:"title"`
	MediaCount int64  `json:"media_count"`
	Upper      struct {
		Mid  int64  `json:"mid"`
		Name string `json:"name"`
	} `json:"upper"`
}

// FavoriteInfo fetches metadata for one favorites folder.
func (c *Client) FavoriteInfo(ctx context.Context, fid int64) (*FavoriteMeta, error) {
	q := url.Values{}
	q.Set("media_id", strconv.FormatInt(fid, 10))

	var meta FavoriteMeta
	if err := c.getJSON(ctx, "/x/v3/fav/folder/info", q, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

type favMedia struct {
	ID    int64  `json:"id"`
	Bvid  string `json:"bvid"`
	Title string `json:"title"`
	Intro string `json:"intro"`
	Cover string `json:"cover"`
	// Attr is nonzero when the item has been taken down or hidden.
	Attr  int64 `json:"attr"`
	Upper struct {
		Mid  int64  `json:"mid"`
		Name string `json:"name"`
	} `json:"upper"`
	Ctime   int64 `json:"ctime"`
	FavTime int64 `json:"fav_time"`
	Ugc     struct {
		FirstCid int64 `json:"first_cid"`
	} `json:"ugc"`
}

func (m favMedia) toRemoteItem() models.RemoteItem {
	return models.RemoteItem{
		Bvid:      m.Bvid,
		Cid:       m.Ugc.FirstCid,
		Name:      util.StripHTML(m.Title),
		Intro:     util.StripHTML(m.Intro),
		Cover:     m.Cover,
		UpperID:   m.Upper.Mid,
		UpperName: m.Upper.Name,
		Ctime:     strconv.FormatInt(m.Ctime, 10),
		FavTime:   strconv.FormatInt(m.FavTime, 10),
		Invalid:   m.Attr != 0,
	}
}

// FavoritePage fetches one 20-item page of a favorites folder, newest
// favourited first.
func (c *Client) FavoritePage(ctx context.Context, fid int64, page int) (*Page, error) {
	q := url.Values{}
	q.Set("media_id", strconv.FormatInt(fid, 10))
	q.Set("pn", strconv.Itoa(page))
	q.Set("ps", strconv.Itoa(favoritePageSize))
	q.Set("order", "mtime")

	var payload struct {
		Info struct {
			MediaCount int64 `json:"media_count"`
		} `json:"info"`
		Medias  []favMedia      `json:"medias"`
		HasMore json.RawMessage `json:"has_more"`
	}
	if err := c.getJSON(ctx, favResourceListPath, q, &payload); err != nil {
		return nil, err
	}

	if len(payload.Medias) == 0 {
		// An empty page ends the listing; has_more is not consulted.
		return &Page{Total: payload.Info.MediaCount}, nil
	}
	hasMore, err := decodeHasMore(favResourceListPath, payload.HasMore)
	if err != nil {
		return nil, err
	}

	items := make([]models.RemoteItem, 0, len(payload.Medias))
	for _, m := range payload.Medias {
		items = append(items, m.toRemoteItem())
	}
	return &Page{Items: items, Total: payload.Info.MediaCount, HasMore: hasMore}, nil
}
