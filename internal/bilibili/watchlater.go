package bilibili

import (
	"context"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

type watchLaterItem struct {
	Aid   int64  `json:"aid"`
	Bvid  string `json:"bvid"`
	Cid   int64  `json:"cid"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Pic   string `json:"pic"`
	Owner struct {
		Mid  int64  `json:"mid"`
		Name string `json:"name"`
	} `json:"owner"`
	Pubdate int64 `json:"pubdate"`
	AddAt   int64 `json:"add_at"`
	State   int64 `json:"state"`
}

// WatchLaterList fetches the account's entire watch-later queue in one
// call; the endpoint is not paginated. The page argument exists so the
// method satisfies PageFunc.
func (c *Client) WatchLaterList(ctx context.Context, page int) (*Page, error) {
	var payload struct {
		Count int64            `json:"count"`
		List  []watchLaterItem `json:"list"`
	}
	if err := c.getJSON(ctx, "/x/v2/history/toview", nil, &payload); err != nil {
		return nil, err
	}

	items := make([]models.RemoteItem, 0, len(payload.List))
	for _, v := range payload.List {
		items = append(items, models.RemoteItem{
			Bvid:      v.Bvid,
			Cid:       v.Cid,
			Name:      util.StripHTML(v.Title),
			Intro:     util.StripHTML(v.Desc),
			Cover:     v.Pic,
			UpperID:   v.Owner.Mid,
			UpperName: v.Owner.Name,
			Ctime:     strconv.FormatInt(v.Pubdate, 10),
			FavTime:   strconv.FormatInt(v.AddAt, 10),
			Invalid:   v.State < 0,
		})
	}
	return &Page{Items: items, Total: payload.Count, HasMore: false}, nil
}
