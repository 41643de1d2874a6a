package bilibili

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

const submissionListPath = "/x/space/wbi/arc/search"

// UpperMeta names a creator; fetched when a submission source is
// registered.
type UpperMeta struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
	Face string `json:"face"`
}

// UpperInfo fetches a creator's public card.
func (c *Client) UpperInfo(ctx context.Context, mid int64) (*UpperMeta, error) {
	q := url.Values{}
	q.Set("mid", strconv.FormatInt(mid, 10))

	var payload struct {
		Card UpperMeta `json:"card"`
	}
	if err := c.getJSON(ctx, "/x/web-interface/card", q, &payload); err != nil {
		return nil, err
	}
	return &payload.Card, nil
}

type submissionVideo struct {
	Aid         int64  `json:"aid"`
	Bvid        string `json:"bvid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Pic         string `json:"pic"`
	Mid         int64  `json:"mid"`
	Author      string `json:"author"`
	Created     int64  `json:"created"`
}

// SubmissionPage fetches one 30-item page of a creator's uploads,
// newest first.
func (c *Client) SubmissionPage(ctx context.Context, mid int64, page int) (*Page, error) {
	q := url.Values{}
	q.Set("mid", strconv.FormatInt(mid, 10))
	q.Set("pn", strconv.Itoa(page))
	q.Set("ps", strconv.Itoa(submissionPageSize))
	q.Set("order", "pubdate")

	var payload struct {
		List struct {
			Vlist []submissionVideo `json:"vlist"`
		} `json:"list"`
		Page struct {
			Count int64 `json:"count"`
		} `json:"page"`
		HasMore json.RawMessage `json:"has_more"`
	}
	if err := c.getJSON(ctx, submissionListPath, q, &payload); err != nil {
		return nil, err
	}

	if len(payload.List.Vlist) == 0 {
		return &Page{Total: payload.Page.Count}, nil
	}
	hasMore, err := decodeHasMore(submissionListPath, payload.HasMore)
	if err != nil {
		return nil, err
	}

	items := make([]models.RemoteItem, 0, len(payload.List.Vlist))
	for _, v := range payload.List.Vlist {
		items = append(items, models.RemoteItem{
			Bvid:      v.Bvid,
			Name:      util.StripHTML(v.Title),
			Intro:     util.StripHTML(v.Description),
			Cover:     v.Pic,
			UpperID:   v.Mid,
			UpperName: v.Author,
			Ctime:     strconv.FormatInt(v.Created, 10),
		})
	}
	return &Page{Items: items, Total: payload.Page.Count, HasMore: hasMore}, nil
}
