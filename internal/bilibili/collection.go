package bilibili

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

const collectionListPath = "/x/polymer/web-space/seasons_archives_list"

// CollectionMeta names a collection; fetched from the first page when
// the source is registered.
type CollectionMeta struct {
	Name  string
	Total int64
}

type collectionArchive struct {
	Aid     int64  `json:"aid"`
	Bvid    string `json:"bvid"`
	Title   string `json:"title"`
	Pic     string `json:"pic"`
	Pubdate int64  `json:"pubdate"`
}

type collectionPayload struct {
	Meta struct {
		Name string `json:"name"`
	} `json:"meta"`
	Archives []collectionArchive `json:"archives"`
	Page     struct {
		Total int64 `json:"total"`
	} `json:"page"`
	HasMore json.RawMessage `json:"has_more"`
}

func (c *Client) collectionList(ctx context.Context, mid, sid int64, page int) (*collectionPayload, error) {
	q := url.Values{}
	q.Set("mid", strconv.FormatInt(mid, 10))
	q.Set("season_id", strconv.FormatInt(sid, 10))
	q.Set("page_num", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(collectionPageSize))
	q.Set("sort_reverse", "false")

	var payload collectionPayload
	if err := c.getJSON(ctx, collectionListPath, q, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CollectionInfo fetches a collection's name and size from its first
// page.
func (c *Client) CollectionInfo(ctx context.Context, mid, sid int64) (*CollectionMeta, error) {
	payload, err := c.collectionList(ctx, mid, sid, 1)
	if err != nil {
		return nil, err
	}
	if payload.Meta.Name == "" {
		return nil, &ProtocolError{Endpoint: collectionListPath, Reason: "collection meta missing"}
	}
	return &CollectionMeta{Name: payload.Meta.Name, Total: payload.Page.Total}, nil
}

// CollectionPage fetches one 20-item page of a collection, in the
// owner's curated order. Every archive belongs to the owning creator
// mid; the listing does not carry the owner's display name, so
// UpperName stays empty until the item's detail is fetched.
func (c *Client) CollectionPage(ctx context.Context, mid, sid int64, page int) (*Page, error) {
	payload, err := c.collectionList(ctx, mid, sid, page)
	if err != nil {
		return nil, err
	}

	if len(payload.Archives) == 0 {
		return &Page{Total: payload.Page.Total}, nil
	}
	hasMore, err := decodeHasMore(collectionListPath, payload.HasMore)
	if err != nil {
		return nil, err
	}

	items := make([]models.RemoteItem, 0, len(payload.Archives))
	for _, a := range payload.Archives {
		items = append(items, models.RemoteItem{
			Bvid:    a.Bvid,
			Name:    util.StripHTML(a.Title),
			Cover:   a.Pic,
			UpperID: mid,
			Ctime:   strconv.FormatInt(a.Pubdate, 10),
		})
	}
	return &Page{Items: items, Total: payload.Page.Total, HasMore: hasMore}, nil
}
