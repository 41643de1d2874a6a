package bilibili

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

// Stream is one downloadable asset with its fallback URL chain. The
// first URL is the platform's preferred CDN; the rest are backups
// tried in order.
type Stream struct {
	QualityID int64
	URLs      []string
}

// StreamInfo is the result of resolving a video's play URLs. Audio is
// empty when the platform served a combined container.
type StreamInfo struct {
	Video Stream
	Audio Stream
}

// Combined reports whether video and audio arrive as one file, in
// which case no merge step is needed.
func (s *StreamInfo) Combined() bool {
	return len(s.Audio.URLs) == 0
}

type dashStream struct {
	ID        int64    `json:"id"`
	BaseURL   string   `json:"base_url"`
	BackupURL []string `json:"backup_url"`
}

func (d dashStream) toStream() Stream {
	urls := make([]string, 0, 1+len(d.BackupURL))
	urls = append(urls, d.BaseURL)
	urls = append(urls, d.BackupURL...)
	return Stream{QualityID: d.ID, URLs: urls}
}

// VideoStreams resolves the media URLs for one video part. The best
// available quality is selected; an answer with no stream at all is
// ErrEmptyStream.
func (c *Client) VideoStreams(ctx context.Context, bvid string, cid int64) (*StreamInfo, error) {
	q := url.Values{}
	q.Set("bvid", bvid)
	q.Set("cid", strconv.FormatInt(cid, 10))
	q.Set("fnval", "16") // request DASH
	q.Set("fourk", "1")

	var payload struct {
		Dash struct {
			Video []dashStream `json:"video"`
			Audio []dashStream `json:"audio"`
		} `json:"dash"`
		Durl []struct {
			URL       string   `json:"url"`
			BackupURL []string `json:"backup_url"`
		} `json:"durl"`
	}
	if err := c.getJSON(ctx, "/x/player/playurl", q, &payload); err != nil {
		return nil, err
	}

	if len(payload.Dash.Video) > 0 {
		// Highest quality id first.
		sort.Slice(payload.Dash.Video, func(i, j int) bool {
			return payload.Dash.Video[i].ID > payload.Dash.Video[j].ID
		})
		info := &StreamInfo{Video: payload.Dash.Video[0].toStream()}
		if len(payload.Dash.Audio) > 0 {
			sort.Slice(payload.Dash.Audio, func(i, j int) bool {
				return payload.Dash.Audio[i].ID > payload.Dash.Audio[j].ID
			})
			info.Audio = payload.Dash.Audio[0].toStream()
		}
		return info, nil
	}

	if len(payload.Durl) > 0 {
		urls := make([]string, 0, 1+len(payload.Durl[0].BackupURL))
		urls = append(urls, payload.Durl[0].URL)
		urls = append(urls, payload.Durl[0].BackupURL...)
		return &StreamInfo{Video: Stream{URLs: urls}}, nil
	}

	return nil, ErrEmptyStream
}

// VideoDetail resolves the first part's cid and refreshed metadata for
// a single video. Sources whose listings do not carry a cid use this
// before downloading.
type VideoDetail struct {
	Bvid  string `json:"bvid"`
	Cid   int64  `json:"cid"`
	Title string `json:"title"`
	Pic   string `json:"pic"`
	Owner struct {
		Mid  int64  `json:"mid"`
		Name string `json:"name"`
	} `json:"owner"`
	State int64 `json:"state"`
}

func (c *Client) VideoInfo(ctx context.Context, bvid string) (*VideoDetail, error) {
	q := url.Values{}
	q.Set("bvid", bvid)

	var detail VideoDetail
	if err := c.getJSON(ctx, "/x/web-interface/view", q, &detail); err != nil {
		return nil, err
	}
	detail.Title = util.StripHTML(detail.Title)
	return &detail, nil
}
