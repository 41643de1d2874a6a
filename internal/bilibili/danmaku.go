package bilibili

import (
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

const danmakuListPath = "/x/v1/dm/list.so"

// DanmakuXML fetches the overlay-comment track for one video part.
// The endpoint serves raw-deflate compressed XML; some mirrors serve
// it uncompressed, so the body is sniffed before inflating.
func (c *Client) DanmakuXML(ctx context.Context, cid int64) ([]byte, error) {
	q := url.Values{}
	q.Set("oid", strconv.FormatInt(cid, 10))

	body, status, err := c.get(ctx, danmakuListPath, q)
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, &ProtocolError{Endpoint: danmakuListPath, Reason: fmt.Sprintf("unexpected HTTP status %d", status)}
	}
	if len(body) == 0 {
		return nil, &ProtocolError{Endpoint: danmakuListPath, Reason: "empty body"}
	}

	if body[0] == '<' {
		return body, nil
	}

	fr := flate.NewReader(bytes.NewReader(body))
	defer fr.Close()
	xmlData, err := io.ReadAll(fr)
	if err != nil {
		return nil, &ProtocolError{Endpoint: danmakuListPath, Reason: "body is neither XML nor deflate data"}
	}
	return xmlData, nil
}
