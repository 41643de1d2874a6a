package bilibili

import (
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(&CredentialHeaders{SessData: "test-session"}, WithBaseURL(server.URL))
}

func TestFavoritePageDecodesItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("media_id"); got != "42" {
			t.Errorf("media_id = %s, want 42", got)
		}
		if cookie := r.Header.Get("Cookie"); cookie != "SESSDATA=test-session" {
			t.Errorf("Cookie = %q, want session cookie", cookie)
		}
		fmt.Fprint(w, `{"code":0,"message":"0","data":{
			"info":{"media_count":2},
			"medias":[
				{"id":111,"bvid":"BV1a","title":"First <em class=\"keyword\">video</em>","intro":"hi","cover":"http://c/1.jpg",
				 "attr":0,"upper":{"mid":7,"name":"alice"},"ctime":1700000000,"fav_time":1700000100,"ugc":{"first_cid":9001}},
				{"id":222,"bvid":"BV1b","title":"Second","intro":"","cover":"http://c/2.jpg",
				 "attr":9,"upper":{"mid":8,"name":"bob"},"ctime":1699990000,"fav_time":1700000200,"ugc":{"first_cid":9002}}
			],
			"has_more":false}}`)
	})

	page, err := client.FavoritePage(context.Background(), 42, 1)
	if err != nil {
		t.Fatalf("FavoritePage failed: %v", err)
	}
	if page.Total != 2 || page.HasMore {
		t.Errorf("page meta = total %d hasMore %v, want 2/false", page.Total, page.HasMore)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}

	first := page.Items[0]
	if first.Bvid != "BV1a" || first.Cid != 9001 {
		t.Errorf("first item identity = %s/%d", first.Bvid, first.Cid)
	}
	if first.Name != "First video" {
		t.Errorf("title markup not stripped: %q", first.Name)
	}
	if first.Ctime != "1700000000" || first.FavTime != "1700000100" {
		t.Errorf("times = %s/%s, want decimal unix strings", first.Ctime, first.FavTime)
	}
	if first.Invalid {
		t.Error("first item should be valid")
	}
	if !page.Items[1].Invalid {
		t.Error("attr != 0 item should be flagged invalid")
	}
}

func TestFavoritePageMissingHasMore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"0","data":{
			"info":{"media_count":1},
			"medias":[{"id":1,"bvid":"BV1a","title":"x","upper":{"mid":1,"name":"a"},"ctime":1,"fav_time":2}]}}`)
	})

	_, err := client.FavoritePage(context.Background(), 42, 1)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
}

func TestFavoritePageNonBooleanHasMore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"0","data":{
			"info":{"media_count":1},
			"medias":[{"id":1,"bvid":"BV1a","title":"x","upper":{"mid":1,"name":"a"},"ctime":1,"fav_time":2}],
			"has_more":"yes"}}`)
	})

	_, err := client.FavoritePage(context.Background(), 42, 1)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
}

func TestFavoritePageEmptyDoesNotRequireHasMore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"0","data":{"info":{"media_count":5},"medias":[]}}`)
	})

	page, err := client.FavoritePage(context.Background(), 42, 3)
	if err != nil {
		t.Fatalf("FavoritePage failed: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("expected a terminal empty page, got %+v", page)
	}
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
}

func TestGetJSONSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		fmt.Fprint(w, `{"code":-412,"message":"request was blocked","data":{"v_voucher":"voucher_123"}}`)
	})

	_, err := client.FavoritePage(context.Background(), 42, 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Code != -412 {
		t.Errorf("code = %d, want -412", apiErr.Code)
	}
	if apiErr.Voucher != "voucher_123" {
		t.Errorf("voucher = %q, want voucher_123", apiErr.Voucher)
	}
	if c := Classify(err); c.Kind != FailRiskControl || c.Retryable {
		t.Errorf("classification = %+v, want non-retryable risk control", c)
	}
}

func TestGetJSONRejectsNonJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	})

	_, err := client.FavoritePage(context.Background(), 42, 1)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
}

func TestVideoStreamsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"0","data":{"dash":{"video":[],"audio":[]},"durl":[]}}`)
	})

	_, err := client.VideoStreams(context.Background(), "BV1a", 9001)
	if !errors.Is(err, ErrEmptyStream) {
		t.Fatalf("err = %v, want ErrEmptyStream", err)
	}
	if c := Classify(err); c.Kind != FailEmptyStream || c.Retryable {
		t.Errorf("classification = %+v, want non-retryable empty stream", c)
	}
}

func TestVideoStreamsPicksBestQualityWithBackups(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"0","data":{"dash":{
			"video":[
				{"id":32,"base_url":"http://cdn/low","backup_url":[]},
				{"id":80,"base_url":"http://cdn/high","backup_url":["http://cdn2/high"]}
			],
			"audio":[{"id":30280,"base_url":"http://cdn/audio","backup_url":[]}]}}}`)
	})

	info, err := client.VideoStreams(context.Background(), "BV1a", 9001)
	if err != nil {
		t.Fatalf("VideoStreams failed: %v", err)
	}
	if info.Combined() {
		t.Error("dash response should have separate audio")
	}
	if info.Video.QualityID != 80 {
		t.Errorf("video quality = %d, want 80", info.Video.QualityID)
	}
	if len(info.Video.URLs) != 2 || info.Video.URLs[0] != "http://cdn/high" {
		t.Errorf("video urls = %v, want primary then backup", info.Video.URLs)
	}
}

func TestDanmakuXMLInflatesDeflateBody(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?><i><d p="1.5,1,25,16777215,1700000000,0,abc,1">hello</d></i>`

	var compressed bytes.Buffer
	fw, _ := flate.NewWriter(&compressed, flate.DefaultCompression)
	fw.Write([]byte(xml))
	fw.Close()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(compressed.Bytes())
	})

	got, err := client.DanmakuXML(context.Background(), 9001)
	if err != nil {
		t.Fatalf("DanmakuXML failed: %v", err)
	}
	if string(got) != xml {
		t.Errorf("inflated body mismatch:\n got: %s\nwant: %s", got, xml)
	}
}

func TestDanmakuXMLPassesThroughPlainXML(t *testing.T) {
	xml := `<i><d p="1.5,1,25,16777215,1700000000,0,abc,1">hello</d></i>`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, xml)
	})

	got, err := client.DanmakuXML(context.Background(), 9001)
	if err != nil {
		t.Fatalf("DanmakuXML failed: %v", err)
	}
	if string(got) != xml {
		t.Errorf("body mismatch: %s", got)
	}
}
