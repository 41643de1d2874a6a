package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/testutil"
)

func TestListVideos(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	cookie := testutil.GetAuthCookie(t, server, "admin", "password123", "admin")

	st := server.Store()
	fav, err := st.CreateFavorite(301, "films", "favorites/films")
	if err != nil {
		t.Fatalf("creating source: %v", err)
	}
	for i := 0; i < 3; i++ {
		bvid := fmt.Sprintf("BV1vid%d", i)
		if _, err := st.InsertVideos([]models.Video{{
			FavoriteID: &fav.ID,
			Bvid:       bvid,
			Name:       "video " + bvid,
			Path:       "favorites/films/" + bvid,
			Valid:      true,
		}}); err != nil {
			t.Fatalf("inserting video: %v", err)
		}
	}

	rr := doJSON(t, server, cookie, "GET", fmt.Sprintf("/api/videos?kind=favorite&source_id=%d", fav.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list by source returned %d", rr.Code)
	}
	var videos []*models.Video
	if err := json.Unmarshal(rr.Body.Bytes(), &videos); err != nil {
		t.Fatalf("decoding videos: %v", err)
	}
	if len(videos) != 3 {
		t.Errorf("listed %d videos, want 3", len(videos))
	}

	rr = doJSON(t, server, cookie, "GET", "/api/videos?limit=2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("recent list returned %d", rr.Code)
	}
	videos = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &videos); err != nil {
		t.Fatalf("decoding recent videos: %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("recent list has %d videos, want the limit of 2", len(videos))
	}

	rr = doJSON(t, server, cookie, "GET", "/api/videos?kind=playlist&source_id=1", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown kind returned %d, want 400", rr.Code)
	}
}

func TestVideoStats(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	cookie := testutil.GetAuthCookie(t, server, "admin", "password123", "admin")

	st := server.Store()
	fav, err := st.CreateFavorite(301, "films", "favorites/films")
	if err != nil {
		t.Fatalf("creating source: %v", err)
	}
	inserted, err := st.InsertVideos([]models.Video{
		{FavoriteID: &fav.ID, Bvid: "BV1one", Name: "one", Path: "favorites/films/one", Valid: true},
		{FavoriteID: &fav.ID, Bvid: "BV1two", Name: "two", Path: "favorites/films/two", Valid: true},
	})
	if err != nil {
		t.Fatalf("inserting videos: %v", err)
	}
	if err := st.MarkVideoDownloaded(inserted[0].ID, "/library/favorites/films/one/one.mp4"); err != nil {
		t.Fatalf("marking downloaded: %v", err)
	}

	rr := doJSON(t, server, cookie, "GET", "/api/videos/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats returned %d", rr.Code)
	}
	var stats struct {
		Total      int `json:"total"`
		Downloaded int `json:"downloaded"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Total != 2 || stats.Downloaded != 1 {
		t.Errorf("stats = %+v, want 2 total / 1 downloaded", stats)
	}
}
