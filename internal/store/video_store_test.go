package store_test

import (
	"testing"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/store"
	"github.com/tonylu00/bili-sync-sub002/internal/testutil"
)

func TestInsertVideosSkipsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}

	inserted, err := s.InsertVideos([]models.Video{
		{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "first", Ctime: "100", FavTime: "200", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1yy411c7mE", Name: "second", Ctime: "101", FavTime: "201", Valid: true},
	})
	if err != nil {
		t.Fatalf("InsertVideos failed: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("Expected 2 inserted videos, got %d", len(inserted))
	}
	if inserted[0].ID == 0 || inserted[1].ID == 0 {
		t.Error("Expected assigned ids on inserted videos")
	}

	// A second sweep re-discovers one known item plus one new item. Only
	// the new one should land.
	again, err := s.InsertVideos([]models.Video{
		{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "first", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1zz411c7mF", Name: "third", Valid: true},
	})
	if err != nil {
		t.Fatalf("InsertVideos (repeat) failed: %v", err)
	}
	if len(again) != 1 || again[0].Bvid != "BV1zz411c7mF" {
		t.Fatalf("Expected only the new video to be inserted, got %+v", again)
	}

	videos, err := s.ListVideosBySource(models.KindFavorite, f.ID)
	if err != nil {
		t.Fatalf("ListVideosBySource failed: %v", err)
	}
	if len(videos) != 3 {
		t.Errorf("Expected 3 videos total, got %d", len(videos))
	}
}

func TestSameVideoAcrossSources(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}
	sub, err := s.CreateSubmission(555, "some creator", "/v/creator")
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}

	// The same bvid tracked by two sources yields two independent rows.
	first, err := s.InsertVideos([]models.Video{{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "v", Valid: true}})
	if err != nil {
		t.Fatalf("InsertVideos (favorite) failed: %v", err)
	}
	second, err := s.InsertVideos([]models.Video{{SubmissionID: &sub.ID, Bvid: "BV1xx411c7mD", Name: "v", Valid: true}})
	if err != nil {
		t.Fatalf("InsertVideos (submission) failed: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected one row per source, got %d and %d", len(first), len(second))
	}
	if first[0].ID == second[0].ID {
		t.Error("Expected distinct rows for the same bvid under different sources")
	}
}

func TestVideoUpdates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}
	inserted, err := s.InsertVideos([]models.Video{{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "v", Valid: true}})
	if err != nil {
		t.Fatalf("InsertVideos failed: %v", err)
	}
	id := inserted[0].ID

	if err := s.UpdateVideoDetail(id, 9001, 555, "some creator"); err != nil {
		t.Fatalf("UpdateVideoDetail failed: %v", err)
	}
	if err := s.MarkVideoDownloaded(id, "/v/music/v.mp4"); err != nil {
		t.Fatalf("MarkVideoDownloaded failed: %v", err)
	}
	if err := s.UpdateVideoThumbnail(id, "data:image/jpeg;base64,xxxx"); err != nil {
		t.Fatalf("UpdateVideoThumbnail failed: %v", err)
	}

	v, err := s.GetVideoByID(id)
	if err != nil {
		t.Fatalf("GetVideoByID failed: %v", err)
	}
	if v.Cid != 9001 || v.UpperID != 555 || v.UpperName != "some creator" {
		t.Errorf("Detail update not applied: %+v", v)
	}
	if !v.Downloaded || v.Path != "/v/music/v.mp4" {
		t.Errorf("Download state not applied: %+v", v)
	}
	if v.Thumbnail != "data:image/jpeg;base64,xxxx" {
		t.Errorf("Thumbnail not applied: %q", v.Thumbnail)
	}

	if err := s.SetVideoValid(id, false); err != nil {
		t.Fatalf("SetVideoValid failed: %v", err)
	}
	v, _ = s.GetVideoByID(id)
	if v.Valid {
		t.Error("Expected video to be marked invalid")
	}

	if _, err := s.GetVideoByID(99999); err != store.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMarkMissingDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}
	_, err = s.InsertVideos([]models.Video{
		{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "keep", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1yy411c7mE", Name: "gone", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1zz411c7mF", Name: "also gone", Valid: true},
	})
	if err != nil {
		t.Fatalf("InsertVideos failed: %v", err)
	}

	seen := map[string]bool{"BV1xx411c7mD": true}
	n, err := s.MarkMissingDeleted(models.KindFavorite, f.ID, seen)
	if err != nil {
		t.Fatalf("MarkMissingDeleted failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 videos marked deleted, got %d", n)
	}

	videos, _ := s.ListVideosBySource(models.KindFavorite, f.ID)
	for _, v := range videos {
		wantDeleted := v.Bvid != "BV1xx411c7mD"
		if v.Deleted != wantDeleted {
			t.Errorf("Video %s: deleted=%v, want %v", v.Bvid, v.Deleted, wantDeleted)
		}
	}

	// Running again with the same listing is a no-op.
	n, err = s.MarkMissingDeleted(models.KindFavorite, f.ID, seen)
	if err != nil {
		t.Fatalf("MarkMissingDeleted (repeat) failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no further deletions, got %d", n)
	}
}

func TestVideoStatsAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}
	inserted, err := s.InsertVideos([]models.Video{
		{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "a", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1yy411c7mE", Name: "b", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1zz411c7mF", Name: "c", Valid: false},
	})
	if err != nil {
		t.Fatalf("InsertVideos failed: %v", err)
	}
	if err := s.MarkVideoDownloaded(inserted[0].ID, "/v/music/a.mp4"); err != nil {
		t.Fatalf("MarkVideoDownloaded failed: %v", err)
	}

	stats, err := s.GetVideoStats()
	if err != nil {
		t.Fatalf("GetVideoStats failed: %v", err)
	}
	if stats.Total != 3 || stats.Downloaded != 1 || stats.Invalid != 1 || stats.Deleted != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	recent, err := s.ListRecentVideos(2)
	if err != nil {
		t.Fatalf("ListRecentVideos failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent videos, got %d", len(recent))
	}
	if recent[0].Bvid != "BV1zz411c7mF" {
		t.Errorf("Expected newest video first, got %s", recent[0].Bvid)
	}
}
