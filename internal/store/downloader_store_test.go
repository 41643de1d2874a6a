package store_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/store"
	"github.com/tonylu00/bili-sync-sub002/internal/testutil"
)

// seedQueue inserts a favorite with one video per status and returns
// the queue item ids keyed by status.
func seedQueue(t *testing.T, db *sql.DB, s *store.Store, statuses ...string) map[string]int64 {
	t.Helper()
	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}

	ids := make(map[string]int64)
	for i, status := range statuses {
		res, err := db.Exec(`INSERT INTO videos (favorite_id, bvid, name, created_at) VALUES (?, ?, ?, ?)`,
			f.ID, "BV"+string(rune('a'+i)), "video", time.Now())
		if err != nil {
			t.Fatalf("Failed to insert video: %v", err)
		}
		videoID, _ := res.LastInsertId()
		res, err = db.Exec(`INSERT INTO download_queue (video_id, status, created_at) VALUES (?, ?, ?)`,
			videoID, status, time.Now().Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("Failed to insert queue item: %v", err)
		}
		ids[status], _ = res.LastInsertId()
	}
	return ids
}

func TestGetDownloadQueue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	seedQueue(t, db, s, "queued", "in_progress")

	items, err := s.GetDownloadQueue()
	if err != nil {
		t.Fatalf("GetDownloadQueue failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(items))
	}
	if items[0].Bvid == "" || items[0].Name == "" {
		t.Errorf("Expected joined video fields to be populated, got %+v", items[0])
	}
}

func TestGetQueuedDownloadItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	seedQueue(t, db, s, "queued", "in_progress")

	items, err := s.GetQueuedDownloadItems(5)
	if err != nil {
		t.Fatalf("GetQueuedDownloadItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 queued item, got %d", len(items))
	}
	if items[0].Status != models.StatusQueued {
		t.Errorf("Expected status 'queued', got '%s'", items[0].Status)
	}
}

func TestEnqueueVideosIgnoresAlreadyQueued(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f, err := s.CreateFavorite(111, "Music", "/v/music")
	if err != nil {
		t.Fatalf("CreateFavorite failed: %v", err)
	}
	inserted, err := s.InsertVideos([]models.Video{
		{FavoriteID: &f.ID, Bvid: "BV1xx411c7mD", Name: "a", Valid: true},
		{FavoriteID: &f.ID, Bvid: "BV1yy411c7mE", Name: "b", Valid: true},
	})
	if err != nil {
		t.Fatalf("InsertVideos failed: %v", err)
	}

	ids := []int64{inserted[0].ID, inserted[1].ID}
	if err := s.EnqueueVideos(ids); err != nil {
		t.Fatalf("EnqueueVideos failed: %v", err)
	}
	// Enqueueing again must not duplicate entries or reset state.
	if err := s.UpdateQueueItemStatus(1, models.StatusInProgress, "downloading"); err != nil {
		t.Fatalf("UpdateQueueItemStatus failed: %v", err)
	}
	if err := s.EnqueueVideos(ids); err != nil {
		t.Fatalf("EnqueueVideos (repeat) failed: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM download_queue").Scan(&count)
	if count != 2 {
		t.Errorf("Expected 2 queue items, got %d", count)
	}
	var status string
	db.QueryRow("SELECT status FROM download_queue WHERE id = 1").Scan(&status)
	if status != models.StatusInProgress {
		t.Errorf("Expected re-enqueue to leave status untouched, got '%s'", status)
	}
}

func TestUpdateQueueItemStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ids := seedQueue(t, db, s, "queued")

	err := s.UpdateQueueItemStatus(ids["queued"], models.StatusCompleted, "Done")
	if err != nil {
		t.Fatalf("UpdateQueueItemStatus failed: %v", err)
	}

	var status, message string
	db.QueryRow("SELECT status, message FROM download_queue WHERE id = ?", ids["queued"]).Scan(&status, &message)
	if status != "completed" || message != "Done" {
		t.Errorf("Expected status 'completed' and message 'Done', got '%s' and '%s'", status, message)
	}
}

func TestUpdateQueueItemProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ids := seedQueue(t, db, s, "in_progress")

	if err := s.UpdateQueueItemProgress(ids["in_progress"], 42.5); err != nil {
		t.Fatalf("UpdateQueueItemProgress failed: %v", err)
	}

	item, err := s.GetDownloadQueueItem(ids["in_progress"])
	if err != nil {
		t.Fatalf("GetDownloadQueueItem failed: %v", err)
	}
	if item.Progress != 42.5 {
		t.Errorf("Expected progress 42.5, got %v", item.Progress)
	}
}

func TestResetInProgressQueueItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	seedQueue(t, db, s, "in_progress", "completed")

	if err := s.ResetInProgressQueueItems(); err != nil {
		t.Fatalf("ResetInProgressQueueItems failed: %v", err)
	}

	var queued, completed int
	db.QueryRow("SELECT COUNT(*) FROM download_queue WHERE status = 'queued'").Scan(&queued)
	db.QueryRow("SELECT COUNT(*) FROM download_queue WHERE status = 'completed'").Scan(&completed)
	if queued != 1 || completed != 1 {
		t.Errorf("Expected 1 queued and 1 completed, got %d and %d", queued, completed)
	}
}

func TestResetFailedQueueItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ids := seedQueue(t, db, s, "failed")

	err := s.ResetFailedQueueItems()
	if err != nil {
		t.Fatalf("ResetFailedQueueItems failed: %v", err)
	}

	var status string
	db.QueryRow("SELECT status FROM download_queue WHERE id = ?", ids["failed"]).Scan(&status)
	if status != "queued" {
		t.Errorf("Expected status 'queued' after reset, got '%s'", status)
	}
}

func TestPauseAndResumeAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	seedQueue(t, db, s, "queued", "in_progress", "completed")

	if err := s.PauseAllQueueItems(); err != nil {
		t.Fatalf("PauseAllQueueItems failed: %v", err)
	}
	var paused int
	db.QueryRow("SELECT COUNT(*) FROM download_queue WHERE status = 'paused'").Scan(&paused)
	if paused != 2 {
		t.Errorf("Expected 2 paused items, got %d", paused)
	}

	if err := s.ResumeAllQueueItems(); err != nil {
		t.Fatalf("ResumeAllQueueItems failed: %v", err)
	}
	var queued int
	db.QueryRow("SELECT COUNT(*) FROM download_queue WHERE status = 'queued'").Scan(&queued)
	if queued != 2 {
		t.Errorf("Expected 2 queued items after resume, got %d", queued)
	}
}

func TestDeleteCompletedQueueItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	seedQueue(t, db, s, "completed")

	err := s.DeleteCompletedQueueItems()
	if err != nil {
		t.Fatalf("DeleteCompletedQueueItems failed: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM download_queue").Scan(&count)
	if count != 0 {
		t.Errorf("Expected queue to be empty, but count is %d", count)
	}
}

func TestEmptyQueue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	seedQueue(t, db, s, "queued", "failed", "in_progress", "completed")

	err := s.EmptyQueue()
	if err != nil {
		t.Fatalf("EmptyQueue failed: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM download_queue").Scan(&count)
	if count != 2 {
		t.Errorf("Expected 2 items (in_progress, completed) to remain, but count is %d", count)
	}
}

func TestQueueItemActions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ids := seedQueue(t, db, s, "in_progress", "failed")

	if err := s.PauseQueueItem(ids["in_progress"]); err != nil {
		t.Fatalf("PauseQueueItem failed: %v", err)
	}
	item, _ := s.GetDownloadQueueItem(ids["in_progress"])
	if item.Status != models.StatusPaused {
		t.Errorf("Expected paused, got '%s'", item.Status)
	}

	if err := s.ResumeQueueItem(ids["in_progress"]); err != nil {
		t.Fatalf("ResumeQueueItem failed: %v", err)
	}
	item, _ = s.GetDownloadQueueItem(ids["in_progress"])
	if item.Status != models.StatusQueued {
		t.Errorf("Expected queued, got '%s'", item.Status)
	}

	if err := s.RetryQueueItem(ids["failed"]); err != nil {
		t.Fatalf("RetryQueueItem failed: %v", err)
	}
	// Retrying an item that is not failed reports an error.
	if err := s.RetryQueueItem(ids["failed"]); err == nil {
		t.Error("Expected an error retrying a non-failed item")
	}
	if err := s.PauseQueueItem(9999); err == nil {
		t.Error("Expected an error pausing a missing item")
	}

	if err := s.DeleteQueueItem(ids["failed"]); err != nil {
		t.Fatalf("DeleteQueueItem failed: %v", err)
	}
	if _, err := s.GetDownloadQueueItem(ids["failed"]); err != store.ErrNotFound {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
