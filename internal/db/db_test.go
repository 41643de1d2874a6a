package db_test

import (
	"testing"

	"github.com/tonylu00/bili-sync-sub002/internal/testutil"
)

func TestForeignKeyCascadeDelete(t *testing.T) {
	// Setup test database with migrations already applied
	db := testutil.SetupTestDB(t)

	// Test 1: Verify foreign keys are enabled
	var foreignKeysEnabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysEnabled)
	if err != nil {
		t.Fatalf("Failed to check foreign keys status: %v", err)
	}
	if foreignKeysEnabled != 1 {
		t.Errorf("Foreign keys should be enabled, got: %d", foreignKeysEnabled)
	}

	// Test 2: Create test data and verify cascade delete works
	_, err = db.Exec("INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, datetime('now'))",
		"testuser", "hash", "user")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	_, err = db.Exec("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, datetime('now', '+1 day'))",
		"tok123", 1)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	_, err = db.Exec("INSERT INTO favorites (f_id, name, path) VALUES (?, ?, ?)",
		12345, "Test Favorite", "/test/path")
	if err != nil {
		t.Fatalf("Failed to create test favorite: %v", err)
	}

	_, err = db.Exec("INSERT INTO videos (favorite_id, bvid, name) VALUES (?, ?, ?)",
		1, "BV1xx411c7mD", "Test Video")
	if err != nil {
		t.Fatalf("Failed to create test video: %v", err)
	}

	_, err = db.Exec("INSERT INTO download_queue (video_id, status) VALUES (?, ?)", 1, "queued")
	if err != nil {
		t.Fatalf("Failed to create test queue item: %v", err)
	}

	// Test 3: Delete user and verify its sessions go with it
	_, err = db.Exec("DELETE FROM users WHERE id = 1")
	if err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sessions WHERE user_id = 1").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check sessions: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 records in sessions after user deletion, got %d", count)
	}

	// Test 4: Delete favorite and verify videos and queue entries cascade
	_, err = db.Exec("DELETE FROM favorites WHERE id = 1")
	if err != nil {
		t.Fatalf("Failed to delete favorite: %v", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM videos WHERE favorite_id = 1").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check videos: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 records in videos after favorite deletion, got %d", count)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM download_queue WHERE video_id = 1").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check download_queue: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 records in download_queue after favorite deletion, got %d", count)
	}
}

func TestUniqueVideoPerSource(t *testing.T) {
	db := testutil.SetupTestDB(t)

	if _, err := db.Exec("INSERT INTO favorites (f_id, name, path) VALUES (1, 'f', '/f')"); err != nil {
		t.Fatalf("Failed to create favorite: %v", err)
	}
	if _, err := db.Exec("INSERT INTO watch_later (path) VALUES ('/wl')"); err != nil {
		t.Fatalf("Failed to create watch_later: %v", err)
	}

	if _, err := db.Exec("INSERT INTO videos (favorite_id, bvid, name) VALUES (1, 'BV1', 'a')"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	// Same bvid under a different source is fine.
	if _, err := db.Exec("INSERT INTO videos (watch_later_id, bvid, name) VALUES (1, 'BV1', 'a')"); err != nil {
		t.Fatalf("insert under second source failed: %v", err)
	}
	// Same bvid under the same source must be rejected.
	if _, err := db.Exec("INSERT INTO videos (favorite_id, bvid, name) VALUES (1, 'BV1', 'a')"); err == nil {
		t.Error("expected unique constraint violation for duplicate (favorite_id, bvid)")
	}
}
