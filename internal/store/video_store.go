package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

const videoColumns = `id, favorite_id, watch_later_id, collection_id, submission_id, bangumi_id,
	bvid, cid, ep_id, name, intro, cover, thumbnail, upper_id, upper_name, ctime, fav_time,
	path, downloaded, deleted, valid, created_at`

func scanVideo(row interface{ Scan(...interface{}) error }) (*models.Video, error) {
	var v models.Video
	var thumbnail sql.NullString
	err := row.Scan(&v.ID, &v.FavoriteID, &v.WatchLaterID, &v.CollectionID, &v.SubmissionID, &v.BangumiID,
		&v.Bvid, &v.Cid, &v.EpID, &v.Name, &v.Intro, &v.Cover, &thumbnail, &v.UpperID, &v.UpperName,
		&v.Ctime, &v.FavTime, &v.Path, &v.Downloaded, &v.Deleted, &v.Valid, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.Thumbnail = thumbnail.String
	return &v, nil
}

// InsertVideos inserts newly discovered items in one transaction,
// skipping rows that already exist for the same source. It returns the
// videos actually inserted, with their assigned ids.
func (s *Store) InsertVideos(videos []models.Video) ([]models.Video, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT OR IGNORE INTO videos
        (favorite_id, watch_later_id, collection_id, submission_id, bangumi_id,
         bvid, cid, ep_id, name, intro, cover, upper_id, upper_name, ctime, fav_time, path, valid, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var inserted []models.Video
	for _, v := range videos {
		res, err := stmt.Exec(v.FavoriteID, v.WatchLaterID, v.CollectionID, v.SubmissionID, v.BangumiID,
			v.Bvid, v.Cid, v.EpID, v.Name, v.Intro, v.Cover, v.UpperID, v.UpperName, v.Ctime, v.FavTime,
			v.Path, v.Valid, time.Now())
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			v.ID, _ = res.LastInsertId()
			inserted = append(inserted, v)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetVideoByID fetches one video row.
func (s *Store) GetVideoByID(id int64) (*models.Video, error) {
	v, err := scanVideo(s.db.QueryRow("SELECT "+videoColumns+" FROM videos WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

// ListVideosBySource returns every video belonging to one source, in
// insertion order.
func (s *Store) ListVideosBySource(kind models.SourceKind, sourceID int64) ([]*models.Video, error) {
	_, fkColumn, err := sourceTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s FROM videos WHERE %s = ? ORDER BY id ASC", videoColumns, fkColumn), sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListRecentVideos returns the latest ingested videos across all
// sources for the control plane.
func (s *Store) ListRecentVideos(limit int) ([]*models.Video, error) {
	rows, err := s.db.Query(
		"SELECT "+videoColumns+" FROM videos ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MarkVideoDownloaded records a finished download and its final path.
func (s *Store) MarkVideoDownloaded(id int64, path string) error {
	_, err := s.db.Exec("UPDATE videos SET downloaded = 1, path = ? WHERE id = ?", path, id)
	return err
}

// SetVideoValid flags a video the remote platform reports as
// unavailable.
func (s *Store) SetVideoValid(id int64, valid bool) error {
	_, err := s.db.Exec("UPDATE videos SET valid = ? WHERE id = ?", valid, id)
	return err
}

// UpdateVideoDetail fills in fields the source listing did not carry,
// typically after a detail fetch before downloading.
func (s *Store) UpdateVideoDetail(id, cid int64, upperID int64, upperName string) error {
	_, err := s.db.Exec("UPDATE videos SET cid = ?, upper_id = ?, upper_name = ? WHERE id = ?",
		cid, upperID, upperName, id)
	return err
}

// UpdateVideoThumbnail stores the data-URI thumbnail rendered from the
// remote cover.
func (s *Store) UpdateVideoThumbnail(id int64, thumbnail string) error {
	_, err := s.db.Exec("UPDATE videos SET thumbnail = ? WHERE id = ?", thumbnail, id)
	return err
}

// MarkMissingDeleted flags videos of one source that no longer appear
// in the remote listing. seen holds the bvids that are still present.
func (s *Store) MarkMissingDeleted(kind models.SourceKind, sourceID int64, seen map[string]bool) (int, error) {
	_, fkColumn, err := sourceTable(kind)
	if err != nil {
		return 0, err
	}

	rows, err := s.db.Query(
		fmt.Sprintf("SELECT id, bvid FROM videos WHERE %s = ? AND deleted = 0", fkColumn), sourceID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		var bvid string
		if err := rows.Scan(&id, &bvid); err != nil {
			return 0, err
		}
		if !seen[bvid] {
			missing = append(missing, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE videos SET deleted = 1 WHERE id = ?")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, id := range missing {
		if _, err := stmt.Exec(id); err != nil {
			return 0, err
		}
	}
	return len(missing), tx.Commit()
}

// ResetDownloadedUnderPath clears the downloaded flag for videos whose
// recorded file sits at or under path. The filesystem watcher calls
// this when files vanish outside the application; the affected videos
// fall back into the sweep-and-enqueue cycle.
func (s *Store) ResetDownloadedUnderPath(path string) (int, error) {
	res, err := s.db.Exec(`
        UPDATE videos SET downloaded = 0
        WHERE downloaded = 1 AND (path = ? OR path LIKE ? || '/%')`, path, path)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// VideoStats summarizes library state for the control plane.
type VideoStats struct {
	Total      int `json:"total"`
	Downloaded int `json:"downloaded"`
	Deleted    int `json:"deleted"`
	Invalid    int `json:"invalid"`
}

func (s *Store) GetVideoStats() (*VideoStats, error) {
	var stats VideoStats
	err := s.db.QueryRow(`
        SELECT COUNT(*),
               COALESCE(SUM(downloaded), 0),
               COALESCE(SUM(deleted), 0),
               COALESCE(SUM(CASE WHEN valid = 0 THEN 1 ELSE 0 END), 0)
        FROM videos`).
		Scan(&stats.Total, &stats.Downloaded, &stats.Deleted, &stats.Invalid)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
