package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// sourceTable maps a source kind to its table and the column holding
// the video foreign key.
func sourceTable(kind models.SourceKind) (table, fkColumn string, err error) {
	switch kind {
	case models.KindFavorite:
		return "favorites", "favorite_id", nil
	case models.KindWatchLater:
		return "watch_later", "watch_later_id", nil
	case models.KindCollection:
		return "collections", "collection_id", nil
	case models.KindSubmission:
		return "submissions", "submission_id", nil
	case models.KindBangumi:
		return "bangumi", "bangumi_id", nil
	default:
		return "", "", fmt.Errorf("unknown source kind %q", kind)
	}
}

// CreateFavorite registers a favorites folder. Registering the same
// remote folder twice returns the existing row.
func (s *Store) CreateFavorite(fid int64, name, path string) (*models.Favorite, error) {
	query := `INSERT INTO favorites (f_id, name, path, created_at) VALUES (?, ?, ?, ?)
	          ON CONFLICT(f_id) DO UPDATE SET name = excluded.name
	          RETURNING id, f_id, name, path, enabled, scan_deleted, latest_row_at, created_at;`
	var f models.Favorite
	err := s.db.QueryRow(query, fid, name, path, time.Now()).
		Scan(&f.ID, &f.FID, &f.Name, &f.Path, &f.Enabled, &f.ScanDeleted, &f.LatestRowAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateWatchLater registers the watch-later queue. Only one row ever
// exists; repeated registration updates its path.
func (s *Store) CreateWatchLater(path string) (*models.WatchLater, error) {
	var existing int64
	err := s.db.QueryRow("SELECT id FROM watch_later LIMIT 1").Scan(&existing)
	if err == nil {
		if _, err := s.db.Exec("UPDATE watch_later SET path = ? WHERE id = ?", path, existing); err != nil {
			return nil, err
		}
		return s.getWatchLater(existing)
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	res, err := s.db.Exec("INSERT INTO watch_later (path, created_at) VALUES (?, ?)", path, time.Now())
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.getWatchLater(id)
}

func (s *Store) getWatchLater(id int64) (*models.WatchLater, error) {
	var w models.WatchLater
	err := s.db.QueryRow(
		"SELECT id, path, enabled, scan_deleted, latest_row_at, created_at FROM watch_later WHERE id = ?", id).
		Scan(&w.ID, &w.Path, &w.Enabled, &w.ScanDeleted, &w.LatestRowAt, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateCollection registers a collection identified by its
// (season id, owner mid) pair.
func (s *Store) CreateCollection(sid, mid int64, name, path string) (*models.Collection, error) {
	query := `INSERT INTO collections (s_id, m_id, name, path, created_at) VALUES (?, ?, ?, ?, ?)
	          ON CONFLICT(s_id, m_id) DO UPDATE SET name = excluded.name
	          RETURNING id, s_id, m_id, name, path, enabled, scan_deleted, latest_row_at, created_at;`
	var c models.Collection
	err := s.db.QueryRow(query, sid, mid, name, path, time.Now()).
		Scan(&c.ID, &c.SID, &c.MID, &c.Name, &c.Path, &c.Enabled, &c.ScanDeleted, &c.LatestRowAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateSubmission registers a creator's upload feed.
func (s *Store) CreateSubmission(upperID int64, upperName, path string) (*models.Submission, error) {
	query := `INSERT INTO submissions (upper_id, upper_name, path, created_at) VALUES (?, ?, ?, ?)
	          ON CONFLICT(upper_id) DO UPDATE SET upper_name = excluded.upper_name
	          RETURNING id, upper_id, upper_name, path, enabled, scan_deleted, latest_row_at, created_at;`
	var sub models.Submission
	err := s.db.QueryRow(query, upperID, upperName, path, time.Now()).
		Scan(&sub.ID, &sub.UpperID, &sub.UpperName, &sub.Path, &sub.Enabled, &sub.ScanDeleted, &sub.LatestRowAt, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateBangumi registers an episodic series season.
func (s *Store) CreateBangumi(seasonID, mediaID int64, name, selectedSeasons, path string) (*models.Bangumi, error) {
	query := `INSERT INTO bangumi (season_id, media_id, name, selected_seasons, path, created_at) VALUES (?, ?, ?, ?, ?, ?)
	          ON CONFLICT(season_id) DO UPDATE SET name = excluded.name, selected_seasons = excluded.selected_seasons
	          RETURNING id, season_id, media_id, name, selected_seasons, path, enabled, scan_deleted, latest_row_at, created_at;`
	var b models.Bangumi
	var media sql.NullInt64
	var selected sql.NullString
	err := s.db.QueryRow(query, seasonID, nullableID(mediaID), name, nullableString(selectedSeasons), path, time.Now()).
		Scan(&b.ID, &b.SeasonID, &media, &b.Name, &selected, &b.Path, &b.Enabled, &b.ScanDeleted, &b.LatestRowAt, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.MediaID = media.Int64
	b.SelectedSeasons = selected.String
	return &b, nil
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ListFavorites returns all favorites sources.
func (s *Store) ListFavorites() ([]models.Favorite, error) {
	rows, err := s.db.Query(
		"SELECT id, f_id, name, path, enabled, scan_deleted, latest_row_at, created_at FROM favorites ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Favorite
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.FID, &f.Name, &f.Path, &f.Enabled, &f.ScanDeleted, &f.LatestRowAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListWatchLater returns the watch-later source if registered.
func (s *Store) ListWatchLater() ([]models.WatchLater, error) {
	rows, err := s.db.Query(
		"SELECT id, path, enabled, scan_deleted, latest_row_at, created_at FROM watch_later ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WatchLater
	for rows.Next() {
		var w models.WatchLater
		if err := rows.Scan(&w.ID, &w.Path, &w.Enabled, &w.ScanDeleted, &w.LatestRowAt, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListCollections returns all collection sources.
func (s *Store) ListCollections() ([]models.Collection, error) {
	rows, err := s.db.Query(
		"SELECT id, s_id, m_id, name, path, enabled, scan_deleted, latest_row_at, created_at FROM collections ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Collection
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.SID, &c.MID, &c.Name, &c.Path, &c.Enabled, &c.ScanDeleted, &c.LatestRowAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListSubmissions returns all creator-feed sources.
func (s *Store) ListSubmissions() ([]models.Submission, error) {
	rows, err := s.db.Query(
		"SELECT id, upper_id, upper_name, path, enabled, scan_deleted, latest_row_at, created_at FROM submissions ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.ID, &sub.UpperID, &sub.UpperName, &sub.Path, &sub.Enabled, &sub.ScanDeleted, &sub.LatestRowAt, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ListBangumi returns all episodic-series sources.
func (s *Store) ListBangumi() ([]models.Bangumi, error) {
	rows, err := s.db.Query(
		"SELECT id, season_id, media_id, name, selected_seasons, path, enabled, scan_deleted, latest_row_at, created_at FROM bangumi ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Bangumi
	for rows.Next() {
		var b models.Bangumi
		var media sql.NullInt64
		var selected sql.NullString
		if err := rows.Scan(&b.ID, &b.SeasonID, &media, &b.Name, &selected, &b.Path, &b.Enabled, &b.ScanDeleted, &b.LatestRowAt, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.MediaID = media.Int64
		b.SelectedSeasons = selected.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListSources returns every source as a kind-tagged view, for the API
// and the scan summary.
func (s *Store) ListSources() ([]models.Source, error) {
	var out []models.Source

	favorites, err := s.ListFavorites()
	if err != nil {
		return nil, err
	}
	for _, f := range favorites {
		out = append(out, models.Source{
			Kind: models.KindFavorite, ID: f.ID, RemoteID: strconv.FormatInt(f.FID, 10),
			Name: f.Name, Path: f.Path, Enabled: f.Enabled, ScanDeleted: f.ScanDeleted,
			LatestRowAt: f.LatestRowAt, CreatedAt: f.CreatedAt,
		})
	}

	watchLater, err := s.ListWatchLater()
	if err != nil {
		return nil, err
	}
	for _, w := range watchLater {
		out = append(out, models.Source{
			Kind: models.KindWatchLater, ID: w.ID, Name: "watch later", Path: w.Path,
			Enabled: w.Enabled, ScanDeleted: w.ScanDeleted, LatestRowAt: w.LatestRowAt, CreatedAt: w.CreatedAt,
		})
	}

	collections, err := s.ListCollections()
	if err != nil {
		return nil, err
	}
	for _, c := range collections {
		out = append(out, models.Source{
			Kind: models.KindCollection, ID: c.ID,
			RemoteID: fmt.Sprintf("%d:%d", c.SID, c.MID),
			Name:     c.Name, Path: c.Path, Enabled: c.Enabled, ScanDeleted: c.ScanDeleted,
			LatestRowAt: c.LatestRowAt, CreatedAt: c.CreatedAt,
		})
	}

	submissions, err := s.ListSubmissions()
	if err != nil {
		return nil, err
	}
	for _, sub := range submissions {
		out = append(out, models.Source{
			Kind: models.KindSubmission, ID: sub.ID, RemoteID: strconv.FormatInt(sub.UpperID, 10),
			Name: sub.UpperName, Path: sub.Path, Enabled: sub.Enabled, ScanDeleted: sub.ScanDeleted,
			LatestRowAt: sub.LatestRowAt, CreatedAt: sub.CreatedAt,
		})
	}

	bangumi, err := s.ListBangumi()
	if err != nil {
		return nil, err
	}
	for _, b := range bangumi {
		out = append(out, models.Source{
			Kind: models.KindBangumi, ID: b.ID, RemoteID: strconv.FormatInt(b.SeasonID, 10),
			Name: b.Name, Path: b.Path, Enabled: b.Enabled, ScanDeleted: b.ScanDeleted,
			LatestRowAt: b.LatestRowAt, CreatedAt: b.CreatedAt,
		})
	}

	return out, nil
}

// UpdateWatermark advances a source's latest-seen watermark.
func (s *Store) UpdateWatermark(kind models.SourceKind, id int64, watermark string) error {
	table, _, err := sourceTable(kind)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf("UPDATE %s SET latest_row_at = ? WHERE id = ?", table), watermark, id)
	return err
}

// SetSourceEnabled toggles whether a source participates in sweeps.
func (s *Store) SetSourceEnabled(kind models.SourceKind, id int64, enabled bool) error {
	table, _, err := sourceTable(kind)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(fmt.Sprintf("UPDATE %s SET enabled = ? WHERE id = ?", table), enabled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSource removes a source row. Its videos and queue entries go
// with it via foreign key cascades; the caller is responsible for
// purging any checkpoint.
func (s *Store) DeleteSource(kind models.SourceKind, id int64) error {
	table, _, err := sourceTable(kind)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSubmissionByID fetches one creator feed row, used when purging
// its checkpoint on removal.
func (s *Store) GetSubmissionByID(id int64) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.QueryRow(
		"SELECT id, upper_id, upper_name, path, enabled, scan_deleted, latest_row_at, created_at FROM submissions WHERE id = ?", id).
		Scan(&sub.ID, &sub.UpperID, &sub.UpperName, &sub.Path, &sub.Enabled, &sub.ScanDeleted, &sub.LatestRowAt, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
