// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"errors"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// GetSetting reads one value from the app_settings key/value table.
// A missing key is not an error; it returns ("", false, nil).
func (s *Store) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting writes one value to the app_settings table, replacing any
// previous value under the same key.
func (s *Store) SetSetting(key, value string) error {
	query := `INSERT INTO app_settings (key, value) VALUES (?, ?)
	          ON CONFLICT(key) DO UPDATE SET value = excluded.value;`
	_, err := s.db.Exec(query, key, value)
	return err
}

// DeleteSetting removes a key from app_settings. Deleting a missing
// key is a no-op.
func (s *Store) DeleteSetting(key string) error {
	_, err := s.db.Exec("DELETE FROM app_settings WHERE key = ?", key)
	return err
}
