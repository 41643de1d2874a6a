package models

import "time"

// SourceKind identifies which of the subscription tables a source row
// lives in. The string values double as API identifiers and as the
// namespace half of checkpoint keys.
type SourceKind string

const (
	KindFavorite   SourceKind = "favorite"
	KindWatchLater SourceKind = "watch_later"
	KindCollection SourceKind = "collection"
	KindSubmission SourceKind = "submission"
	KindBangumi    SourceKind = "bangumi"
)

// Valid reports whether k is one of the five known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case KindFavorite, KindWatchLater, KindCollection, KindSubmission, KindBangumi:
		return true
	}
	return false
}

// Favorite is a remote favorites folder tracked by the library.
type Favorite struct {
	ID          int64     `json:"id"`
	FID         int64     `json:"f_id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Enabled     bool      `json:"enabled"`
	ScanDeleted bool      `json:"scan_deleted"`
	LatestRowAt string    `json:"latest_row_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// WatchLater is the account's watch-later queue. At most one row
// exists, but it is modelled like any other source.
type WatchLater struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Enabled     bool      `json:"enabled"`
	ScanDeleted bool      `json:"scan_deleted"`
	LatestRowAt string    `json:"latest_row_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Collection is a remote collection or series. Its remote identity is
// the (SID, MID) pair, not a single id.
type Collection struct {
	ID          int64     `json:"id"`
	SID         int64     `json:"s_id"`
	MID         int64     `json:"m_id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Enabled     bool      `json:"enabled"`
	ScanDeleted bool      `json:"scan_deleted"`
	LatestRowAt string    `json:"latest_row_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Submission tracks all uploads of a single creator.
type Submission struct {
	ID          int64     `json:"id"`
	UpperID     int64     `json:"upper_id"`
	UpperName   string    `json:"upper_name"`
	Path        string    `json:"path"`
	Enabled     bool      `json:"enabled"`
	ScanDeleted bool      `json:"scan_deleted"`
	LatestRowAt string    `json:"latest_row_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bangumi tracks an ongoing or finished season. SelectedSeasons is a
// JSON-encoded list of season ids when the user restricted the
// subscription to a subset.
type Bangumi struct {
	ID              int64     `json:"id"`
	SeasonID        int64     `json:"season_id"`
	MediaID         int64     `json:"media_id,omitempty"`
	Name            string    `json:"name"`
	SelectedSeasons string    `json:"selected_seasons,omitempty"`
	Path            string    `json:"path"`
	Enabled         bool      `json:"enabled"`
	ScanDeleted     bool      `json:"scan_deleted"`
	LatestRowAt     string    `json:"latest_row_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Source is the kind-tagged view of any of the five source rows,
// used by the API and the scan planner so callers don't switch on
// five concrete types.
type Source struct {
	Kind        SourceKind `json:"kind"`
	ID          int64      `json:"id"`
	RemoteID    string     `json:"remote_id"`
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Enabled     bool       `json:"enabled"`
	ScanDeleted bool       `json:"scan_deleted"`
	LatestRowAt string     `json:"latest_row_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
