package models

import "time"

// Video is one downloadable item collected from a source. Exactly one
// of the five source foreign keys is set; the others stay NULL.
type Video struct {
	ID           int64     `json:"id"`
	FavoriteID   *int64    `json:"favorite_id,omitempty"`
	WatchLaterID *int64    `json:"watch_later_id,omitempty"`
	CollectionID *int64    `json:"collection_id,omitempty"`
	SubmissionID *int64    `json:"submission_id,omitempty"`
	BangumiID    *int64    `json:"bangumi_id,omitempty"`
	Bvid         string    `json:"bvid"`
	Cid          int64     `json:"cid"`
	EpID         *int64    `json:"ep_id,omitempty"`
	Name         string    `json:"name"`
	Intro        string    `json:"intro"`
	Cover        string    `json:"cover"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	UpperID      int64     `json:"upper_id"`
	UpperName    string    `json:"upper_name"`
	Ctime        string    `json:"ctime"`
	FavTime      string    `json:"fav_time"`
	Path         string    `json:"path"`
	Downloaded   bool      `json:"downloaded"`
	Deleted      bool      `json:"deleted"`
	Valid        bool      `json:"valid"`
	CreatedAt    time.Time `json:"created_at"`
}

// RemoteItem is one entry of a remote listing, before it is persisted.
// Ctime and FavTime carry decimal unix-seconds strings; FavTime is
// only set by sources that report a favourited-at time.
type RemoteItem struct {
	Bvid      string `json:"bvid"`
	Cid       int64  `json:"cid"`
	EpID      int64  `json:"ep_id,omitempty"`
	Name      string `json:"name"`
	Intro     string `json:"intro"`
	Cover     string `json:"cover"`
	UpperID   int64  `json:"upper_id"`
	UpperName string `json:"upper_name"`
	Ctime     string `json:"ctime"`
	FavTime   string `json:"fav_time,omitempty"`
	Invalid   bool   `json:"invalid,omitempty"`
}
