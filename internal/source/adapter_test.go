package source

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

func allAdapters() []Adapter {
	return []Adapter{
		NewFavorite(models.Favorite{ID: 1, FID: 100, Name: "fav", Path: "/lib/fav", LatestRowAt: "1700000000"}),
		NewWatchLater(models.WatchLater{ID: 2, Path: "/lib/wl", LatestRowAt: "1700000000"}),
		NewCollection(models.Collection{ID: 3, SID: 55, MID: 66, Name: "col", Path: "/lib/col", LatestRowAt: "1700000000"}),
		NewSubmission(models.Submission{ID: 4, UpperID: 777, UpperName: "creator", Path: "/lib/sub", LatestRowAt: "1700000000"}),
		NewBangumi(models.Bangumi{ID: 5, SeasonID: 888, Name: "show", Path: "/lib/show", LatestRowAt: "1700000000"}),
	}
}

func TestShouldTake(t *testing.T) {
	for _, a := range allAdapters() {
		alwaysTake := a.Kind() == models.KindWatchLater

		assert.True(t, a.ShouldTake("1700000001", "1700000000"), "%s: newer item", a.Kind())
		assert.Equal(t, alwaysTake, a.ShouldTake("1700000000", "1700000000"), "%s: equal time", a.Kind())
		assert.Equal(t, alwaysTake, a.ShouldTake("1699999999", "1700000000"), "%s: older item", a.Kind())
		assert.Equal(t, alwaysTake, a.ShouldTake("", "1700000000"), "%s: unparsable remote time", a.Kind())
		// A fresh source (zero watermark) takes everything with a time.
		assert.True(t, a.ShouldTake("1700000001", "0"), "%s: zero watermark", a.Kind())
		assert.True(t, a.ShouldTake("1700000001", ""), "%s: empty watermark", a.Kind())
	}
}

func TestWatchLaterAlwaysTakes(t *testing.T) {
	w := NewWatchLater(models.WatchLater{ID: 1, LatestRowAt: "9999999999"})
	assert.True(t, w.ShouldTake("0", "9999999999"))
	assert.True(t, w.ShouldTake("", ""))
	assert.True(t, w.ShouldTake("garbage", "more garbage"))
}

func TestBindSetsExactlyOneForeignKey(t *testing.T) {
	for _, a := range allAdapters() {
		var v models.Video
		a.Bind(&v)

		set := 0
		for name, fk := range map[string]*int64{
			"favorite":    v.FavoriteID,
			"watch_later": v.WatchLaterID,
			"collection":  v.CollectionID,
			"submission":  v.SubmissionID,
			"bangumi":     v.BangumiID,
		} {
			if fk != nil {
				set++
				assert.Equal(t, string(a.Kind()), name, "wrong foreign key set")
				assert.Equal(t, a.ID(), *fk)
			}
		}
		assert.Equal(t, 1, set, "%s: expected exactly one foreign key", a.Kind())
	}
}

func TestOnlySubmissionCheckpoints(t *testing.T) {
	for _, a := range allAdapters() {
		if a.Kind() == models.KindSubmission {
			assert.Equal(t, "777", a.CheckpointKey(), "submission checkpoints under its creator id")
		} else {
			assert.Empty(t, a.CheckpointKey(), "%s should not checkpoint", a.Kind())
		}
	}
}

func TestOrderedPerVariant(t *testing.T) {
	// Favorites, collections and submissions list newest first, so a
	// scan may stop at the first stale item. Watch-later ordering is
	// unreliable and bangumi episode lists run oldest first.
	for _, a := range allAdapters() {
		switch a.Kind() {
		case models.KindWatchLater, models.KindBangumi:
			assert.False(t, a.Ordered(), "%s must be walked in full", a.Kind())
		default:
			assert.True(t, a.Ordered(), "%s lists newest first", a.Kind())
		}
	}
}

func TestItemTimePerVariant(t *testing.T) {
	item := models.RemoteItem{Ctime: "111", FavTime: "222"}

	for _, a := range allAdapters() {
		switch a.Kind() {
		case models.KindFavorite, models.KindWatchLater:
			assert.Equal(t, "222", a.ItemTime(item), "%s tracks favourited-at time", a.Kind())
		default:
			assert.Equal(t, "111", a.ItemTime(item), "%s tracks publish time", a.Kind())
		}
	}
}

func TestFetchBuildsPagerPerVariant(t *testing.T) {
	client := bilibili.New(&bilibili.CredentialHeaders{})
	for _, a := range allAdapters() {
		assert.NotNil(t, a.Fetch(client), "%s: Fetch returned no pager", a.Kind())
	}
}

func TestBangumiSelectedSeasons(t *testing.T) {
	own := NewBangumi(models.Bangumi{SeasonID: 10})
	assert.Equal(t, []int64{10}, own.selectedSeasons())

	multi := NewBangumi(models.Bangumi{SeasonID: 10, SelectedSeasons: "[11,12,13]"})
	assert.Equal(t, []int64{11, 12, 13}, multi.selectedSeasons())

	malformed := NewBangumi(models.Bangumi{SeasonID: 10, SelectedSeasons: "{broken"})
	assert.Equal(t, []int64{10}, malformed.selectedSeasons())
}
