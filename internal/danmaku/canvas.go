package danmaku

import (
	"time"
)

// Config is the layout the canvas places comments on. Density caps how
// many lanes may be occupied at once; the default is derived from the
// machine's core count at configuration time.
type Config struct {
	Width    int
	Height   int
	FontSize int
	// ScrollDuration is how long a scrolling comment takes to cross the
	// canvas, in seconds.
	ScrollDuration float64
	// FixedDuration is how long a pinned comment stays on screen, in
	// seconds.
	FixedDuration float64
	Density       int
}

// DefaultFixedDuration is used when a config leaves FixedDuration
// unset.
const DefaultFixedDuration = 5.0

// Event is one placed, collision-free comment occurrence: which lane
// it occupies and the time window it is visible in.
type Event struct {
	Comment Comment
	Row     int
	Start   time.Duration
	End     time.Duration
}

// lane tracks the occupancy of one horizontal row.
type lane struct {
	// clearAt is when the lane accepts the next comment: for scrolling
	// lanes, when the previous comment's tail clears the right edge;
	// for pinned lanes, when the previous comment disappears.
	clearAt time.Duration
	used    bool
}

// Render lays the comments out on the canvas. Comments must be sorted
// by Offset (ParseXML guarantees this). A comment that cannot be
// placed without colliding is dropped; with the density cap that is
// also what keeps oversaturated scenes readable.
//
// All scrolling comments cross the canvas in the same fixed duration,
// so a later comment can never overtake an earlier one; the only
// collision to avoid is entering a lane before the previous tail has
// cleared the right edge.
func Render(comments []Comment, cfg Config) []Event {
	if cfg.FixedDuration <= 0 {
		cfg.FixedDuration = DefaultFixedDuration
	}
	rowHeight := cfg.FontSize + 4
	totalRows := cfg.Height / rowHeight
	if totalRows < 1 {
		totalRows = 1
	}
	if cfg.Density > 0 && totalRows > cfg.Density {
		totalRows = cfg.Density
	}
	// Pinned comments share the top and bottom thirds; scrolling
	// comments may use every row.
	fixedRows := totalRows / 3
	if fixedRows < 1 {
		fixedRows = 1
	}

	scroll := make([]lane, totalRows)
	top := make([]lane, fixedRows)
	bottom := make([]lane, fixedRows)

	events := make([]Event, 0, len(comments))
	for _, c := range comments {
		start := time.Duration(c.Offset * float64(time.Second))
		var ev Event
		var ok bool
		switch c.Mode {
		case ModeScroll:
			ev, ok = placeScroll(c, start, scroll, cfg)
		case ModeTop:
			ev, ok = placeFixed(c, start, top, cfg, false)
		case ModeBottom:
			ev, ok = placeFixed(c, start, bottom, cfg, true)
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events
}

// placeScroll finds the first lane whose previous comment has fully
// entered the canvas.
func placeScroll(c Comment, start time.Duration, lanes []lane, cfg Config) (Event, bool) {
	textWidth := float64(len([]rune(c.Content)) * c.FontSize)
	span := float64(cfg.Width) + textWidth
	duration := time.Duration(cfg.ScrollDuration * float64(time.Second))
	// Time for the tail to clear the right edge, measured from the
	// comment's own start.
	entered := time.Duration(cfg.ScrollDuration * textWidth / span * float64(time.Second))

	for i := range lanes {
		ln := &lanes[i]
		if ln.used && start < ln.clearAt {
			continue
		}
		ln.used = true
		ln.clearAt = start + entered
		return Event{Comment: c, Row: i, Start: start, End: start + duration}, true
	}
	return Event{}, false
}

// placeFixed occupies the first free pinned lane. Bottom lanes fill
// upward from the canvas edge, which only changes the row number; the
// collision rule is identical.
func placeFixed(c Comment, start time.Duration, lanes []lane, cfg Config, bottom bool) (Event, bool) {
	duration := time.Duration(cfg.FixedDuration * float64(time.Second))
	for i := range lanes {
		ln := &lanes[i]
		if ln.used && start < ln.clearAt {
			continue
		}
		ln.used = true
		ln.clearAt = start + duration
		row := i
		if bottom {
			row = len(lanes) - 1 - i
		}
		return Event{Comment: c, Row: row, Start: start, End: start + duration}, true
	}
	return Event{}, false
}
