package danmaku

import (
	"fmt"
	"io"
	"time"
)

// WriteSRT writes the placed events as a SubRip track. Cues are
// numbered from 1 in event order with millisecond timestamps.
func WriteSRT(w io.Writer, events []Event) error {
	for i, ev := range events {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(ev.Start), srtTimestamp(ev.End), ev.Comment.Content); err != nil {
			return err
		}
	}
	return nil
}

func srtTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
