// Package downloader moves media from the remote CDN to the library.
// A Backend fetches one asset; the Pool drains the persistent queue,
// running the full per-video pipeline (metadata, cover, subtitles,
// streams, merge) on a fixed set of workers.
package downloader

import (
	"context"
	"net/http"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
)

// ProgressFunc receives fetch progress as a percentage in [0,100].
// Backends call it best-effort; a nil func is allowed.
type ProgressFunc func(percent float64)

// Backend moves one remote asset to a local file and owns the rest of
// the transfer lifecycle. In Fetch, urls is a fallback chain:
// candidates are tried in order and the first success wins. Restart
// re-establishes whatever state the backend holds toward an external
// process; a backend without such state treats it as a no-op.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, urls []string, dest string, progress ProgressFunc) error
	Merge(ctx context.Context, videoPath, audioPath, outPath string) error
	Restart(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

var (
	_ Backend = (*SimpleBackend)(nil)
	_ Backend = (*Aria2Backend)(nil)
)

// headerLines renders the provider's request decoration as literal
// "Name: value" lines, the form the aria2 RPC expects.
func headerLines(hp bilibili.HeaderProvider) []string {
	if hp == nil {
		return nil
	}
	req, err := http.NewRequest(http.MethodGet, "https://example.invalid/", nil)
	if err != nil {
		return nil
	}
	hp.ApplyHeaders(req)

	var lines []string
	for name, values := range req.Header {
		for _, v := range values {
			lines = append(lines, name+": "+v)
		}
	}
	return lines
}
