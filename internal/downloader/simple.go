package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
)

// SimpleBackend downloads over a single connection with the process's
// own HTTP client. It is the fallback when multithreaded downloading is
// disabled or the external downloader is unreachable.
type SimpleBackend struct {
	http    *http.Client
	headers bilibili.HeaderProvider
}

func NewSimple(headers bilibili.HeaderProvider) *SimpleBackend {
	return &SimpleBackend{
		headers: headers,
		http: &http.Client{
			// Media files are large; rely on the context for cancellation
			// rather than a whole-request timeout.
			Transport: &http.Transport{
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

func (b *SimpleBackend) Name() string { return "simple" }

// Merge remuxes the two fetched streams locally.
func (b *SimpleBackend) Merge(ctx context.Context, videoPath, audioPath, outPath string) error {
	return MergeStreams(ctx, videoPath, audioPath, outPath)
}

// Restart is a no-op: this backend holds no state toward an external
// process.
func (b *SimpleBackend) Restart(ctx context.Context) error { return nil }

func (b *SimpleBackend) Shutdown(ctx context.Context) error {
	b.http.CloseIdleConnections()
	return nil
}

// Fetch tries each candidate URL in order. The file is written next to
// dest and renamed into place only after a full, successful read, so a
// partial download never masquerades as a finished one.
func (b *SimpleBackend) Fetch(ctx context.Context, urls []string, dest string, progress ProgressFunc) error {
	if len(urls) == 0 {
		return fmt.Errorf("no candidate urls for %s", filepath.Base(dest))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	var lastErr error
	for _, u := range urls {
		if err := b.fetchOne(ctx, u, dest, progress); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d candidate urls failed: %w", len(urls), lastErr)
}

func (b *SimpleBackend) fetchOne(ctx context.Context, rawURL, dest string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if b.headers != nil {
		b.headers.ApplyHeaders(req)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("download %s: HTTP %d", rawURL, resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if progress != nil {
		progress(100)
	}
	return os.Rename(tmp, dest)
}

// progressReader reports percentage as bytes flow through. Reports are
// throttled to whole-percent steps to keep broadcast volume sane.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	last  int
	fn    ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.fn != nil && p.total > 0 {
		pct := int(float64(p.read) / float64(p.total) * 100)
		if pct > p.last {
			p.last = pct
			p.fn(float64(pct))
		}
	}
	return n, err
}
