// Package update checks the project's release feed for a newer
// version. The result is advisory; nothing is downloaded.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const defaultBaseURL = "https://api.github.com"

const releaseRepo = "tonylu00/bili-sync"

// Release is the newest published release.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

type Checker struct {
	baseURL string
	http    *http.Client
}

type Option func(*Checker)

// WithBaseURL points the checker at a different release API host.
// Tests use this to target an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Checker) { c.baseURL = strings.TrimRight(base, "/") }
}

func New(opts ...Option) *Checker {
	c := &Checker{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the newest published release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, releaseRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &Release{Version: payload.TagName, URL: payload.HTMLURL}, nil
}

// Available reports whether the latest release is newer than the
// running version. Development builds with unparsable versions never
// report an update.
func (c *Checker) Available(ctx context.Context, current string) (bool, *Release, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return false, nil, err
	}

	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, release, nil
	}
	latest, err := semver.NewVersion(strings.TrimPrefix(release.Version, "v"))
	if err != nil {
		return false, release, nil
	}
	return latest.GreaterThan(cur), release, nil
}
