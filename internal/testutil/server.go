// Shared test server setup so API and job tests build the application
// the same way.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/tonylu00/bili-sync-sub002/internal/api"
	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/config"
	"github.com/tonylu00/bili-sync-sub002/internal/core"
	"github.com/tonylu00/bili-sync-sub002/internal/websocket"
)

// SetupTestApp builds a core.App around an in-memory database. The
// platform client points at upstreamURL; pass "" when the test never
// touches the remote API.
func SetupTestApp(t *testing.T, upstreamURL string) *core.App {
	t.Helper()
	db := SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Library.Path = t.TempDir()
	cfg.Downloader.Workers = 1

	hub := websocket.NewHub()
	go hub.Run()

	var opts []bilibili.Option
	if upstreamURL != "" {
		opts = append(opts, bilibili.WithBaseURL(upstreamURL))
	}
	client := bilibili.New(&bilibili.CredentialHeaders{}, opts...)

	return core.NewFromParts(cfg, db, hub, client, "test")
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t, "")
	return api.NewServer(app), app.DB()
}

// SetupTestServerWithUpstream is SetupTestServer with the platform
// client aimed at a fake upstream, for handlers that validate against
// the remote API.
func SetupTestServerWithUpstream(t *testing.T, upstreamURL string) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t, upstreamURL)
	return api.NewServer(app), app.DB()
}
