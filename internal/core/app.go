// Package core assembles the application: configuration, database,
// platform client, sync engine and download pool. Both the server and
// the CLI boot through core.App.
package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/tonylu00/bili-sync-sub002/internal/assets"
	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/config"
	"github.com/tonylu00/bili-sync-sub002/internal/db"
	"github.com/tonylu00/bili-sync-sub002/internal/downloader"
	"github.com/tonylu00/bili-sync-sub002/internal/jobs"
	"github.com/tonylu00/bili-sync-sub002/internal/store"
	"github.com/tonylu00/bili-sync-sub002/internal/syncer"
	"github.com/tonylu00/bili-sync-sub002/internal/websocket"
)

// App holds the shared components. It implements jobs.JobContext, so
// background jobs reach everything through the same accessors the HTTP
// handlers use.
type App struct {
	cfg      *config.Config
	database *sql.DB
	st       *store.Store
	hub      *websocket.Hub
	jm       *jobs.JobManager
	client   *bilibili.Client
	sync     *syncer.Service
	backend  downloader.Backend
	pool     *downloader.Pool
	version  string
}

func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) DB() *sql.DB                  { return a.database }
func (a *App) Store() *store.Store          { return a.st }
func (a *App) WsHub() *websocket.Hub        { return a.hub }
func (a *App) JobManager() *jobs.JobManager { return a.jm }
func (a *App) Client() *bilibili.Client     { return a.client }
func (a *App) Syncer() *syncer.Service      { return a.sync }
func (a *App) Downloads() *downloader.Pool  { return a.pool }
func (a *App) Backend() downloader.Backend  { return a.backend }
func (a *App) Version() string              { return a.version }

// New sets up the full application: configuration, database with
// migrations, websocket hub, platform client, sync engine and the
// download pool with its backend picked once at startup.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	headers := &bilibili.CredentialHeaders{
		SessData:   cfg.Credential.SessData,
		BiliJct:    cfg.Credential.BiliJct,
		Buvid3:     cfg.Credential.Buvid3,
		DedeUserID: cfg.Credential.DedeUserID,
	}

	app := &App{
		cfg:      cfg,
		database: database,
		st:       store.New(database),
		hub:      websocket.NewHub(),
		client:   bilibili.New(headers),
		backend:  downloader.Select(cfg, headers),
		version:  version,
	}
	app.jm = jobs.NewManager(app)
	app.sync = syncer.New(app.st, app.client, cfg, app.hub)
	app.pool = downloader.NewPool(cfg, app.st, app.client, app.backend, app.hub)

	go app.hub.Run()

	log.Println("Core application setup complete.")
	return app, nil
}

// NewFromParts assembles an App around pre-built components. Tests use
// this to inject an in-memory database and a client pointed at a fake
// upstream.
func NewFromParts(cfg *config.Config, database *sql.DB, hub *websocket.Hub, client *bilibili.Client, version string) *App {
	st := store.New(database)
	app := &App{
		cfg:      cfg,
		database: database,
		st:       st,
		hub:      hub,
		client:   client,
		backend:  downloader.NewSimple(nil),
		version:  version,
	}
	app.jm = jobs.NewManager(app)
	app.sync = syncer.New(st, client, cfg, hub)
	app.pool = downloader.NewPool(cfg, st, client, app.backend, hub)
	return app
}

// Close releases the application's resources.
func (a *App) Close() {
	if a.backend != nil {
		a.backend.Shutdown(context.Background())
	}
	if a.database != nil {
		a.database.Close()
	}
}
