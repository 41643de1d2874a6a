package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/api"
	"github.com/tonylu00/bili-sync-sub002/internal/core"
	"github.com/tonylu00/bili-sync-sub002/internal/jobs"
	"github.com/tonylu00/bili-sync-sub002/internal/library"
	"github.com/tonylu00/bili-sync-sub002/internal/notify"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app, err := core.New(version)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	if err := app.Store().EnsureAdminUser(); err != nil {
		log.Fatalf("Could not provision admin user: %v", err)
	}

	registerJobs(app)

	app.Syncer().SetNotifier(notify.FromConfig(app.Config().Notify.WebhookURL))
	if err := app.Syncer().Start(); err != nil {
		log.Fatalf("Could not start sync engine: %v", err)
	}

	// Scheduled sweeps and session cleanup.
	jobs.StartJobs(app)

	// Every long-running component hangs off this context; it is
	// cancelled on the first unexpected component exit so the rest shut
	// down with it instead of limping along half-alive.
	rootCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()
	app.Downloads().Start(rootCtx)

	watcher := library.NewWatcher(app.Store(), app.Config().Library.Path)
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: library watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	server := api.NewServer(app)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.Config().Port),
		Handler: server.Router(),
	}

	failed := make(chan error, 1)
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- fmt.Errorf("web server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("Received %s, shutting down...", sig)
	case err := <-failed:
		log.Printf("Component failed: %v; shutting down...", err)
	}
	shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	app.Downloads().Wait()
	log.Println("Server exiting.")
}

// registerJobs binds the stable job ids to their tasks. Manual runs
// from the API and scheduled runs both dispatch through these.
func registerJobs(app *core.App) {
	app.JobManager().Register(jobs.JobSourceSweep, "Source sweep", func(ctx jobs.JobContext) {
		if _, err := app.Syncer().Sweep(context.Background()); err != nil {
			log.Printf("Sweep failed: %v", err)
		}
	})
	app.JobManager().Register(jobs.JobSessionCleanup, "Session cleanup", func(ctx jobs.JobContext) {
		n, err := app.Store().DeleteExpiredSessions()
		if err != nil {
			log.Printf("Session cleanup failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Session cleanup removed %d expired sessions.", n)
		}
	})
}
