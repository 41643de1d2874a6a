// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tonylu00/bili-sync-sub002/internal/core"
	"github.com/tonylu00/bili-sync-sub002/internal/store"
	"github.com/tonylu00/bili-sync-sub002/internal/update"
	"github.com/tonylu00/bili-sync-sub002/internal/websocket"
)

// Server holds the dependencies for our API.
type Server struct {
	app    *core.App
	db     *sql.DB
	store  *store.Store
	update *update.Checker
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:    app,
		db:     app.DB(),
		store:  app.Store(),
		update: update.New(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	// Public routes
	r.Post("/api/users/login", s.handleLogin)
	r.Get("/api/version", s.handleGetVersion)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Post("/api/users/logout", s.handleLogout)
		r.Get("/api/users/me", s.handleGetMe)

		r.Route("/api", func(r chi.Router) {
			r.Get("/config", s.handleGetConfig)

			// Scan control
			r.Get("/scan/status", s.handleGetScanStatus)
			r.Get("/scan/summary", s.handleGetScanSummary)
			r.Post("/scan/trigger", s.handleTriggerScan)
			r.Post("/scan/pause", s.handlePauseScan)
			r.Post("/scan/resume", s.handleResumeScan)

			// Source management
			r.Get("/sources", s.handleListSources)
			r.Post("/sources", s.handleCreateSource)
			r.Post("/sources/{kind}/{sourceID}/enabled", s.handleSetSourceEnabled)
			r.Delete("/sources/{kind}/{sourceID}", s.handleDeleteSource)

			// Library views
			r.Get("/videos", s.handleListVideos)
			r.Get("/videos/stats", s.handleGetVideoStats)

			// Download queue
			r.Get("/downloads/queue", s.handleGetDownloadQueue)
			r.Post("/downloads/action", s.handleQueueAction)
			r.Post("/downloads/queue/{itemID}/action", s.handleQueueItemAction)

			// Admin Job Triggers
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.AdminOnlyMiddleware)

				r.Get("/jobs/status", s.handleGetAdminJobsStatus)
				r.Post("/jobs/run", s.handleRunAdminJob)

				r.Get("/users", s.handleAdminListUsers)
				r.Post("/users", s.handleAdminCreateUser)
				r.Put("/users/{userID}", s.handleAdminUpdateUser)
				r.Delete("/users/{userID}", s.handleAdminDeleteUser)
			})
		})
	})

	// WebSocket route
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(s.app.WsHub(), w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
