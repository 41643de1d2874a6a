package api

import (
	"context"
	"net/http"
	"time"
)

// handleGetVersion reports the running version. With ?check_update=1
// it also consults the release feed; a feed failure degrades to the
// plain version answer instead of erroring.
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{"version": s.app.Version()}

	if r.URL.Query().Get("check_update") == "1" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if available, release, err := s.update.Available(ctx, s.app.Version()); err == nil {
			response["update_available"] = available
			if release != nil {
				response["latest"] = release
			}
		}
	}

	RespondWithJSON(w, http.StatusOK, response)
}

// handleGetConfig echoes the effective, non-secret configuration.
// Credentials and the aria2 secret never leave the process.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.app.Config()
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"port":          cfg.Port,
		"scan_interval": cfg.ScanInterval,
		"library_path":  cfg.Library.Path,
		"downloader": map[string]interface{}{
			"workers":      cfg.Downloader.Workers,
			"multithread":  cfg.Downloader.Multithread,
			"min_split_mb": cfg.Downloader.MinSplitMB,
			"backend":      s.app.Backend().Name(),
		},
		"danmaku": cfg.Danmaku,
	})
}
