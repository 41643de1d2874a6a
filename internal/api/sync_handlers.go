package api

// Handlers for the scan engine's control surface: status, manual
// triggers, and the pause/resume switch.

import (
	"log"
	"net/http"

	"github.com/tonylu00/bili-sync-sub002/internal/jobs"
)

func (s *Server) handleGetScanStatus(w http.ResponseWriter, r *http.Request) {
	status := s.app.Syncer().Status()
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"is_running":  status.IsRunning,
		"paused":      s.app.Syncer().Paused(),
		"last_run":    status.LastRun,
		"last_finish": status.LastFinish,
		"next_run":    status.NextRun,
	})
}

func (s *Server) handleGetScanSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.app.Syncer().LastSummary()
	if summary == nil {
		RespondWithError(w, http.StatusNotFound, "No sweep has finished yet")
		return
	}
	RespondWithJSON(w, http.StatusOK, summary)
}

// handleTriggerScan submits the sweep through the job manager, the
// same path the scheduler uses, so manual and scheduled runs cannot
// overlap.
func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	if err := s.app.JobManager().RunJob(jobs.JobSourceSweep, s.app); err != nil {
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Sweep started."})
}

func (s *Server) handlePauseScan(w http.ResponseWriter, r *http.Request) {
	s.app.Syncer().Pause()
	log.Println("Scan paused via API.")
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResumeScan(w http.ResponseWriter, r *http.Request) {
	s.app.Syncer().Resume()
	log.Println("Scan resumed via API.")
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}
