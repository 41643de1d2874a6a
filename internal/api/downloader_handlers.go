// A handler file for all download-queue API endpoints.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetDownloadQueue(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.GetDownloadQueue()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve download queue")
		return
	}
	RespondWithJSON(w, http.StatusOK, items)
}

func (s *Server) handleQueueAction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	switch payload.Action {
	case "pause_all":
		s.app.Downloads().Pause()
		s.store.PauseAllQueueItems()
	case "resume_all":
		s.app.Downloads().Resume()
		s.store.ResumeAllQueueItems()
	case "retry_failed":
		s.store.ResetFailedQueueItems()
	case "delete_completed":
		s.store.DeleteCompletedQueueItems()
	case "empty":
		s.store.EmptyQueue()
	default:
		RespondWithError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleQueueItemAction(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	switch payload.Action {
	case "pause":
		err = s.app.Downloads().PauseItem(itemID)
	case "resume":
		err = s.app.Downloads().ResumeItem(itemID)
	case "retry":
		err = s.store.RetryQueueItem(itemID)
	case "delete":
		err = s.store.DeleteQueueItem(itemID)
	default:
		RespondWithError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
