package api

import (
	"net/http"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// handleListVideos returns either one source's videos or the most
// recently ingested ones across all sources.
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if kindParam := q.Get("kind"); kindParam != "" {
		kind := models.SourceKind(kindParam)
		sourceID, err := strconv.ParseInt(q.Get("source_id"), 10, 64)
		if !kind.Valid() || err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid source kind or id")
			return
		}
		videos, err := s.store.ListVideosBySource(kind, sourceID)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve videos")
			return
		}
		RespondWithJSON(w, http.StatusOK, videos)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	videos, err := s.store.ListRecentVideos(limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve videos")
		return
	}
	RespondWithJSON(w, http.StatusOK, videos)
}

func (s *Server) handleGetVideoStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetVideoStats()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to compute library stats")
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}
