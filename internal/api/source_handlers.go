package api

// Handlers for managing the tracked sources. Creating a source
// validates it against the remote platform first, so a typo'd id is
// rejected at registration instead of failing silently on every sweep.

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve sources")
		return
	}
	RespondWithJSON(w, http.StatusOK, sources)
}

type createSourcePayload struct {
	Kind            string `json:"kind"`
	FID             int64  `json:"f_id,omitempty"`
	SID             int64  `json:"s_id,omitempty"`
	MID             int64  `json:"m_id,omitempty"`
	UpperID         int64  `json:"upper_id,omitempty"`
	SeasonID        int64  `json:"season_id,omitempty"`
	SelectedSeasons string `json:"selected_seasons,omitempty"`
	Name            string `json:"name,omitempty"`
	Path            string `json:"path"`
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var payload createSourcePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	kind := models.SourceKind(payload.Kind)
	if !kind.Valid() {
		RespondWithError(w, http.StatusBadRequest, "Unknown source kind")
		return
	}
	if err := util.ValidateFolderPath(payload.Path, s.app.Config().Library.Path); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid save path: "+err.Error())
		return
	}

	ctx := r.Context()
	client := s.app.Client()

	switch kind {
	case models.KindFavorite:
		if payload.FID == 0 {
			RespondWithError(w, http.StatusBadRequest, "f_id is required")
			return
		}
		meta, err := client.FavoriteInfo(ctx, payload.FID)
		if err != nil {
			RespondWithError(w, http.StatusBadGateway, "Could not resolve favorites folder: "+err.Error())
			return
		}
		name := payload.Name
		if name == "" {
			name = meta.Title
		}
		fav, err := s.store.CreateFavorite(payload.FID, name, payload.Path)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to save source")
			return
		}
		RespondWithJSON(w, http.StatusCreated, fav)

	case models.KindWatchLater:
		wl, err := s.store.CreateWatchLater(payload.Path)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to save source")
			return
		}
		RespondWithJSON(w, http.StatusCreated, wl)

	case models.KindCollection:
		if payload.SID == 0 || payload.MID == 0 {
			RespondWithError(w, http.StatusBadRequest, "s_id and m_id are required")
			return
		}
		meta, err := client.CollectionInfo(ctx, payload.MID, payload.SID)
		if err != nil {
			RespondWithError(w, http.StatusBadGateway, "Could not resolve collection: "+err.Error())
			return
		}
		name := payload.Name
		if name == "" {
			name = meta.Name
		}
		col, err := s.store.CreateCollection(payload.SID, payload.MID, name, payload.Path)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to save source")
			return
		}
		RespondWithJSON(w, http.StatusCreated, col)

	case models.KindSubmission:
		if payload.UpperID == 0 {
			RespondWithError(w, http.StatusBadRequest, "upper_id is required")
			return
		}
		meta, err := client.UpperInfo(ctx, payload.UpperID)
		if err != nil {
			RespondWithError(w, http.StatusBadGateway, "Could not resolve creator: "+err.Error())
			return
		}
		name := payload.Name
		if name == "" {
			name = meta.Name
		}
		sub, err := s.store.CreateSubmission(payload.UpperID, name, payload.Path)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to save source")
			return
		}
		RespondWithJSON(w, http.StatusCreated, sub)

	case models.KindBangumi:
		if payload.SeasonID == 0 {
			RespondWithError(w, http.StatusBadRequest, "season_id is required")
			return
		}
		meta, err := client.SeasonInfo(ctx, payload.SeasonID)
		if err != nil {
			RespondWithError(w, http.StatusBadGateway, "Could not resolve season: "+err.Error())
			return
		}
		name := payload.Name
		if name == "" {
			name = meta.Title
		}
		b, err := s.store.CreateBangumi(payload.SeasonID, meta.MediaID, name, payload.SelectedSeasons, payload.Path)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to save source")
			return
		}
		RespondWithJSON(w, http.StatusCreated, b)
	}
}

func (s *Server) sourceParams(r *http.Request) (models.SourceKind, int64, bool) {
	kind := models.SourceKind(chi.URLParam(r, "kind"))
	id, err := strconv.ParseInt(chi.URLParam(r, "sourceID"), 10, 64)
	if !kind.Valid() || err != nil {
		return "", 0, false
	}
	return kind, id, true
}

func (s *Server) handleSetSourceEnabled(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := s.sourceParams(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid source kind or id")
		return
	}
	var payload struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := s.store.SetSourceEnabled(kind, id, payload.Enabled); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to update source")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDeleteSource removes a source through the syncer so its scan
// checkpoint is purged along with the rows.
func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := s.sourceParams(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid source kind or id")
		return
	}
	if err := s.app.Syncer().RemoveSource(kind, id); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
