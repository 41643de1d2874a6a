package bilibili

import (
	"encoding/json"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// envelope is the outer JSON shape shared by the web API endpoints.
// PGC endpoints use "result" instead of "data"; getPGC handles those.
type envelope struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Voucher string          `json:"v_voucher"`
	Data    json.RawMessage `json:"data"`
}

type pgcEnvelope struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Page is one decoded page of a remote listing.
type Page struct {
	Items []models.RemoteItem
	// Total is the remote platform's count of matching items, which
	// may exceed what it is actually willing to return.
	Total   int64
	HasMore bool
}

// decodeHasMore enforces that a non-empty page carries a boolean
// has_more. A missing or non-boolean value means we cannot know
// whether more pages exist; that is a protocol error, not end of data.
func decodeHasMore(endpoint string, raw json.RawMessage) (bool, error) {
	if len(raw) == 0 {
		return false, &ProtocolError{Endpoint: endpoint, Reason: "has_more flag missing"}
	}
	var hasMore bool
	if err := json.Unmarshal(raw, &hasMore); err != nil {
		return false, &ProtocolError{Endpoint: endpoint, Reason: "has_more flag is not a boolean"}
	}
	return hasMore, nil
}
