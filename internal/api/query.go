package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/askdesk/askdesk/internal/orchestrator"
)

type queryRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Orchestrator == nil {
		writeDetail(w, http.StatusInternalServerError, "query service is not configured")
		return
	}

	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := deps.Orchestrator.Answer(r.Context(), request.UserID, request.Query)
	if err != nil {
		if errors.Is(err, orchestrator.ErrQueryRequired) {
			writeDetail(w, http.StatusBadRequest, orchestrator.ErrQueryRequired.Error())
			return
		}
		// Every other failure kind collapses to a single status on purpose.
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The success payload is a bare JSON string.
	writeJSON(w, http.StatusOK, answer)
}
