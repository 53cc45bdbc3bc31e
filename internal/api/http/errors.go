package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fontcap/fontcap-server/internal/model"
)

var errorStatusMap = map[error]int{
	model.ErrNotFound:       http.StatusNotFound,
	model.ErrUnauthorized:   http.StatusUnauthorized,
	model.ErrInvalidInput:   http.StatusBadRequest,
	model.ErrSyncInProgress: http.StatusConflict,
	model.ErrNotUploaded:    http.StatusConflict,
	model.ErrQuotaExceeded:  http.StatusRequestEntityTooLarge,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a domain error to a status and a JSON body. Duplicate
// conflicts additionally carry the id of the font that owns the content.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var conflict *model.ConflictError
	if errors.As(err, &conflict) {
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: conflict.Error(), FontID: &conflict.FontID})
		return
	}

	status := statusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		msg = http.StatusText(http.StatusInternalServerError)
	}
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
