package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID := uuid.Nil
	if raw := r.URL.Query().Get("deviceId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
			return
		}
		deviceID = id
	}

	status, err := h.sync.Status(r.Context(), userID, deviceID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, syncStatusResponse{
		TotalFonts:  status.TotalFonts,
		DeviceFonts: status.DeviceFonts,
		PendingSync: status.PendingSync,
		LastSync:    status.LastSync,
	})
}

// reconcile runs the engine synchronously and returns its report. A run
// already in flight for the device maps to 409.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req reconcileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.DeviceID == uuid.Nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "deviceId is required"})
		return
	}

	report, err := h.sync.Reconcile(r.Context(), req.DeviceID, userID, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, reconcileResponse{
		Downloaded: report.Downloaded,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Message:    report.Message,
	})
}

func (h *Handler) syncQueue(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID, err := uuid.Parse(chi.URLParam(r, "deviceId"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return
	}

	entries, err := h.sync.PendingQueue(r.Context(), userID, deviceID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := queueListResponse{Entries: make([]queueEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, queueEntryResponse{
			ID:        e.ID,
			FontID:    e.FontID,
			Action:    e.Action,
			Status:    e.Status,
			Error:     e.Error,
			CreatedAt: e.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}
