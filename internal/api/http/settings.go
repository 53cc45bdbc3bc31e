package http

import (
	"net/http"

	"github.com/fontcap/fontcap-server/internal/model"
	"github.com/fontcap/fontcap-server/internal/service"
)

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	settings, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settingsResponse{
		AutoSync:        settings.AutoSync,
		ScanFrequency:   settings.ScanFrequency,
		DuplicatePolicy: settings.DuplicatePolicy,
	})
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req settingsUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	update := service.SettingsUpdate{AutoSync: req.AutoSync}
	if req.ScanFrequency != nil {
		f := model.ScanFrequency(*req.ScanFrequency)
		update.ScanFrequency = &f
	}
	if req.DuplicatePolicy != nil {
		p := model.DuplicatePolicy(*req.DuplicatePolicy)
		update.DuplicatePolicy = &p
	}

	settings, err := h.settings.Update(r.Context(), userID, update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settingsResponse{
		AutoSync:        settings.AutoSync,
		ScanFrequency:   settings.ScanFrequency,
		DuplicatePolicy: settings.DuplicatePolicy,
	})
}

func (h *Handler) storageUsage(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	usage, err := h.catalog.StorageUsage(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, storageUsageResponse{
		Used:    usage.Used,
		Limit:   usage.Limit,
		Percent: usage.Percent,
	})
}
