package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/service"
)

func deviceIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	statuses, err := h.devices.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := deviceListResponse{Devices: make([]deviceResponse, 0, len(statuses))}
	for _, s := range statuses {
		resp.Devices = append(resp.Devices, toDeviceResponse(s.Device, s.Online))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req registerDeviceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Identifier == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name and identifier are required"})
		return
	}

	device, isNew, err := h.devices.Register(r.Context(), service.RegisterDeviceParams{
		UserID:     userID,
		Name:       req.Name,
		Identifier: req.Identifier,
		OSType:     req.OSType,
		OSVersion:  req.OSVersion,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, toDeviceResponse(device, true))
}

func (h *Handler) renameDevice(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID, ok := deviceIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return
	}

	var req renameDeviceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	device, err := h.devices.Rename(r.Context(), deviceID, userID, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toDeviceResponse(device, true))
}

func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID, ok := deviceIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return
	}

	if err := h.devices.Delete(r.Context(), deviceID, userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDeviceFonts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID, ok := deviceIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return
	}

	views, err := h.catalog.ListForDevice(r.Context(), deviceID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := deviceFontListResponse{Fonts: make([]deviceFontResponse, 0, len(views))}
	for _, v := range views {
		resp.Fonts = append(resp.Fonts, deviceFontResponse{
			fontResponse: toFontResponse(v.Font),
			Status:       v.Status,
			SystemFont:   v.SystemFont,
			InstalledAt:  v.InstalledAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID, ok := deviceIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return
	}

	h.devices.Heartbeat(r.Context(), deviceID, userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setSyncEnabled(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	deviceID, ok := deviceIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return
	}

	var req syncEnabledRequest
	if !h.decode(w, r, &req) {
		return
	}

	device, err := h.devices.SetSyncEnabled(r.Context(), deviceID, userID, req.Enabled)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toDeviceResponse(device, true))
}
