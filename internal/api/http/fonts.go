package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/model"
	"github.com/fontcap/fontcap-server/internal/service"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handler) listFonts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	limit, offset := pagination(r)

	fonts, err := h.catalog.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := fontListResponse{Fonts: make([]fontResponse, 0, len(fonts))}
	for _, f := range fonts {
		resp.Fonts = append(resp.Fonts, toFontResponse(f))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteFont(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	fontID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid font id"})
		return
	}

	if err := h.catalog.Delete(r.Context(), fontID, userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkHash(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	contentHash := chi.URLParam(r, "hash")

	font, exists, err := h.catalog.CheckHash(r.Context(), userID, contentHash)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := checkHashResponse{Exists: exists}
	if exists {
		f := toFontResponse(font)
		resp.Font = &f
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) bulkRegister(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req bulkRegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.DeviceID == uuid.Nil || len(req.Fonts) == 0 {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "deviceId and fonts are required"})
		return
	}

	items := make([]service.RegistrationItem, 0, len(req.Fonts))
	for _, f := range req.Fonts {
		item, ok := f.toService()
		if !ok {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported font format: " + f.Format})
			return
		}
		items = append(items, item)
	}

	report, err := h.registrar.BulkRegister(r.Context(), userID, req.DeviceID, items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toBulkRegisterResponse(report))
}

func (h *Handler) createUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req uploadURLRequest
	if !h.decode(w, r, &req) {
		return
	}

	format, ok := model.ParseFontFormat(req.Format)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported font format: " + req.Format})
		return
	}

	ticket, err := h.catalog.CreateUploadURL(r.Context(), userID, service.UploadRequest{
		ContentHash: req.ContentHash,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		Format:      format,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, uploadURLResponse{
		URL:         ticket.URL,
		StorageKey:  ticket.StorageKey,
		ContentType: ticket.ContentType,
	})
}

// confirmUpload registers a font whose bytes the client just PUT to storage.
// Registration is hash-idempotent, so confirming content the user already
// owns resolves to the existing row instead of failing.
func (h *Handler) confirmUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req confirmUploadRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.DeviceID == uuid.Nil || req.Font.StorageKey == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "deviceId and font.storageKey are required"})
		return
	}

	item, ok := req.Font.toService()
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported font format: " + req.Font.Format})
		return
	}

	report, err := h.registrar.BulkRegister(r.Context(), userID, req.DeviceID, []service.RegistrationItem{item})
	if err != nil {
		h.writeError(w, err)
		return
	}

	switch {
	case len(report.Registered) == 1:
		h.writeJSON(w, http.StatusCreated, confirmUploadResponse{Font: toFontResponse(report.Registered[0])})
	case len(report.Duplicates) == 1:
		font, _, err := h.catalog.CheckHash(r.Context(), userID, item.ContentHash)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, confirmUploadResponse{Font: toFontResponse(font), Duplicate: true})
	default:
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "font was not registered"})
	}
}

func (h *Handler) downloadURL(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	fontID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid font id"})
		return
	}

	url, err := h.catalog.DownloadURL(r.Context(), fontID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, downloadURLResponse{URL: url})
}
