package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init builds the router. Everything under /api requires a bearer token;
// /health is open for probes.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.requestLogger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api", func(api chi.Router) {
		api.Use(h.auth)

		api.Route("/fonts", func(r chi.Router) {
			r.Get("/", h.listFonts)
			r.Get("/check-hash/{hash}", h.checkHash)
			r.Post("/bulk-register", h.bulkRegister)
			r.Post("/upload-url", h.createUploadURL)
			r.Post("/confirm-upload", h.confirmUpload)
			r.Get("/{id}/download-url", h.downloadURL)
			r.Delete("/{id}", h.deleteFont)
		})

		api.Route("/devices", func(r chi.Router) {
			r.Get("/", h.listDevices)
			r.Post("/register", h.registerDevice)
			r.Put("/{id}", h.renameDevice)
			r.Delete("/{id}", h.deleteDevice)
			r.Get("/{id}/fonts", h.listDeviceFonts)
			r.Post("/{id}/heartbeat", h.heartbeat)
			r.Put("/{id}/sync", h.setSyncEnabled)
		})

		api.Route("/sync", func(r chi.Router) {
			r.Get("/status", h.syncStatus)
			r.Post("/reconcile", h.reconcile)
			r.Get("/queue/{deviceId}", h.syncQueue)
		})

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", h.getSettings)
			r.Put("/", h.updateSettings)
			r.Get("/storage", h.storageUsage)
		})
	})

	return router
}
