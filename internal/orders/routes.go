package orders

import "github.com/go-chi/chi/v5"

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.show)
	r.Patch("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
}
