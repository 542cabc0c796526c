package vouchers

import "github.com/go-chi/chi/v5"

// MountRoutes registers the voucher API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/vouchers", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/post", h.Post)
		r.Post("/{id}/void", h.Void)
		r.Get("/{id}/logs", h.Logs)
	})
}
