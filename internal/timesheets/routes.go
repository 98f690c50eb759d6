package timesheets

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdesk/crewdesk/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Get("/", h.List)
		r.Get("/week", h.Week)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/history", h.History)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		// review transitions are reserved for reviewers
		r.Use(h.guard.RequireRole(shared.RoleAdmin, shared.RolePrincipal))
		r.Put("/{id}/status", h.UpdateStatus)
	})
}
