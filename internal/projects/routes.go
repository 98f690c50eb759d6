package projects

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdesk/crewdesk/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Get("/", h.List)
		r.Get("/employee/{employeeId}", h.ListByEmployee)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/history", h.History)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(shared.RoleAdmin, shared.RolePrincipal))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Put("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
}
