// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /projects.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/add_collaborator", h.AddCollaborator)
		r.Post("/remove_collaborator", h.RemoveCollaborator)
		r.Get("/stats", h.Stats)
		r.Get("/tasks", h.ProjectTasks)
	})
	return r
}
