// internal/app/features/account/routes.go
package account

import (
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/token/refresh", h.Refresh)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/logout", h.Logout)
		pr.Get("/profile", h.ServeProfile)
		pr.Patch("/profile", h.UpdateProfile)
		pr.Delete("/profile", h.DeleteProfile)
		pr.Get("/activity", h.ServeActivity)
	})
	return r
}
