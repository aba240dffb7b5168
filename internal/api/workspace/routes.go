package workspace

import (
	"github.com/futig/docgen-gateway/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers workspace routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/workspace", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/", h.GetWorkspace)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Put("/project", h.SwitchProject)

		r.Get("/onboarding", h.CurrentTour)
		r.Post("/onboarding/{page}/start", h.StartTour)
		r.Post("/onboarding/next", h.NextTourStep)
		r.Post("/onboarding/skip", h.SkipTour)
	})
}
