package generation

import (
	"github.com/futig/docgen-gateway/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers generation routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/generation/{type}", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/", h.GetSession)
		r.Post("/questions/load", h.LoadQuestions)
		r.Put("/questions/{id}/answer", h.AnswerQuestion)
		r.Post("/questions/{id}/confirm", h.ConfirmAnswer)
		r.Post("/cursor", h.MoveCursor)
		r.Post("/view", h.SetView)
		r.Post("/upload", h.UploadSource)
		r.Post("/start", h.StartGeneration)
		r.Post("/stop", h.StopGeneration)
		r.Post("/preview", h.BuildPreview)
		r.Get("/preview/download", h.DownloadPreview)
		r.Post("/reset", h.ResetDocument)
	})
}
