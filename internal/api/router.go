package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmarks/driftpad/internal/auth"
)

// NewRouter creates a chi router with all API routes mounted under /.
// The save endpoint sits outside the auth group: the unload-time beacon
// cannot attach headers and must never be blocked. sseHandler, if non-nil,
// is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, issuer *auth.Issuer, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	// Auth.
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)

	// Beacon-reachable save path.
	r.Post("/notes/save", h.SaveNote)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(issuer))

		// Entries.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Delete("/notes", h.DeleteNotes)

		// Annotation playback.
		r.Post("/notes/{id}/playback", h.StartPlayback)
		r.Delete("/notes/{id}/playback", h.StopPlayback)

		// Generation.
		r.Post("/ai/sparks", h.Sparks)
		r.Post("/ai/background-words", h.BackgroundWords)
		r.Post("/ai/captions", h.Captions)
		r.Post("/ai/script", h.Script)
		r.Post("/ai/visual-notes", h.VisualNotes)
		r.Post("/ai/conversation", h.Conversation)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
