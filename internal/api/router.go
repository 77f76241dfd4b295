package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		// Browsers cannot set headers on the upgrade request, so the
		// WebSocket authenticates with a ticket instead of the JWT.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/board", func(r chi.Router) {
				r.Get("/", s.handleGetBoard)
				r.Put("/power", s.handleSetPower)
				r.Put("/mute", s.handleSetMute)
				r.Post("/reset", s.handleReset)
			})

			r.Route("/dsp", func(r chi.Router) {
				r.Get("/volume", s.handleGetVolume)
				r.Put("/volume", s.handleSetVolume)
				r.Get("/balance", s.handleGetBalance)
				r.Put("/balance", s.handleSetBalance)
				r.Get("/input", s.handleGetInput)
				r.Put("/input", s.handleSetInput)
				r.Get("/bass", s.handleGetBass)
				r.Put("/bass", s.handleSetBass)
				r.Get("/treble", s.handleGetTreble)
				r.Put("/treble", s.handleSetTreble)
			})

			r.Route("/tuner", func(r chi.Router) {
				r.Get("/tune", s.handleGetTuning)
				r.Put("/tune", s.handleTune)
				r.Put("/step", s.handleSetStep)
			})

			r.Get("/history", s.handleHistory)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"board_id": s.radio.BoardID(),
	})
}
