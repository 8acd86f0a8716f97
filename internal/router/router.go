package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"blogtwin-backend/internal/handlers"
	"blogtwin-backend/internal/middleware"
	"blogtwin-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	generateLimiter *middleware.RateLimiter,
	generationHandler *handlers.GenerationHandler,
	styleHandler *handlers.StyleHandler,
	publishHandler *handlers.PublishHandler,
	usageHandler *handlers.UsageHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// WebSocket authenticates with ?token= since browsers cannot set headers
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			// ──── Generation ────
			r.Route("/generate", func(r chi.Router) {
				r.Use(generateLimiter.Middleware)
				r.Post("/post", generationHandler.GeneratePost)
				r.Post("/image-post", generationHandler.GenerateImagePost)
				r.Post("/titles", generationHandler.ImproveTitles)
				r.Post("/hashtags", generationHandler.GenerateHashtags)
				r.Post("/expand", generationHandler.ExpandContent)
				r.Post("/tone", generationHandler.AdjustTone)
				r.Post("/summary", generationHandler.Summarize)
				r.Post("/introduction", generationHandler.Introduction)
				r.Post("/conclusion", generationHandler.Conclusion)
				r.Post("/seo", generationHandler.OptimizeSEO)
				r.Post("/polish", generationHandler.Polish)
				r.Post("/spellcheck", generationHandler.SpellCheck)
				r.Post("/next-paragraph", generationHandler.SuggestNextParagraph)
			})

			// ──── Style Profile ────
			r.Route("/style", func(r chi.Router) {
				r.With(generateLimiter.Middleware).Post("/analyze", styleHandler.Analyze)
				r.With(generateLimiter.Middleware).Post("/import", styleHandler.Import)
				r.Get("/profile", styleHandler.GetProfile)
				r.Get("/prompt", styleHandler.GetPrompt)
			})

			// ──── Publishing ────
			r.Route("/publish", func(r chi.Router) {
				r.Post("/validate", publishHandler.Validate)
				r.Post("/prepare", publishHandler.Prepare)
				r.Post("/clipboard", publishHandler.Clipboard)
				r.Get("/history", publishHandler.History)
				r.Get("/stats", publishHandler.Stats)
				r.Get("/scheduled", publishHandler.ListScheduled)
				r.Delete("/scheduled/{id}", publishHandler.CancelScheduled)
			})

			// ──── Usage ────
			r.Get("/usage/stats", usageHandler.Stats)
			r.Get("/queue/status", usageHandler.QueueStatus)
		})
	})

	return r
}
