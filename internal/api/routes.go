// Package api wires the chi router: public health endpoint plus the
// JWT-protected /api/v1/* surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sobot-ai/sobot/internal/api/handlers"
	apmiddleware "github.com/sobot-ai/sobot/internal/api/middleware"
)

// Deps carries the domain services the router exposes. Construction happens
// in main; the router only binds routes.
type Deps struct {
	BotPosts handlers.BotPostService
	BotChats handlers.BotChatService
	Traces   handlers.TraceService
}

// NewRouter creates and configures the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — unauthenticated, used by load balancers and probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// All /api/v1/* routes require a valid Bearer JWT service token.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware)

		botPosts := handlers.NewBotPostsHandler(deps.BotPosts)
		r.Post("/bot-posts", botPosts.Generate)

		botChats := handlers.NewBotChatsHandler(deps.BotChats)
		r.Post("/bot-chats", botChats.Generate)

		traces := handlers.NewTracesHandler(deps.Traces)
		r.Get("/traces", traces.List)
		r.Get("/traces/{id}", traces.Get)
	})

	return r
}
