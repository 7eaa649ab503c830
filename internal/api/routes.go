package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/triagelab/crisisline/internal/auth"
	"github.com/triagelab/crisisline/internal/config"
	"github.com/triagelab/crisisline/internal/ingest"
	"github.com/triagelab/crisisline/internal/query"
	"github.com/triagelab/crisisline/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(ingestService *ingest.Service, queryService *query.Service, authService *auth.Service, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(ingestService, queryService, authService, config, logger),
		middleware: NewMiddleware(authService, logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api", func(router chi.Router) {
		// Ingestion endpoint, called by the voice-agent platform
		router.Post("/webhook", r.handler.HandleWebhook)

		// Auth endpoints
		router.Route("/users", func(router chi.Router) {
			router.Post("/login", r.handler.Login)
			router.Post("/logout", r.handler.Logout)
		})

		// Dashboard endpoints, behind the session cookie
		router.Group(func(router chi.Router) {
			router.Use(r.middleware.RequireAuth)
			router.Get("/calls", r.handler.GetCalls)
			router.Get("/calls/stats", r.handler.GetCallStats)
			router.Get("/providers", r.handler.GetProviders)
		})

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
