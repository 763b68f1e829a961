package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"specmap/application/session"
	"specmap/domain/template"
	"specmap/interfaces/http/rest/handlers"
	"specmap/interfaces/http/rest/middleware"
	"specmap/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	manager       *session.Manager
	catalog       *template.Catalog
	authenticator *middleware.Authenticator
	tracer        *observability.Tracer
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	manager *session.Manager,
	catalog *template.Catalog,
	authenticator *middleware.Authenticator,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Router {
	return &Router{
		manager:       manager,
		catalog:       catalog,
		authenticator: authenticator,
		tracer:        tracer,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.specmap.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authenticator.Middleware())

		// Template catalog
		r.Route("/templates", func(r chi.Router) {
			templateHandler := handlers.NewTemplateHandler(rt.catalog, rt.logger)
			r.Get("/", templateHandler.ListTemplates)
			r.Get("/{templateID}", templateHandler.GetTemplate)
		})

		// Editing sessions
		r.Route("/sessions", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(rt.manager, rt.tracer, rt.logger)
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/", sessionHandler.ListSessions)
			r.Get("/{sessionID}", sessionHandler.GetSession)
			r.Put("/{sessionID}", sessionHandler.UpdateSession)
			r.Delete("/{sessionID}", sessionHandler.DeleteSession)

			r.Post("/{sessionID}/messages", sessionHandler.SendMessage)
			r.Post("/{sessionID}/suggestions/approve", sessionHandler.ApproveSuggestions)
			r.Post("/{sessionID}/suggestions/reject", sessionHandler.RejectSuggestions)
			r.Put("/{sessionID}/nodes/{nodeID}/position", sessionHandler.MoveNode)
			r.Get("/{sessionID}/progress", sessionHandler.GetProgress)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
