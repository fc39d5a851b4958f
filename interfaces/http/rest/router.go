// Package rest wires the HTTP surface: routes, middleware, health and
// metrics endpoints.
package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/infrastructure/config"
	"mentorconnect-backend/interfaces/http/rest/handlers"
	"mentorconnect-backend/interfaces/http/rest/middleware"
	"mentorconnect-backend/pkg/auth"
)

// Router builds the HTTP handler tree.
type Router struct {
	cfg       *config.Config
	threads   *handlers.ThreadHandler
	students  *handlers.StudentHandler
	validator *auth.JWTValidator
	registry  *prometheus.Registry
	cache     ports.Cache
	logger    *zap.Logger
}

// NewRouter creates a router. registry may be nil when metrics are disabled.
func NewRouter(
	cfg *config.Config,
	threads *handlers.ThreadHandler,
	students *handlers.StudentHandler,
	validator *auth.JWTValidator,
	registry *prometheus.Registry,
	threadCache ports.Cache,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:       cfg,
		threads:   threads,
		students:  students,
		validator: validator,
		registry:  registry,
		cache:     threadCache,
		logger:    logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.mentorconnect.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", rt.threads.ListThreads)
			r.Post("/", rt.threads.CreateThread)
			r.Get("/{threadID}", rt.threads.GetThread)
			r.Delete("/{threadID}", rt.threads.DeleteThread)
			r.Post("/{threadID}/messages", rt.threads.SendMessage)
			r.Patch("/{threadID}/open", rt.threads.OpenThread)
			r.Patch("/{threadID}/close", rt.threads.CloseThread)
		})

		r.Get("/users/{userID}/threads", rt.threads.ListUserThreads)

		r.Route("/students", func(r chi.Router) {
			r.Get("/", rt.students.ListStudents)
			r.Delete("/{userID}", rt.students.DeleteStudent)
			r.Put("/{userID}/profile", rt.students.UpsertProfile)
			r.Get("/{userID}/profile", rt.students.GetProfile)
			r.Delete("/{userID}/profile", rt.students.DeleteProfile)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready as long as the process serves traffic. A dead
// cache backend degrades reads to store-only, it does not make the service
// unready, so it is reported rather than failed.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	cacheState := "ok"
	if p, ok := rt.cache.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(req.Context()); err != nil {
			rt.logger.Warn("readiness cache probe failed", zap.Error(err))
			cacheState = "degraded"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready","cache":"` + cacheState + `"}`))
}
