package api

import (
	"context"
	"net/http"
	"time"

	"jobpilot/internal/api/handler"
	"jobpilot/internal/api/middleware"
	"jobpilot/internal/app/service"
	"jobpilot/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	jobService *service.JobService,
	stepService *service.StepService,
	taskService *service.LocalTaskService,
	notifier *service.NotifierService,
	storagePing func(ctx context.Context) error,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Public health check
	healthHandler := handler.NewHealthHandler(storagePing, notifier)
	r.Get("/health", healthHandler.Health)

	// API v1 Routes. Bearer auth applies to the whole surface when a secret is
	// configured; otherwise the Authenticator is a passthrough.
	r.Route("/api/v1", func(v1 chi.Router) {
		if security.Enabled() {
			v1.Use(jwtauth.Verifier(security.TokenAuth))
		}
		v1.Use(middleware.Authenticator)

		jobHandler := handler.NewJobHandler(jobService)
		stepHandler := handler.NewStepHandler(stepService)
		taskHandler := handler.NewLocalTaskHandler(taskService)

		v1.Route("/jobs", func(jobs chi.Router) {
			jobHandler.RegisterRoutes(jobs)
			jobs.Route("/{jobID}/steps", stepHandler.RegisterJobRoutes)
		})
		v1.Route("/steps", stepHandler.RegisterRoutes)
		v1.Route("/local-tasks", taskHandler.RegisterRoutes)
	})

	return r
}
