package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dwdcdc/internal/api"
	"dwdcdc/internal/auth"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/db"
	"dwdcdc/internal/jobs"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/metrics"
	"dwdcdc/internal/middleware"
)

// Dependencies are the collaborators the ops server is built from
type Dependencies struct {
	Store    *db.Store
	Registry *dataset.Registry
	Runner   api.SyncRunner
	Metrics  *metrics.MetricsRegistry
	Tokens   *auth.TokenService
	Defaults jobs.Request
}

func RegisterRoutes(deps Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	logging.Info("Router initialized with metrics and logging middleware")

	r.Get("/healthCheck", api.HealthCheckHandler(deps.Store, deps.Registry, upSince))
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	jobsHandler := api.NewJobsHandler(deps.Runner, deps.Defaults)
	limiter := middleware.NewIPRateLimiter(1, 5)

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(middleware.JobsAuthMiddleware(deps.Tokens))

		r.Post("/sync", jobsHandler.TriggerSync())
		r.Get("/last", jobsHandler.LastRun())
	})

	return r
}
