// Package httpapi assembles the HTTP surface: middleware chain, health and
// metrics endpoints, and the staff-authenticated /api routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic/internal/platform/metrics"
	"clinic/internal/platform/middleware"
	"clinic/pkg/platform/httputil"
)

// Registrar mounts a bounded context's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck pings a backing service.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	TokenValidator middleware.TokenValidator
	AuthDisabled   bool
	RequestTimeout time.Duration
	// HealthChecks are run by /healthz, keyed by component name.
	HealthChecks map[string]HealthCheck
}

const healthTimeout = 2 * time.Second

func NewRouter(cfg Config, api ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Tracing("clinic"))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/healthz", healthz(cfg.HealthChecks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.ContentTypeJSON)
		if !cfg.AuthDisabled {
			r.Use(middleware.RequireStaff(cfg.TokenValidator, cfg.Logger))
		}
		for _, reg := range api {
			reg.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
