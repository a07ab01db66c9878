package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	httpmiddleware "github.com/cappsac/capps-site/internal/http/middleware"
	"github.com/cappsac/capps-site/internal/web"
	"github.com/cappsac/capps-site/pkg/logging"
)

const (
	healthCheckTimeout = 2 * time.Second
	requestTimeout     = 30 * time.Second
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Site               *web.Handler
	Admin              *web.AdminHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// FormLimiter throttles form and API writes per client IP.
	FormLimiter *httpmiddleware.RateLimiter
	// APIRequestsPerMinute caps all /api traffic per client IP; zero disables it.
	APIRequestsPerMinute int

	HealthChecks map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Site != nil {
		r.Group(func(pages chi.Router) {
			if cfg.FormLimiter != nil {
				pages.Use(cfg.FormLimiter.Middleware)
			}
			cfg.Site.RegisterPages(pages)
		})

		r.Route("/api", func(api chi.Router) {
			api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			if cfg.APIRequestsPerMinute > 0 {
				api.Use(httprate.LimitByIP(cfg.APIRequestsPerMinute, time.Minute))
			}
			if cfg.FormLimiter != nil {
				api.Use(cfg.FormLimiter.Middleware)
			}
			api.Use(requireJSON)
			cfg.Site.RegisterAPI(api)
		})

		r.NotFound(cfg.Site.NotFound)
	}

	// Admin routes are only mounted when a signing secret is configured.
	if cfg.Admin != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			cfg.Admin.RegisterRoutes(admin)
		})
	}

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
