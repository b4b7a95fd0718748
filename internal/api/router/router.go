package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/hospital-site/internal/forms"
	httpmiddleware "github.com/wolfman30/hospital-site/internal/http/middleware"
	"github.com/wolfman30/hospital-site/internal/site"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Site               *site.Handler
	Forms              *forms.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// HealthChecks are probed by /health; a failing check reports degraded.
	HealthChecks map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	} else {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/home", http.StatusFound)
	})

	// Form submissions are rate limited per client IP.
	if cfg.Forms != nil {
		r.Group(func(submit chi.Router) {
			if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
				submit.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
			}
			cfg.Forms.Routes(submit)
		})
	}

	// Page routes use a catch-all {kind} pattern so they mount last.
	if cfg.Site != nil {
		cfg.Site.Routes(r)
	}

	return r
}

func health(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			for _, name := range names {
				if err := checks[name](ctx); err != nil {
					resp[name] = err.Error()
					resp["status"] = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
