// Package httpapi assembles the HTTP surface: the global middleware chain, public
// endpoints and the authenticated module routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"biblio/internal/platform/metrics"
	"biblio/internal/platform/middleware"
	"biblio/pkg/platform/httputil"
	authmw "biblio/pkg/platform/middleware/auth"
	"biblio/pkg/platform/middleware/metadata"
	"biblio/pkg/platform/middleware/requesttime"
)

// RouteRegistrar is implemented by every module handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// StreamRegistrar mounts long-lived endpoints that must not run under the request timeout.
type StreamRegistrar interface {
	RegisterStream(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Tokens         authmw.TokenValidator
	RequestTimeout time.Duration
	Public         []PublicRegistrar
	Modules        []RouteRegistrar
	Streams        []StreamRegistrar
	Health         map[string]HealthCheck
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(middleware.Latency(d.Metrics))
	}
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(d.Health))
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.RequestTimeout))
		for _, p := range d.Public {
			p.RegisterPublic(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Tokens, d.Logger))
		for _, s := range d.Streams {
			s.RegisterStream(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(d.RequestTimeout))
			for _, m := range d.Modules {
				m.Register(r)
			}
		})
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				result[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": overall, "checks": result})
	}
}
