package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/solarroi/solarroi/internal/api/middleware"
	"github.com/solarroi/solarroi/internal/api/response"
	"github.com/solarroi/solarroi/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
// A nil Auth serves every route without key authentication.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit
	Metrics   http.Handler

	HealthHandler        http.HandlerFunc
	CitiesHandler        http.HandlerFunc
	PanelsHandler        http.HandlerFunc
	CreateAnalysis       http.HandlerFunc
	GetAnalysis          http.HandlerFunc
	GetArtifact          http.HandlerFunc
	InvalidateIrradiance http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/v1/cities", orNotImplemented(deps.CitiesHandler))
	r.Get("/api/v1/panels", orNotImplemented(deps.PanelsHandler))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/analyses", orNotImplemented(deps.CreateAnalysis))
		r.Get("/api/v1/analyses/{batchID}", orNotImplemented(deps.GetAnalysis))
		r.Get("/api/v1/analyses/{batchID}/artifacts/{format}", orNotImplemented(deps.GetArtifact))

		r.Group(func(r chi.Router) {
			if deps.Auth != nil {
				r.Use(deps.Auth.RequireScope(models.ScopeAdmin))
			}
			r.Delete("/api/v1/irradiance/{city}", orNotImplemented(deps.InvalidateIrradiance))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
