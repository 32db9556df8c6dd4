package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solarroi/solarroi/internal/api/response"
	"github.com/solarroi/solarroi/internal/catalog"
)

// NewCitiesHandler lists the supported cities.
func NewCitiesHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Collection(w, cat.Cities, response.ListMeta{Total: len(cat.Cities), Version: cat.Version})
	}
}

// NewPanelsHandler lists the supported panel types.
func NewPanelsHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Collection(w, cat.Panels, response.ListMeta{Total: len(cat.Panels), Version: cat.Version})
	}
}

// IrradianceInvalidator drops cached irradiance for a city.
type IrradianceInvalidator interface {
	Invalidate(ctx context.Context, city string) error
}

// NewInvalidateIrradianceHandler handles DELETE /api/v1/irradiance/{city}.
func NewInvalidateIrradianceHandler(inv IrradianceInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := chi.URLParam(r, "city")
		if err := inv.Invalidate(r.Context(), city); err != nil {
			if errors.Is(err, catalog.ErrUnsupportedLocation) {
				response.Error(w, http.StatusNotFound, "UNSUPPORTED_LOCATION", err.Error(), nil)
				return
			}
			slog.Error("invalidating irradiance", "city", city, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to invalidate irradiance", nil)
			return
		}
		response.JSON(w, map[string]any{"city": city, "invalidated": true})
	}
}
