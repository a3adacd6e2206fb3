package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/climacast/climacast/internal/api/models"
	"github.com/climacast/climacast/internal/api/response"
	"github.com/climacast/climacast/internal/geocode"
)

// GeocodeHandler handles geocoding endpoints.
type GeocodeHandler struct {
	service *geocode.Service
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(service *geocode.Service) *GeocodeHandler {
	return &GeocodeHandler{service: service}
}

// Forward handles GET /v1/geocode?query= - resolve a place query.
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	loc, err := h.service.Forward(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, geocode.ErrInvalidQuery):
			response.BadRequest(w, r, "query is required", nil)
		case errors.Is(err, geocode.ErrNotFound):
			response.NotFound(w, r, "no location matched the query")
		case errors.Is(err, geocode.ErrCredentialMissing):
			response.ServiceUnavailable(w, r, "geocoding is not configured")
		default:
			response.ServiceUnavailable(w, r, "geocoding is temporarily unavailable")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, toGeocodeResult(loc))
}

// Reverse handles GET /v1/geocode/reverse?lat=&lon= - name a coordinate pair.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "lat and lon are required and must be numbers", nil)
		return
	}

	loc, err := h.service.Reverse(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, geocode.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		response.ServiceUnavailable(w, r, "geocoding is temporarily unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, toGeocodeResult(loc))
}

func toGeocodeResult(loc *geocode.Location) models.GeocodeResult {
	return models.GeocodeResult{
		FormattedAddress: loc.FormattedAddress,
		Point: models.Point{
			Lat: loc.Lat,
			Lon: loc.Lon,
		},
		Approximate: loc.Approximate,
	}
}
