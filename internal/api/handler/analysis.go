// Package handler provides HTTP handlers for the ClimaCast API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/climacast/climacast/internal/analysis"
	"github.com/climacast/climacast/internal/api/models"
	"github.com/climacast/climacast/internal/api/response"
	"github.com/climacast/climacast/internal/geocode"
)

// targetDateLayout is the wire format for analysis target dates.
const targetDateLayout = "2006-01-02"

// AnalysisHandler handles analysis run endpoints.
type AnalysisHandler struct {
	service *analysis.Service
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(service *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// RunAnalysis handles POST /v1/analyses:run - execute a new analysis.
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var input models.RunAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req := analysis.RunRequest{
		UserID: GetUserID(r.Context()),
	}

	if input.Query != nil {
		req.Query = *input.Query
	}
	if input.Lat != nil && input.Lon != nil {
		req.Latitude = *input.Lat
		req.Longitude = *input.Lon
		req.HasCoordinates = true
	}

	if input.TargetDate != "" {
		targetDate, err := time.Parse(targetDateLayout, input.TargetDate)
		if err != nil {
			response.BadRequest(w, r, "targetDate must be formatted as YYYY-MM-DD", []models.FieldError{
				{Field: "targetDate", Message: "invalid date format", Code: "format"},
			})
			return
		}
		req.TargetDate = targetDate
	}

	run, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/analyses/%s", run.ID)
	response.Created(w, r, location, toAPIRun(run))
}

// ListAnalyses handles GET /v1/analyses - list past runs for the caller.
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	opts := analysis.ListOptions{
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		opts.Limit = limit
	}

	result, err := h.service.List(r.Context(), GetUserID(r.Context()), opts)
	if err != nil {
		response.InternalError(w, r, "failed to list analyses")
		return
	}

	items := make([]models.AnalysisRun, 0, len(result.Items))
	for _, run := range result.Items {
		items = append(items, *toAPIRun(run))
	}

	page := models.PagedAnalysisRuns{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit: opts.Limit,
		},
	}
	if result.NextCursor != "" {
		page.Meta.NextCursor = &result.NextCursor
	}

	response.JSON(w, r, http.StatusOK, page)
}

// GetAnalysis handles GET /v1/analyses/{analysisId} - fetch a stored run.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisId")
	if analysisID == "" {
		response.BadRequest(w, r, "analysisId is required", nil)
		return
	}

	run, err := h.service.Get(r.Context(), analysisID)
	if err != nil {
		if errors.Is(err, analysis.ErrRunNotFound) {
			response.NotFound(w, r, "analysis run not found")
			return
		}
		response.InternalError(w, r, "failed to load analysis")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIRun(run))
}

// ExportAnalysis handles GET /v1/analyses/{analysisId}/export - download a
// stored run as a JSON document.
func (h *AnalysisHandler) ExportAnalysis(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisId")
	if analysisID == "" {
		response.BadRequest(w, r, "analysisId is required", nil)
		return
	}

	filename, document, err := h.service.Export(r.Context(), analysisID)
	if err != nil {
		if errors.Is(err, analysis.ErrRunNotFound) {
			response.NotFound(w, r, "analysis run not found")
			return
		}
		response.InternalError(w, r, "failed to export analysis")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

// writeRunError maps analysis pipeline errors onto HTTP responses.
func (h *AnalysisHandler) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrNoLocation):
		response.BadRequest(w, r, "either query or lat/lon coordinates are required", nil)
	case errors.Is(err, analysis.ErrInvalidCoordinates):
		response.BadRequest(w, r, "coordinates out of range", nil)
	case errors.Is(err, analysis.ErrInvalidDate):
		response.BadRequest(w, r, "targetDate is required", nil)
	case errors.Is(err, geocode.ErrNotFound):
		response.NotFound(w, r, "no location matched the query")
	case errors.Is(err, analysis.ErrRunInProgress):
		response.Conflict(w, r, "an analysis is already in progress; retry when it completes")
	case errors.Is(err, analysis.ErrClimatologyUnavailable):
		// The error chain carries the provider failure; surface it so the
		// caller sees why the run could not complete.
		response.ServiceUnavailable(w, r, err.Error())
	default:
		response.InternalError(w, r, "analysis failed")
	}
}

// toAPIRun converts a domain run to its API representation.
func toAPIRun(run *analysis.Run) *models.AnalysisRun {
	out := &models.AnalysisRun{
		ID: run.ID,
		Location: models.AnalysisLocation{
			DisplayName: run.Location.DisplayName,
			Point: models.Point{
				Lat: run.Location.Latitude,
				Lon: run.Location.Longitude,
			},
		},
		TargetDate:        run.TargetDate.Format(targetDateLayout),
		ClimatologySource: run.ClimatologySource,
		Summary:           run.Summary,
		CreatedAt:         models.Timestamp(run.CreatedAt),
	}

	out.Likelihoods = make([]models.HazardLikelihood, 0, len(run.Likelihoods))
	for _, l := range run.Likelihoods {
		out.Likelihoods = append(out.Likelihoods, models.HazardLikelihood{
			Hazard:      l.Hazard,
			Parameter:   l.Parameter,
			Average:     l.Average,
			Threshold:   l.Threshold,
			Units:       l.Units,
			Description: l.Description,
			Score:       l.Score,
			Status:      string(l.Status),
		})
	}

	if run.LiveWeather != nil {
		out.LiveWeather = &models.LiveWeather{
			TemperatureC:          run.LiveWeather.TemperatureC,
			Conditions:            run.LiveWeather.ConditionsSummary,
			WindSpeedMS:           run.LiveWeather.WindSpeedMS,
			HumidityPercent:       run.LiveWeather.HumidityPercent,
			TimezoneOffsetSeconds: run.LiveWeather.TimezoneOffsetSeconds,
		}
	}

	if len(run.Forecast) > 0 {
		out.Forecast = make([]models.ForecastPoint, 0, len(run.Forecast))
		for _, p := range run.Forecast {
			out.Forecast = append(out.Forecast, models.ForecastPoint{
				Time:              models.Timestamp(p.Time),
				TemperatureC:      p.TemperatureC,
				Conditions:        p.ConditionsSummary,
				WindSpeedMS:       p.WindSpeedMS,
				HumidityPercent:   p.HumidityPercent,
				PrecipProbability: p.PrecipProbability,
			})
		}
	}

	out.Recommendations = make([]models.Recommendation, 0, len(run.Recommendations))
	for _, rec := range run.Recommendations {
		out.Recommendations = append(out.Recommendations, models.Recommendation{
			Severity: string(rec.Severity),
			Text:     rec.Text,
		})
	}

	return out
}
