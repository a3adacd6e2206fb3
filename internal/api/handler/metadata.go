package handler

import (
	"net/http"

	"github.com/climacast/climacast/internal/api/models"
	"github.com/climacast/climacast/internal/api/response"
	"github.com/climacast/climacast/internal/hazard"
	"github.com/climacast/climacast/internal/recommend"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// ListHazards handles GET /v1/metadata/hazards - the hazard definitions used
// for scoring, in scoring order.
func (h *MetadataHandler) ListHazards(w http.ResponseWriter, r *http.Request) {
	thresholds := hazard.Thresholds()

	items := make([]models.HazardThreshold, 0, len(thresholds))
	for _, t := range thresholds {
		items = append(items, models.HazardThreshold{
			Name:        t.Name,
			Parameter:   string(t.Parameter),
			Threshold:   t.Value,
			Units:       t.Units,
			Description: t.Description,
			Direction:   string(t.Direction),
		})
	}

	response.JSON(w, r, http.StatusOK, items)
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Statuses: []string{
			string(hazard.StatusHighLikelihood),
			string(hazard.StatusLowLikelihood),
			string(hazard.StatusDataUnavailable),
		},
		Severities: []string{
			string(recommend.SeverityWarning),
			string(recommend.SeverityCaution),
			string(recommend.SeveritySuccess),
		},
		Directions: []string{
			string(hazard.DirectionAbove),
			string(hazard.DirectionBelow),
		},
	}
	response.JSON(w, r, http.StatusOK, enums)
}
