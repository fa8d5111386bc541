package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/datatypes"

	"github.com/geovisor/geovisor/internal/geo"
	"github.com/geovisor/geovisor/internal/httperr"
	"github.com/geovisor/geovisor/models"
)

type createMeasurementRequest struct {
	Name            *string                `json:"name"`
	MeasurementType models.MeasurementType `json:"measurement_type"`
	Value           float64                `json:"value"`
	Unit            models.MeasurementUnit `json:"unit"`
	Geometry        json.RawMessage        `json:"geometry"`
	Data            json.RawMessage        `json:"data"`
	Notes           *string                `json:"notes"`
}

// createMeasurement validates the GeoJSON geometry, converts it to WKT and
// stores the measurement. Value and unit are persisted as supplied; the
// unit is not checked against the measurement type.
func (a *API) createMeasurement(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	projectID, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid project id"))
		return
	}
	project, ok := a.requireProject(w, r, user, projectID)
	if !ok {
		return
	}

	var req createMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("Invalid request body"))
		return
	}
	if !req.MeasurementType.Valid() {
		httperr.Write(w, httperr.Validation("Invalid measurement_type"))
		return
	}
	if !req.Unit.Valid() {
		httperr.Write(w, httperr.Validation("Invalid unit"))
		return
	}
	if len(req.Geometry) == 0 {
		httperr.Write(w, httperr.Validation("geometry is required"))
		return
	}
	geom, err := geo.ParseGeoJSON(req.Geometry)
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid geometry: "+err.Error()))
		return
	}

	measurement := &models.Measurement{
		ProjectID:       project.ID,
		Name:            req.Name,
		MeasurementType: req.MeasurementType,
		Geometry:        geo.ToWKT(geom),
		SRID:            geo.SRID,
		Value:           req.Value,
		Unit:            req.Unit,
		Notes:           req.Notes,
		CreatedBy:       &user.ID,
	}
	if len(req.Data) > 0 {
		measurement.Data = datatypes.JSON(req.Data)
	}
	if err := a.Measurements.Create(r.Context(), measurement); err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, measurement)
}

func (a *API) listMeasurements(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	projectID, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid project id"))
		return
	}
	project, ok := a.requireProject(w, r, user, projectID)
	if !ok {
		return
	}
	skip, limit := pagination(r)
	measurements, err := a.Measurements.ListByProject(r.Context(), project.ID, skip, limit)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if measurements == nil {
		measurements = []models.Measurement{}
	}
	respondJSON(w, http.StatusOK, measurements)
}

func (a *API) deleteMeasurement(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid measurement id"))
		return
	}
	measurement, err := a.Measurements.ByID(r.Context(), id)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if measurement == nil {
		httperr.Write(w, httperr.NotFound("Measurement not found"))
		return
	}
	if _, ok := a.requireProject(w, r, user, measurement.ProjectID); !ok {
		return
	}
	if err := a.Measurements.Delete(r.Context(), measurement); err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, measurement)
}
