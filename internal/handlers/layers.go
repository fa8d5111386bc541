package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/geovisor/geovisor/internal/httperr"
	"github.com/geovisor/geovisor/models"
)

// uploadLayer accepts a multipart upload and creates a layer record. The
// file is written to storage under a collision-proof name before the record
// exists; if the record insert fails, the stored file is removed again.
func (a *API) uploadLayer(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, a.Cfg.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			httperr.Write(w, httperr.Validation("file is required"))
		} else {
			httperr.Write(w, &httperr.Error{Status: http.StatusRequestEntityTooLarge, Detail: "File too large"})
		}
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		httperr.Write(w, httperr.Validation("name is required"))
		return
	}
	layerType := models.LayerType(r.FormValue("layer_type"))
	if !layerType.Valid() {
		httperr.Write(w, httperr.Validation("Invalid layer_type"))
		return
	}
	format := models.LayerFormat(r.FormValue("format"))
	if !format.Valid() {
		httperr.Write(w, httperr.Validation("Invalid format"))
		return
	}
	var description *string
	if d := r.FormValue("description"); d != "" {
		description = &d
	}

	storageName := uuid.New().String() + filepath.Ext(header.Filename)
	path, size, err := a.Store.Save(r.Context(), storageName, file)
	if err != nil {
		a.Log.WithError(err).Error("could not save uploaded file")
		httperr.Write(w, httperr.Internal("Could not save file"))
		return
	}

	layer := &models.Layer{
		ProjectID:        project.ID,
		Name:             name,
		Description:      description,
		LayerType:        layerType,
		Format:           format,
		FilePath:         path,
		FileSize:         size,
		OriginalFilename: header.Filename,
		Metadata:         datatypes.JSON([]byte("{}")),
	}
	if err := a.Layers.Create(r.Context(), layer); err != nil {
		// No orphan files: undo the write when the record cannot be created.
		if rerr := a.Store.Remove(r.Context(), path); rerr != nil {
			a.Log.WithError(rerr).WithField("path", path).Warn("could not remove orphaned file")
		}
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, layer)
}

func (a *API) listLayers(w http.ResponseWriter, r *http.Request) {
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
	layers, err := a.Layers.ListByProject(r.Context(), project.ID, skip, limit)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if layers == nil {
		layers = []models.Layer{}
	}
	respondJSON(w, http.StatusOK, layers)
}

// deleteLayer removes the record and then the physical file best-effort; a
// failed file removal is logged, never surfaced.
func (a *API) deleteLayer(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid layer id"))
		return
	}
	layer, err := a.Layers.ByID(r.Context(), id)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if layer == nil {
		httperr.Write(w, httperr.NotFound("Layer not found"))
		return
	}
	if _, ok := a.requireProject(w, r, user, layer.ProjectID); !ok {
		return
	}

	if err := a.Layers.Delete(r.Context(), layer); err != nil {
		a.serverError(w, r, err)
		return
	}
	if layer.FilePath != "" {
		if err := a.Store.Remove(r.Context(), layer.FilePath); err != nil {
			a.Log.WithError(err).WithField("path", layer.FilePath).Warn("could not remove layer file")
		}
	}
	respondJSON(w, http.StatusOK, layer)
}
