package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/geovisor/geovisor/internal/httperr"
	"github.com/geovisor/geovisor/models"
)

// listProjects returns the caller's projects. Superusers see all projects.
func (a *API) listProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	skip, limit := pagination(r)

	var ownerID *uint
	if !user.IsSuperuser {
		ownerID = &user.ID
	}
	projects, err := a.Projects.List(r.Context(), ownerID, skip, limit)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respondJSON(w, http.StatusOK, projects)
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// createProject creates a project owned by the caller regardless of any
// caller-supplied owner value.
func (a *API) createProject(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("Invalid request body"))
		return
	}
	if req.Name == "" {
		httperr.Write(w, httperr.Validation("name is required"))
		return
	}
	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (a *API) getProject(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid project id"))
		return
	}
	project, ok := a.requireProject(w, r, user, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// updateProject applies partial update semantics: only fields present in
// the body change; a field explicitly set to null is cleared. Name cannot
// be cleared.
func (a *API) updateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid project id"))
		return
	}
	project, ok := a.requireProject(w, r, user, id)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httperr.Write(w, httperr.Validation("Invalid request body"))
		return
	}

	if raw, present := fields["name"]; present {
		var name *string
		if err := json.Unmarshal(raw, &name); err != nil {
			httperr.Write(w, httperr.Validation("Invalid name"))
			return
		}
		if name == nil || *name == "" {
			httperr.Write(w, httperr.Validation("name cannot be empty"))
			return
		}
		project.Name = *name
	}
	if raw, present := fields["description"]; present {
		var description *string
		if err := json.Unmarshal(raw, &description); err != nil {
			httperr.Write(w, httperr.Validation("Invalid description"))
			return
		}
		project.Description = description
	}

	if err := a.Projects.Save(r.Context(), project); err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// deleteProject removes the project and everything under it. Layer files
// are removed best-effort after the rows are gone.
func (a *API) deleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		httperr.Write(w, httperr.Validation("Invalid project id"))
		return
	}
	project, ok := a.requireProject(w, r, user, id)
	if !ok {
		return
	}

	layers, err := a.Layers.AllByProject(r.Context(), project.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if err := a.Projects.Delete(r.Context(), project); err != nil {
		a.serverError(w, r, err)
		return
	}
	for _, layer := range layers {
		if err := a.Store.Remove(r.Context(), layer.FilePath); err != nil {
			a.Log.WithError(err).WithField("path", layer.FilePath).Warn("could not remove layer file")
		}
	}
	respondJSON(w, http.StatusOK, project)
}
