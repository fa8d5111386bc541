package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/geovisor/geovisor/internal/auth"
	"github.com/geovisor/geovisor/internal/httperr"
	"github.com/geovisor/geovisor/models"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// serverError logs the underlying failure and sends a generic 500.
func (a *API) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	httperr.Write(w, httperr.Internal("Internal server error"))
}

// currentUser returns the authenticated user placed in the context by the
// auth middleware.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized("Not authenticated"))
		return nil, false
	}
	return user, true
}

// requireProject resolves a project and enforces the ownership predicate.
// On failure the error response has already been written.
func (a *API) requireProject(w http.ResponseWriter, r *http.Request, user *models.User, id uint) (*models.Project, bool) {
	project, err := a.Projects.ByID(r.Context(), id)
	if err != nil {
		a.serverError(w, r, err)
		return nil, false
	}
	if project == nil {
		httperr.Write(w, httperr.NotFound("Project not found"))
		return nil, false
	}
	if !user.CanAccess(project.OwnerID) {
		httperr.Write(w, httperr.Forbidden())
		return nil, false
	}
	return project, true
}

func urlID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// pagination reads skip/limit query parameters with the API defaults.
func pagination(r *http.Request) (skip, limit int) {
	skip = queryInt(r, "skip", 0)
	limit = queryInt(r, "limit", 100)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return skip, limit
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
