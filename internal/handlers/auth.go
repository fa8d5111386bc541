package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/geovisor/geovisor/internal/auth"
	"github.com/geovisor/geovisor/internal/httperr"
	"github.com/geovisor/geovisor/models"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// login exchanges form-encoded credentials for a bearer token. Unknown
// usernames and wrong passwords share one message so the response does not
// reveal whether an account exists.
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperr.Write(w, httperr.Validation("Invalid form data"))
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		httperr.Write(w, httperr.Validation("username and password are required"))
		return
	}

	user, err := a.Users.ByUsername(r.Context(), username)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if user == nil || !auth.VerifyPassword(password, user.HashedPassword) {
		httperr.Write(w, httperr.Auth("Incorrect username or password"))
		return
	}
	if !user.IsActive {
		httperr.Write(w, httperr.Auth("Inactive user"))
		return
	}

	token, err := auth.CreateAccessToken(a.Cfg.SecretKey, user.ID, a.Cfg.AccessTokenTTL)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type registerRequest struct {
	Username string           `json:"username"`
	Email    *string          `json:"email"`
	Password string           `json:"password"`
	FullName string           `json:"full_name"`
	Role     *models.UserRole `json:"role"`
}

// register creates an active, non-superuser account. Username and, when
// supplied, email must be unique.
func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.Validation("Invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		httperr.Write(w, httperr.Validation("username and password are required"))
		return
	}
	if req.Email != nil && *req.Email == "" {
		req.Email = nil
	}
	role := models.RoleUser
	if req.Role != nil {
		if !req.Role.Valid() {
			httperr.Write(w, httperr.Validation("Invalid role"))
			return
		}
		role = *req.Role
	}

	existing, err := a.Users.ByUsername(r.Context(), req.Username)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if existing != nil {
		httperr.Write(w, httperr.Conflict("The user with this username already exists"))
		return
	}
	if req.Email != nil {
		taken, err := a.Users.ByEmail(r.Context(), *req.Email)
		if err != nil {
			a.serverError(w, r, err)
			return
		}
		if taken != nil {
			httperr.Write(w, httperr.Conflict("The user with this email already exists"))
			return
		}
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
		FullName:       req.FullName,
		Role:           role,
		IsActive:       true,
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
