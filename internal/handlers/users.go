package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/geovisor/geovisor/internal/auth"
	"github.com/geovisor/geovisor/internal/httperr"
)

func (a *API) getMe(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// updateMe applies a partial self-service update. Fields present in the
// body are applied; null clears the email; empty strings are rejected
// rather than silently skipped.
func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httperr.Write(w, httperr.Validation("Invalid request body"))
		return
	}

	if raw, present := fields["password"]; present {
		var password *string
		if err := json.Unmarshal(raw, &password); err != nil {
			httperr.Write(w, httperr.Validation("Invalid password"))
			return
		}
		if password == nil || *password == "" {
			httperr.Write(w, httperr.Validation("password cannot be empty"))
			return
		}
		hashed, err := auth.HashPassword(*password)
		if err != nil {
			a.serverError(w, r, err)
			return
		}
		user.HashedPassword = hashed
	}

	if raw, present := fields["full_name"]; present {
		var fullName *string
		if err := json.Unmarshal(raw, &fullName); err != nil {
			httperr.Write(w, httperr.Validation("Invalid full_name"))
			return
		}
		if fullName == nil {
			user.FullName = ""
		} else {
			user.FullName = *fullName
		}
	}

	if raw, present := fields["email"]; present {
		var email *string
		if err := json.Unmarshal(raw, &email); err != nil {
			httperr.Write(w, httperr.Validation("Invalid email"))
			return
		}
		switch {
		case email == nil:
			user.Email = nil
		case *email == "":
			httperr.Write(w, httperr.Validation("email cannot be empty"))
			return
		default:
			taken, err := a.Users.ByEmail(r.Context(), *email)
			if err != nil {
				a.serverError(w, r, err)
				return
			}
			if taken != nil && taken.ID != user.ID {
				httperr.Write(w, httperr.Conflict("The user with this email already exists in the system"))
				return
			}
			user.Email = email
		}
	}

	if err := a.Users.Save(r.Context(), user); err != nil {
		a.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
