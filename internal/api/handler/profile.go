package handler

import (
	"net/http"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// ProfileHandler lets callers edit their own account
type ProfileHandler struct {
	auth *service.AuthService
	rs   *api.Responder
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(auth *service.AuthService, rs *api.Responder) *ProfileHandler {
	return &ProfileHandler{auth: auth, rs: rs}
}

// Update handles PUT /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	var req models.ProfileUpdateRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), p, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{Success: true, Message: "Profile updated successfully", Data: user})
}

// ChangePassword handles PUT /profile/password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	var req models.PasswordChangeRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), p, req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Message(w, "Password changed successfully")
}
