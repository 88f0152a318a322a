package handler

import (
	"net/http"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// AuthHandler handles login and the caller's own account
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
	rs    *api.Responder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, users *service.UserService, rs *api.Responder) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, rs: rs}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Message: "Login successful",
		Data:    loginResponse{Token: token, User: user},
	})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	var req models.UserRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), p, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Created(w, "User registered successfully", user)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	user, err := h.auth.Me(r.Context(), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, user)
}
