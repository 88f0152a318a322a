package handler

import (
	"net/http"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// UserHandler handles user-related requests
type UserHandler struct {
	users *service.UserService
	rs    *api.Responder
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, rs *api.Responder) *UserHandler {
	return &UserHandler{users: users, rs: rs}
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(r.Context(), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, users)
}

// Subordinates handles GET /users/subordinates
func (h *UserHandler) Subordinates(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	users, err := h.users.Subordinates(r.Context(), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, users)
}

// Get handles GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "user")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	user, err := h.users.GetUser(r.Context(), p, id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, user)
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	h.rs.Created(w, "User created successfully", user)
}

// Update handles PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "user")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	var req models.UserUpdateRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), p, id, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{Success: true, Message: "User updated successfully", Data: user})
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "user")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	if err := h.users.DeleteUser(r.Context(), p, id); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Message(w, "User deleted successfully")
}
