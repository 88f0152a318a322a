package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleUser    UserRole = "USER"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// CanManage reports whether a user with this role may be assigned as someone's manager.
func (r UserRole) CanManage() bool {
	return r == RoleManager || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"` // Never expose in JSON
	FullName     string     `db:"full_name" json:"namaLengkap"`
	Email        string     `db:"email" json:"email"`
	Role         UserRole   `db:"role" json:"role"`
	ManagerID    *uuid.UUID `db:"manager_id" json:"managerId"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	Manager *UserRef `db:"-" json:"manager,omitempty"`
}

// UserRef is the short form of a user embedded in other records.
type UserRef struct {
	ID       uuid.UUID `db:"id" json:"id"`
	FullName string    `db:"full_name" json:"namaLengkap"`
}

// UserRequest is used for user creation requests
type UserRequest struct {
	Username  string     `json:"username" validate:"required,min=3,max=50"`
	Password  string     `json:"password" validate:"required,min=6"`
	FullName  string     `json:"namaLengkap" validate:"required,min=2,max=100"`
	Email     string     `json:"email" validate:"required,email"`
	Role      UserRole   `json:"role" validate:"required,oneof=ADMIN MANAGER USER"`
	ManagerID *uuid.UUID `json:"managerId"`
}

// UserUpdateRequest is used by admins to edit a user, including role and manager reassignment.
// Nil fields are left unchanged; ClearManager removes the current manager.
type UserUpdateRequest struct {
	FullName     *string    `json:"namaLengkap" validate:"omitempty,min=2,max=100"`
	Email        *string    `json:"email" validate:"omitempty,email"`
	Role         *UserRole  `json:"role" validate:"omitempty,oneof=ADMIN MANAGER USER"`
	ManagerID    *uuid.UUID `json:"managerId"`
	ClearManager bool       `json:"clearManager"`
}

// ProfileUpdateRequest is used by a user to edit their own profile fields
type ProfileUpdateRequest struct {
	FullName string `json:"namaLengkap" validate:"omitempty,min=2,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// PasswordChangeRequest is used by a user to change their own password
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
