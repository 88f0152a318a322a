// Package policy holds the authorization rules shared by every service:
// who a caller is, which owners' records it can see, when a visit plan may
// still be edited, and how reports drive plan status.
package policy

import (
	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
)

// Principal is the resolved identity behind a request
type Principal struct {
	ID        uuid.UUID
	Role      models.UserRole
	ManagerID *uuid.UUID
}

// PrincipalFromUser builds a principal from a stored user
func PrincipalFromUser(u *models.User) Principal {
	return Principal{ID: u.ID, Role: u.Role, ManagerID: u.ManagerID}
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func (p Principal) IsManager() bool {
	return p.Role == models.RoleManager
}

// Owns reports whether the principal is the owner of a record
func (p Principal) Owns(ownerID uuid.UUID) bool {
	return p.ID == ownerID
}
