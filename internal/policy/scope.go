package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
)

// SubordinateLister returns the ids of users whose manager is managerID
type SubordinateLister interface {
	SubordinateIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
}

// Scope is the set of owner ids a principal may see. All means unrestricted.
type Scope struct {
	All      bool
	OwnerIDs []uuid.UUID
}

// ScopeFor computes the visibility scope of a principal.
// Managers see their direct reports only; there is no transitive descent.
func ScopeFor(ctx context.Context, p Principal, subs SubordinateLister) (Scope, error) {
	switch p.Role {
	case models.RoleAdmin:
		return Scope{All: true}, nil
	case models.RoleManager:
		ids, err := subs.SubordinateIDs(ctx, p.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("failed to list subordinates: %w", err)
		}
		owners := make([]uuid.UUID, 0, len(ids)+1)
		owners = append(owners, p.ID)
		for _, id := range ids {
			if id != p.ID {
				owners = append(owners, id)
			}
		}
		return Scope{OwnerIDs: owners}, nil
	case models.RoleUser:
		return Scope{OwnerIDs: []uuid.UUID{p.ID}}, nil
	}
	return Scope{}, ErrUnknownRole
}

// Allows reports whether records owned by ownerID are visible
func (s Scope) Allows(ownerID uuid.UUID) bool {
	if s.All {
		return true
	}
	for _, id := range s.OwnerIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}

// WithUserOverride narrows the scope to exactly one user. Admins may name
// anyone; other roles only an id already inside their scope.
func (s Scope) WithUserOverride(userID uuid.UUID) (Scope, error) {
	if !s.All && !s.Allows(userID) {
		return Scope{}, ErrOutOfScope
	}
	return Scope{OwnerIDs: []uuid.UUID{userID}}, nil
}

// Empty reports whether the scope can match nothing
func (s Scope) Empty() bool {
	return !s.All && len(s.OwnerIDs) == 0
}
