package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"go.uber.org/zap"
)

// UserService handles user administration
type UserService struct {
	store Store
	auth  *AuthService
	log   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store Store, auth *AuthService, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{store: store, auth: auth, log: log}
}

// ListUsers lists the users the caller manages: everyone for admins,
// direct reports for managers, and only themselves for users
func (s *UserService) ListUsers(ctx context.Context, p policy.Principal) ([]models.User, error) {
	switch p.Role {
	case models.RoleAdmin:
		users, err := s.store.Users().List(ctx, policy.Scope{All: true})
		return users, storeErr(err, "User", "list users")
	case models.RoleManager:
		return s.Subordinates(ctx, p)
	}
	users, err := s.store.Users().List(ctx, policy.Scope{OwnerIDs: []uuid.UUID{p.ID}})
	return users, storeErr(err, "User", "list users")
}

// Subordinates lists the caller's direct reports
func (s *UserService) Subordinates(ctx context.Context, p policy.Principal) ([]models.User, error) {
	users, err := s.store.Users().ListSubordinates(ctx, p.ID)
	return users, storeErr(err, "User", "list subordinates")
}

// GetUser returns a user inside the caller's scope
func (s *UserService) GetUser(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.User, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User", "get user")
	}
	if !scope.Allows(user.ID) {
		return nil, policyErr(policy.ErrOutOfScope)
	}
	return user, nil
}

// CreateUser creates a user. Admin only.
func (s *UserService) CreateUser(ctx context.Context, p policy.Principal, req models.UserRequest) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, policyErr(policy.ErrAdminOnly)
	}
	return s.auth.RegisterUser(ctx, req)
}

// UpdateUser edits a user's profile, role or manager. Admin only.
func (s *UserService) UpdateUser(ctx context.Context, p policy.Principal, id uuid.UUID, req models.UserUpdateRequest) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, policyErr(policy.ErrAdminOnly)
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User", "update user")
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	switch {
	case req.ClearManager:
		user.ManagerID = nil
	case req.ManagerID != nil:
		user.ManagerID = req.ManagerID
	}
	if user.Role == models.RoleAdmin {
		user.ManagerID = nil
	}

	if err := s.auth.checkManager(ctx, user.Role, user.ManagerID, user.ID); err != nil {
		return nil, err
	}

	var updated *models.User
	err = s.store.InTx(ctx, func(tx Store) error {
		if !user.Role.CanManage() {
			reports, err := tx.Users().SubordinateIDs(ctx, user.ID)
			if err != nil {
				return err
			}
			if len(reports) > 0 {
				return api.Validation("User still manages %d users; reassign them before changing the role to %s", len(reports), user.Role)
			}
		}

		var err error
		updated, err = tx.Users().Update(ctx, *user)
		return err
	})
	if err != nil {
		return nil, storeErr(err, "User", "update user")
	}

	s.log.Info("user updated",
		zap.String("user_id", updated.ID.String()),
		zap.String("role", string(updated.Role)),
		zap.String("by", p.ID.String()),
	)
	return updated, nil
}

// DeleteUser removes a user. Admin only, and never the caller's own account.
func (s *UserService) DeleteUser(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return policyErr(policy.ErrAdminOnly)
	}
	if id == p.ID {
		return api.Validation("Cannot delete your own account")
	}

	if err := s.store.Users().Delete(ctx, id); err != nil {
		return storeErr(err, "User", "delete user")
	}

	s.log.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", p.ID.String()))
	return nil
}
