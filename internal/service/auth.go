package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig holds configuration for JWT token generation
type JWTConfig struct {
	Secret    string
	ExpiresIn int // hours
}

// AuthService handles authentication, identity resolution and account management
type AuthService struct {
	store     Store
	jwtConfig JWTConfig
	log       *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(store Store, jwtConfig JWTConfig, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		store:     store,
		jwtConfig: jwtConfig,
		log:       log,
		now:       time.Now,
	}
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, api.Unauthenticated("Invalid credentials")
		}
		return "", nil, storeErr(err, "User", "log in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, api.Unauthenticated("Invalid credentials")
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, api.Internal("Failed to generate token", err)
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return token, user, nil
}

// generateToken generates a JWT token for a user
func (s *AuthService) generateToken(userID uuid.UUID, role models.UserRole) (string, error) {
	now := s.now()
	expirationTime := now.Add(time.Duration(s.jwtConfig.ExpiresIn) * time.Hour)

	claims := &Claims{
		UserID: userID.String(),
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

// ValidateToken validates a JWT token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, api.Wrap(api.KindAuthentication, "Invalid or expired token", err)
	}
	if !token.Valid {
		return nil, api.Unauthenticated("Invalid or expired token")
	}

	return claims, nil
}

// ResolvePrincipal loads the caller's current role and manager from the store.
// The role in the token is never trusted. A deleted user is forbidden everything.
func (s *AuthService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (policy.Principal, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return policy.Principal{}, api.Forbidden("User account no longer exists")
		}
		return policy.Principal{}, storeErr(err, "User", "resolve user")
	}
	return policy.PrincipalFromUser(user), nil
}

// Authenticate validates a bearer token and resolves its principal
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (policy.Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return policy.Principal{}, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return policy.Principal{}, api.Unauthenticated("Invalid user ID in token")
	}

	return s.ResolvePrincipal(ctx, userID)
}

// Me returns the caller's own account
func (s *AuthService) Me(ctx context.Context, p policy.Principal) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, p.ID)
	return user, storeErr(err, "User", "get user")
}

// RegisterUser creates a user account
func (s *AuthService) RegisterUser(ctx context.Context, req models.UserRequest) (*models.User, error) {
	if err := s.checkManager(ctx, req.Role, req.ManagerID, uuid.Nil); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, api.Internal("Failed to hash password", err)
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         req.Role,
		ManagerID:    req.ManagerID,
	}
	if user.Role == models.RoleAdmin {
		user.ManagerID = nil
	}

	created, err := s.store.Users().Create(ctx, user)
	if err != nil {
		return nil, storeErr(err, "User", "create user")
	}

	s.log.Info("user registered", zap.String("user_id", created.ID.String()), zap.String("role", string(created.Role)))
	return created, nil
}

// checkManager validates a manager assignment for a user with role
func (s *AuthService) checkManager(ctx context.Context, role models.UserRole, managerID *uuid.UUID, self uuid.UUID) error {
	if managerID == nil || role == models.RoleAdmin {
		return nil
	}
	if *managerID == self {
		return api.Validation("A user cannot be their own manager")
	}

	manager, err := s.store.Users().GetByID(ctx, *managerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.Validation("Manager not found")
		}
		return storeErr(err, "Manager", "look up manager")
	}
	if !manager.Role.CanManage() {
		return api.Validation("Manager must have role MANAGER or ADMIN")
	}
	return nil
}

// ChangePassword changes the caller's password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, p policy.Principal, req models.PasswordChangeRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return api.Validation("New password and confirm password do not match")
	}

	user, err := s.store.Users().GetByID(ctx, p.ID)
	if err != nil {
		return storeErr(err, "User", "change password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return api.Validation("Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return api.Internal("Failed to hash password", err)
	}

	if err := s.store.Users().UpdatePassword(ctx, p.ID, string(hashedPassword)); err != nil {
		return storeErr(err, "User", "update password")
	}
	return nil
}

// UpdateProfile lets a user change their own name and email
func (s *AuthService) UpdateProfile(ctx context.Context, p policy.Principal, req models.ProfileUpdateRequest) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, p.ID)
	if err != nil {
		return nil, storeErr(err, "User", "update profile")
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Email != "" {
		user.Email = req.Email
	}

	updated, err := s.store.Users().Update(ctx, *user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, api.Wrap(api.KindConflict, "Email already used by another user", err)
		}
		return nil, storeErr(err, "User", "update profile")
	}
	return updated, nil
}

// EnsureAdmin creates an admin account when none exists yet
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, email string) error {
	n, err := s.store.Users().CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	if email == "" {
		email = username + "@localhost"
	}
	_, err = s.RegisterUser(ctx, models.UserRequest{
		Username: username,
		Password: password,
		FullName: "Administrator",
		Email:    email,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.log.Info("bootstrap admin created", zap.String("username", username))
	return nil
}
