package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
)

const userColumns = `u.id, u.username, u.password_hash, u.full_name, u.email, u.role, u.manager_id, u.created_at, u.updated_at`

// userRow carries the joined manager name alongside the user
type userRow struct {
	models.User
	ManagerName sql.NullString `db:"manager_name"`
}

func (row userRow) toModel() models.User {
	u := row.User
	if u.ManagerID != nil && row.ManagerName.Valid {
		u.Manager = &models.UserRef{ID: *u.ManagerID, FullName: row.ManagerName.String}
	}
	return u
}

const userSelect = `
		SELECT ` + userColumns + `, m.full_name AS manager_name
		FROM users u
		LEFT JOIN users m ON m.id = u.manager_id`

// UserRepository handles user data access
type UserRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository creates a new user repository
func NewUserRepository(db sqlx.ExtContext) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.db, &row, userSelect+` WHERE u.id = $1`, id)
	if err != nil {
		return nil, wrap("get user", err)
	}

	u := row.toModel()
	return &u, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.db, &row, userSelect+` WHERE u.username = $1`, username)
	if err != nil {
		return nil, wrap("get user by username", err)
	}

	u := row.toModel()
	return &u, nil
}

// List retrieves the users inside scope
func (r *UserRepository) List(ctx context.Context, scope policy.Scope) ([]models.User, error) {
	var w where
	w.scope("u.id", scope)
	query, args := w.build(userSelect, ` ORDER BY u.full_name ASC`)

	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, wrap("list users", err)
	}

	return toUsers(rows), nil
}

// ListSubordinates retrieves the direct reports of a manager
func (r *UserRepository) ListSubordinates(ctx context.Context, managerID uuid.UUID) ([]models.User, error) {
	var rows []userRow
	err := sqlx.SelectContext(ctx, r.db, &rows, userSelect+` WHERE u.manager_id = $1 ORDER BY u.full_name ASC`, managerID)
	if err != nil {
		return nil, wrap("list subordinates", err)
	}

	return toUsers(rows), nil
}

// SubordinateIDs returns the ids of a manager's direct reports
func (r *UserRepository) SubordinateIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, r.db, &ids, `SELECT id FROM users WHERE manager_id = $1`, managerID)
	if err != nil {
		return nil, wrap("list subordinate ids", err)
	}

	return ids, nil
}

// CountByRole counts users holding role
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, manager_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id uuid.UUID
	err := sqlx.GetContext(
		ctx,
		r.db,
		&id,
		query,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.Email,
		user.Role,
		user.ManagerID,
	)
	if err != nil {
		return nil, wrap("create user", err)
	}

	return r.GetByID(ctx, id)
}

// Update updates a user's profile, role and manager
func (r *UserRepository) Update(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET full_name = $1, email = $2, role = $3, manager_id = $4, updated_at = $5
		WHERE id = $6
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		user.FullName,
		user.Email,
		user.Role,
		user.ManagerID,
		time.Now(),
		user.ID,
	)
	if err != nil {
		return nil, wrap("update user", err)
	}
	if err := expectAffected("update user", res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, user.ID)
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return wrap("update user password", err)
	}

	return expectAffected("update user password", res)
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrap("delete user", err)
	}

	return expectAffected("delete user", res)
}

func toUsers(rows []userRow) []models.User {
	users := make([]models.User, len(rows))
	for i, row := range rows {
		users[i] = row.toModel()
	}
	return users
}
