package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrInUse    = errors.New("record is still referenced")
)

// Postgres error codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// ConstraintError is a unique or foreign key violation
type ConstraintError struct {
	Constraint string
	kind       error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s)", e.kind, e.Constraint)
}

func (e *ConstraintError) Is(target error) bool {
	return target == e.kind
}

// wrap maps driver errors onto the repository sentinels and adds op context
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("failed to %s: %w", op, &ConstraintError{Constraint: pqErr.Constraint, kind: ErrConflict})
		case codeForeignKeyViolation:
			return fmt.Errorf("failed to %s: %w", op, &ConstraintError{Constraint: pqErr.Constraint, kind: ErrInUse})
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// NewConflict builds the error returned for a unique violation on constraint
func NewConflict(constraint string) error {
	return &ConstraintError{Constraint: constraint, kind: ErrConflict}
}

// ConstraintOf returns the violated constraint name, if any
func ConstraintOf(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// expectAffected turns a zero-row write into ErrNotFound
func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return nil
}

// Unique constraint names from the schema
const (
	ConstraintUsername     = "users_username_key"
	ConstraintEmail        = "users_email_key"
	ConstraintNipNas       = "customers_nip_nas_key"
	ConstraintReportOfPlan = "visit_reports_visit_plan_id_key"
)
