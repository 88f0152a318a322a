package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
)

const customerSelect = `
		SELECT c.id, c.name, c.nip_nas, c.address, c.phone, c.email, c.pic_name, c.status, c.source,
		       c.created_by, c.created_at, c.updated_at, u.full_name AS creator_name
		FROM customers c
		LEFT JOIN users u ON u.id = c.created_by`

type customerRow struct {
	models.Customer
	CreatorName sql.NullString `db:"creator_name"`
}

func (row customerRow) toModel() models.Customer {
	c := row.Customer
	if row.CreatorName.Valid {
		c.Creator = &models.UserRef{ID: c.CreatedBy, FullName: row.CreatorName.String}
	}
	return c
}

// CustomerRepository handles customer data access
type CustomerRepository struct {
	db sqlx.ExtContext
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db sqlx.ExtContext) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var row customerRow
	if err := sqlx.GetContext(ctx, r.db, &row, customerSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, wrap("get customer", err)
	}

	c := row.toModel()
	return &c, nil
}

// ExistsByNipNas reports whether a customer already carries nipNas
func (r *CustomerRepository) ExistsByNipNas(ctx context.Context, nipNas string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM customers WHERE nip_nas = $1)`, nipNas)
	if err != nil {
		return false, wrap("check customer nip_nas", err)
	}
	return exists, nil
}

// List retrieves a page of customers visible within scope
func (r *CustomerRepository) List(ctx context.Context, filter models.CustomerFilter, scope policy.Scope) ([]models.Customer, int64, error) {
	var w where
	w.customerScope("c", scope)
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		w.add(`(c.name ILIKE ? ESCAPE '\' OR c.nip_nas ILIKE ? ESCAPE '\' OR c.pic_name ILIKE ? ESCAPE '\')`, pattern, pattern, pattern)
	}
	if filter.Status != "" {
		w.add("c.status = ?", filter.Status)
	}
	if filter.Source != "" {
		w.add("c.source = ?", filter.Source)
	}

	countQuery, countArgs := w.build(`SELECT COUNT(*) FROM customers c`, "")
	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, countArgs...); err != nil {
		return nil, 0, wrap("count customers", err)
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	page := filter.Page.Normalize()
	query, args := w.build(customerSelect,
		fmt.Sprintf(` ORDER BY c.created_at %s LIMIT ? OFFSET ?`, order),
		page.Limit, page.Offset())

	var rows []customerRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, wrap("list customers", err)
	}

	customers := make([]models.Customer, len(rows))
	for i, row := range rows {
		customers[i] = row.toModel()
	}
	return customers, total, nil
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, c models.Customer) (*models.Customer, error) {
	query := `
		INSERT INTO customers (name, nip_nas, address, phone, email, pic_name, status, source, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id uuid.UUID
	err := sqlx.GetContext(
		ctx,
		r.db,
		&id,
		query,
		c.Name,
		c.NipNas,
		c.Address,
		c.Phone,
		c.Email,
		c.PICName,
		c.Status,
		c.Source,
		c.CreatedBy,
	)
	if err != nil {
		return nil, wrap("create customer", err)
	}

	return r.GetByID(ctx, id)
}

// Update updates a customer's editable fields
func (r *CustomerRepository) Update(ctx context.Context, c models.Customer) (*models.Customer, error) {
	query := `
		UPDATE customers
		SET name = $1, nip_nas = $2, address = $3, phone = $4, email = $5, pic_name = $6, status = $7, updated_at = $8
		WHERE id = $9
	`

	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.NipNas, c.Address, c.Phone, c.Email, c.PICName, c.Status, time.Now(), c.ID)
	if err != nil {
		return nil, wrap("update customer", err)
	}
	if err := expectAffected("update customer", res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, c.ID)
}

// DeleteCascade removes a customer with its visit plans and their reports.
// Callers run it inside a transaction.
func (r *CustomerRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (models.CustomerDeleteResult, error) {
	var result models.CustomerDeleteResult

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM visit_reports
		WHERE visit_plan_id IN (SELECT id FROM visit_plans WHERE customer_id = $1)`, id)
	if err != nil {
		return result, wrap("delete customer visit reports", err)
	}
	if result.DeletedVisitReports, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("failed to get rows affected: %w", err)
	}

	res, err = r.db.ExecContext(ctx, `DELETE FROM visit_plans WHERE customer_id = $1`, id)
	if err != nil {
		return result, wrap("delete customer visit plans", err)
	}
	if result.DeletedVisitPlans, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("failed to get rows affected: %w", err)
	}

	res, err = r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return result, wrap("delete customer", err)
	}
	if err := expectAffected("delete customer", res); err != nil {
		return result, err
	}

	return result, nil
}
