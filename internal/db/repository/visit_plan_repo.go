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

const visitPlanSelect = `
		SELECT p.id, p.user_id, p.customer_id, p.visit_date, p.purpose, p.discussion_program,
		       p.revenue_target, p.status, p.category, p.is_editable, p.created_at, p.updated_at,
		       u.full_name AS owner_name, c.name AS customer_name
		FROM visit_plans p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN customers c ON c.id = p.customer_id`

type visitPlanRow struct {
	models.VisitPlan
	OwnerName    sql.NullString `db:"owner_name"`
	CustomerName sql.NullString `db:"customer_name"`
}

func (row visitPlanRow) toModel() models.VisitPlan {
	p := row.VisitPlan
	if row.OwnerName.Valid {
		p.User = &models.UserRef{ID: p.UserID, FullName: row.OwnerName.String}
	}
	if row.CustomerName.Valid {
		p.Customer = &models.CustomerRef{ID: p.CustomerID, Name: row.CustomerName.String}
	}
	return p
}

// VisitPlanRepository handles visit plan data access
type VisitPlanRepository struct {
	db sqlx.ExtContext
}

// NewVisitPlanRepository creates a new visit plan repository
func NewVisitPlanRepository(db sqlx.ExtContext) *VisitPlanRepository {
	return &VisitPlanRepository{db: db}
}

// GetByID retrieves a visit plan by ID
func (r *VisitPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error) {
	return r.get(ctx, visitPlanSelect+` WHERE p.id = $1`, id)
}

// GetByIDForUpdate retrieves a visit plan and locks its row until the transaction ends
func (r *VisitPlanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error) {
	return r.get(ctx, visitPlanSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (r *VisitPlanRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.VisitPlan, error) {
	var row visitPlanRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, wrap("get visit plan", err)
	}

	p := row.toModel()
	return &p, nil
}

// List retrieves a page of visit plans owned within scope, latest visit date first
func (r *VisitPlanRepository) List(ctx context.Context, filter models.VisitPlanFilter, scope policy.Scope) ([]models.VisitPlan, int64, error) {
	var w where
	w.scope("p.user_id", scope)
	if filter.Status != "" {
		w.add("p.status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		w.add("p.customer_id = ?", *filter.CustomerID)
	}
	if filter.Category != "" {
		w.add("p.category = ?", filter.Category)
	}
	if filter.StartDate != nil {
		w.add("p.visit_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("p.visit_date <= ?", *filter.EndDate)
	}

	countQuery, countArgs := w.build(`SELECT COUNT(*) FROM visit_plans p`, "")
	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, countArgs...); err != nil {
		return nil, 0, wrap("count visit plans", err)
	}

	order := ` ORDER BY p.visit_date DESC, p.created_at DESC`
	if filter.RecentFirst {
		order = ` ORDER BY p.created_at DESC`
	}
	page := filter.Page.Normalize()
	query, args := w.build(visitPlanSelect, order+` LIMIT ? OFFSET ?`, page.Limit, page.Offset())

	var rows []visitPlanRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, wrap("list visit plans", err)
	}

	plans := make([]models.VisitPlan, len(rows))
	for i, row := range rows {
		plans[i] = row.toModel()
	}
	return plans, total, nil
}

// Create creates a new visit plan
func (r *VisitPlanRepository) Create(ctx context.Context, p models.VisitPlan) (*models.VisitPlan, error) {
	query := `
		INSERT INTO visit_plans
		  (user_id, customer_id, visit_date, purpose, discussion_program, revenue_target, status, category, is_editable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id uuid.UUID
	err := sqlx.GetContext(
		ctx,
		r.db,
		&id,
		query,
		p.UserID,
		p.CustomerID,
		p.VisitDate,
		p.Purpose,
		p.DiscussionProgram,
		p.RevenueTarget,
		p.Status,
		p.Category,
		p.IsEditable,
	)
	if err != nil {
		return nil, wrap("create visit plan", err)
	}

	return r.GetByID(ctx, id)
}

// Update writes every mutable column of a visit plan
func (r *VisitPlanRepository) Update(ctx context.Context, p models.VisitPlan) (*models.VisitPlan, error) {
	query := `
		UPDATE visit_plans
		SET customer_id = $1, visit_date = $2, purpose = $3, discussion_program = $4,
		    revenue_target = $5, status = $6, category = $7, is_editable = $8, updated_at = $9
		WHERE id = $10
	`

	res, err := r.db.ExecContext(ctx, query,
		p.CustomerID, p.VisitDate, p.Purpose, p.DiscussionProgram,
		p.RevenueTarget, p.Status, p.Category, p.IsEditable, time.Now(), p.ID)
	if err != nil {
		return nil, wrap("update visit plan", err)
	}
	if err := expectAffected("update visit plan", res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, p.ID)
}

// UpdateStatus sets a visit plan's status
func (r *VisitPlanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.VisitStatus) error {
	query := `
		UPDATE visit_plans
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return wrap("update visit plan status", err)
	}

	return expectAffected("update visit plan status", res)
}

// Delete deletes a visit plan
func (r *VisitPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visit_plans WHERE id = $1`, id)
	if err != nil {
		return wrap("delete visit plan", err)
	}

	return expectAffected("delete visit plan", res)
}
