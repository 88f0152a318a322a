package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/shopspring/decimal"
)

const visitReportSelect = `
		SELECT r.id, r.visit_plan_id, r.status_realisasi, r.hasil_visit, r.category, r.revenue_actual,
		       r.pic_follow_up, r.cp_pic, r.notes, r.realized_at, r.created_at, r.updated_at,
		       p.user_id AS plan_user_id, p.customer_id AS plan_customer_id, p.visit_date AS plan_visit_date,
		       p.purpose AS plan_purpose, p.status AS plan_status, p.revenue_target AS plan_revenue_target,
		       u.full_name AS owner_name, c.name AS customer_name
		FROM visit_reports r
		JOIN visit_plans p ON p.id = r.visit_plan_id
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN customers c ON c.id = p.customer_id`

type visitReportRow struct {
	models.VisitReport
	PlanUserID        uuid.UUID          `db:"plan_user_id"`
	PlanCustomerID    uuid.UUID          `db:"plan_customer_id"`
	PlanVisitDate     time.Time          `db:"plan_visit_date"`
	PlanPurpose       string             `db:"plan_purpose"`
	PlanStatus        models.VisitStatus `db:"plan_status"`
	PlanRevenueTarget decimal.Decimal    `db:"plan_revenue_target"`
	OwnerName         sql.NullString     `db:"owner_name"`
	CustomerName      sql.NullString     `db:"customer_name"`
}

func (row visitReportRow) toModel() models.VisitReport {
	rep := row.VisitReport
	plan := &models.VisitPlan{
		ID:            rep.VisitPlanID,
		UserID:        row.PlanUserID,
		CustomerID:    row.PlanCustomerID,
		VisitDate:     row.PlanVisitDate,
		Purpose:       row.PlanPurpose,
		Status:        row.PlanStatus,
		RevenueTarget: row.PlanRevenueTarget,
	}
	if row.OwnerName.Valid {
		plan.User = &models.UserRef{ID: row.PlanUserID, FullName: row.OwnerName.String}
	}
	if row.CustomerName.Valid {
		plan.Customer = &models.CustomerRef{ID: row.PlanCustomerID, Name: row.CustomerName.String}
	}
	rep.VisitPlan = plan
	return rep
}

// VisitReportRepository handles visit report data access
type VisitReportRepository struct {
	db sqlx.ExtContext
}

// NewVisitReportRepository creates a new visit report repository
func NewVisitReportRepository(db sqlx.ExtContext) *VisitReportRepository {
	return &VisitReportRepository{db: db}
}

// GetByID retrieves a visit report with a summary of its plan
func (r *VisitReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VisitReport, error) {
	var row visitReportRow
	if err := sqlx.GetContext(ctx, r.db, &row, visitReportSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, wrap("get visit report", err)
	}

	rep := row.toModel()
	return &rep, nil
}

// GetByPlanID retrieves the report of a visit plan
func (r *VisitReportRepository) GetByPlanID(ctx context.Context, planID uuid.UUID) (*models.VisitReport, error) {
	var row visitReportRow
	if err := sqlx.GetContext(ctx, r.db, &row, visitReportSelect+` WHERE r.visit_plan_id = $1`, planID); err != nil {
		return nil, wrap("get visit report by plan", err)
	}

	rep := row.toModel()
	return &rep, nil
}

// List retrieves a page of reports whose plans are owned within scope
func (r *VisitReportRepository) List(ctx context.Context, filter models.VisitReportFilter, scope policy.Scope) ([]models.VisitReport, int64, error) {
	var w where
	w.scope("p.user_id", scope)
	if filter.StatusRealisasi != "" {
		w.add("r.status_realisasi = ?", filter.StatusRealisasi)
	}
	if filter.HasilVisit != "" {
		w.add(`r.hasil_visit ILIKE ? ESCAPE '\'`, containsPattern(filter.HasilVisit))
	}
	if filter.Category != "" {
		w.add("r.category = ?", filter.Category)
	}

	countQuery, countArgs := w.build(`SELECT COUNT(*) FROM visit_reports r JOIN visit_plans p ON p.id = r.visit_plan_id`, "")
	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, countArgs...); err != nil {
		return nil, 0, wrap("count visit reports", err)
	}

	page := filter.Page.Normalize()
	query, args := w.build(visitReportSelect, ` ORDER BY r.realized_at DESC LIMIT ? OFFSET ?`, page.Limit, page.Offset())

	var rows []visitReportRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, wrap("list visit reports", err)
	}

	reports := make([]models.VisitReport, len(rows))
	for i, row := range rows {
		reports[i] = row.toModel()
	}
	return reports, total, nil
}

// Create creates a visit report. A second report for the same plan fails with ErrConflict.
func (r *VisitReportRepository) Create(ctx context.Context, rep models.VisitReport) (*models.VisitReport, error) {
	query := `
		INSERT INTO visit_reports
		  (visit_plan_id, status_realisasi, hasil_visit, category, revenue_actual, pic_follow_up, cp_pic, notes, realized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id uuid.UUID
	err := sqlx.GetContext(
		ctx,
		r.db,
		&id,
		query,
		rep.VisitPlanID,
		rep.StatusRealisasi,
		rep.HasilVisit,
		rep.Category,
		rep.RevenueActual,
		rep.PICFollowUp,
		rep.CPPIC,
		rep.Notes,
		rep.RealizedAt,
	)
	if err != nil {
		return nil, wrap("create visit report", err)
	}

	return r.GetByID(ctx, id)
}

// Update writes every mutable column of a visit report
func (r *VisitReportRepository) Update(ctx context.Context, rep models.VisitReport) (*models.VisitReport, error) {
	query := `
		UPDATE visit_reports
		SET status_realisasi = $1, hasil_visit = $2, category = $3, revenue_actual = $4,
		    pic_follow_up = $5, cp_pic = $6, notes = $7, realized_at = $8, updated_at = $9
		WHERE id = $10
	`

	res, err := r.db.ExecContext(ctx, query,
		rep.StatusRealisasi, rep.HasilVisit, rep.Category, rep.RevenueActual,
		rep.PICFollowUp, rep.CPPIC, rep.Notes, rep.RealizedAt, time.Now(), rep.ID)
	if err != nil {
		return nil, wrap("update visit report", err)
	}
	if err := expectAffected("update visit report", res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, rep.ID)
}

// Delete deletes a visit report
func (r *VisitReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visit_reports WHERE id = $1`, id)
	if err != nil {
		return wrap("delete visit report", err)
	}

	return expectAffected("delete visit report", res)
}

// DeleteByPlanID removes the report of a plan, if any, and returns how many rows went
func (r *VisitReportRepository) DeleteByPlanID(ctx context.Context, planID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visit_reports WHERE visit_plan_id = $1`, planID)
	if err != nil {
		return 0, wrap("delete visit report by plan", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("get rows affected", err)
	}
	return n, nil
}
