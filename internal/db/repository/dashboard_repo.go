package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
)

// ReportDimension is a visit report column reports can be grouped by
type ReportDimension string

const (
	ByHasilVisit      ReportDimension = "hasil_visit"
	ByCategory        ReportDimension = "category"
	ByStatusRealisasi ReportDimension = "status_realisasi"
)

func (d ReportDimension) column() string {
	switch d {
	case ByHasilVisit, ByCategory, ByStatusRealisasi:
		return "r." + string(d)
	}
	return "r.status_realisasi"
}

// DashboardRepository aggregates visit data for dashboards
type DashboardRepository struct {
	db sqlx.ExtContext
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db sqlx.ExtContext) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func planWhere(scope policy.Scope, f models.DashboardFilter) *where {
	w := &where{}
	w.scope("p.user_id", scope)
	if f.StartDate != nil {
		w.add("p.visit_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		w.add("p.visit_date <= ?", *f.EndDate)
	}
	return w
}

// CountCustomers counts customers visible within scope
func (r *DashboardRepository) CountCustomers(ctx context.Context, scope policy.Scope) (int64, error) {
	var w where
	w.customerScope("c", scope)
	query, args := w.build(`SELECT COUNT(*) FROM customers c`, "")

	var n int64
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		return 0, wrap("count customers", err)
	}
	return n, nil
}

// StatusCounts counts visit plans per status
func (r *DashboardRepository) StatusCounts(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (models.StatusCounts, error) {
	query, args := planWhere(scope, f).build(`
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE p.status = 'PLANNED') AS planned,
		       COUNT(*) FILTER (WHERE p.status = 'COMPLETED') AS completed,
		       COUNT(*) FILTER (WHERE p.status = 'CANCELLED') AS cancelled
		FROM visit_plans p`, "")

	var counts models.StatusCounts
	if err := sqlx.GetContext(ctx, r.db, &counts, query, args...); err != nil {
		return counts, wrap("count visit plans by status", err)
	}
	return counts, nil
}

// CountReports counts reports whose plans fall within scope and range
func (r *DashboardRepository) CountReports(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (int64, error) {
	query, args := planWhere(scope, f).build(`
		SELECT COUNT(*)
		FROM visit_reports r
		JOIN visit_plans p ON p.id = r.visit_plan_id`, "")

	var n int64
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		return 0, wrap("count visit reports", err)
	}
	return n, nil
}

// RevenueTotals sums plan targets and reported actuals in exact decimal arithmetic
func (r *DashboardRepository) RevenueTotals(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (models.RevenueTotals, error) {
	query, args := planWhere(scope, f).build(`
		SELECT COALESCE(SUM(p.revenue_target), 0) AS target,
		       COALESCE(SUM(r.revenue_actual), 0) AS actual
		FROM visit_plans p
		LEFT JOIN visit_reports r ON r.visit_plan_id = p.id`, "")

	var totals models.RevenueTotals
	if err := sqlx.GetContext(ctx, r.db, &totals, query, args...); err != nil {
		return totals, wrap("sum revenue", err)
	}
	return totals, nil
}

// ReportBreakdown counts reports grouped by dim
func (r *DashboardRepository) ReportBreakdown(ctx context.Context, scope policy.Scope, f models.DashboardFilter, dim ReportDimension) ([]models.GroupCount, error) {
	col := dim.column()
	query, args := planWhere(scope, f).build(`
		SELECT COALESCE(`+col+`, '') AS key, COUNT(*) AS count
		FROM visit_reports r
		JOIN visit_plans p ON p.id = r.visit_plan_id`,
		` GROUP BY `+col+` ORDER BY count DESC, key ASC`)

	groups := []models.GroupCount{}
	if err := sqlx.SelectContext(ctx, r.db, &groups, query, args...); err != nil {
		return nil, wrap("group visit reports", err)
	}
	return groups, nil
}
