package service

import (
	"context"

	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentVisitCount = 5

// DashboardService aggregates plan and report figures within the caller's scope
type DashboardService struct {
	store Store
	log   *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store Store, log *zap.Logger) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardService{store: store, log: log}
}

func (s *DashboardService) scope(ctx context.Context, p policy.Principal, f models.DashboardFilter) (policy.Scope, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return scope, err
	}
	if f.UserID != nil {
		if scope, err = scope.WithUserOverride(*f.UserID); err != nil {
			return scope, policyErr(err)
		}
	}
	return scope, nil
}

// Summary returns headline counts, revenue totals and the latest plans
func (s *DashboardService) Summary(ctx context.Context, p policy.Principal, f models.DashboardFilter) (*models.DashboardOverview, error) {
	scope, err := s.scope(ctx, p, f)
	if err != nil {
		return nil, err
	}

	dash := s.store.Dashboard()

	customers, err := dash.CountCustomers(ctx, scope)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "count customers")
	}
	counts, err := dash.StatusCounts(ctx, scope, f)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "count visit plans")
	}
	reports, err := dash.CountReports(ctx, scope, f)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "count visit reports")
	}
	revenue, err := dash.RevenueTotals(ctx, scope, f)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "sum revenue")
	}

	recent, _, err := s.store.VisitPlans().List(ctx, models.VisitPlanFilter{
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Page:        models.Page{Number: 1, Limit: recentVisitCount},
		RecentFirst: true,
	}, scope)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "list recent visits")
	}

	return &models.DashboardOverview{
		Summary: models.DashboardSummary{
			TotalCustomers:     customers,
			StatusCounts:       counts,
			TotalReports:       reports,
			TotalRevenueTarget: revenue.Target,
			TotalRevenueActual: revenue.Actual,
			RevenueAchievement: achievement(revenue.Actual, revenue.Target),
		},
		RecentVisits: recent,
	}, nil
}

// Statistics breaks plans down by status and reports by outcome, category and realization
func (s *DashboardService) Statistics(ctx context.Context, p policy.Principal, f models.DashboardFilter) (*models.VisitStatistics, error) {
	scope, err := s.scope(ctx, p, f)
	if err != nil {
		return nil, err
	}

	dash := s.store.Dashboard()

	counts, err := dash.StatusCounts(ctx, scope, f)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "count visit plans")
	}

	stats := &models.VisitStatistics{VisitsByStatus: statusGroups(counts)}
	breakdowns := []struct {
		dim repository.ReportDimension
		dst *[]models.GroupCount
	}{
		{repository.ByHasilVisit, &stats.ReportsByHasil},
		{repository.ByCategory, &stats.ReportsByCategory},
		{repository.ByStatusRealisasi, &stats.ReportsByRealisasi},
	}
	for _, b := range breakdowns {
		groups, err := dash.ReportBreakdown(ctx, scope, f, b.dim)
		if err != nil {
			return nil, storeErr(err, "Dashboard", "group visit reports")
		}
		*b.dst = groups
	}
	return stats, nil
}

// Revenue compares summed targets with reported actuals
func (s *DashboardService) Revenue(ctx context.Context, p policy.Principal, f models.DashboardFilter) (*models.RevenueAnalytics, error) {
	scope, err := s.scope(ctx, p, f)
	if err != nil {
		return nil, err
	}

	revenue, err := s.store.Dashboard().RevenueTotals(ctx, scope, f)
	if err != nil {
		return nil, storeErr(err, "Dashboard", "sum revenue")
	}

	return &models.RevenueAnalytics{
		TotalTarget: revenue.Target,
		TotalActual: revenue.Actual,
		Achievement: achievement(revenue.Actual, revenue.Target),
		Gap:         revenue.Target.Sub(revenue.Actual),
	}, nil
}

// achievement returns actual as a percentage of target rounded to two places, or 0 without a target
func achievement(actual, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	return actual.Div(target).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// statusGroups lists the non-empty status counts in lifecycle order
func statusGroups(c models.StatusCounts) []models.GroupCount {
	groups := []models.GroupCount{}
	for _, g := range []models.GroupCount{
		{Key: string(models.VisitStatusPlanned), Count: c.Planned},
		{Key: string(models.VisitStatusCompleted), Count: c.Completed},
		{Key: string(models.VisitStatusCancelled), Count: c.Cancelled},
	} {
		if g.Count > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}
