package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/websockets"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VisitReportService records visit outcomes and keeps plan status in step
type VisitReportService struct {
	store    Store
	notifier *Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewVisitReportService creates a new visit report service
func NewVisitReportService(store Store, notifier *Notifier, log *zap.Logger) *VisitReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VisitReportService{store: store, notifier: notifier, log: log, now: time.Now}
}

// ListVisitReports returns one page of reports on plans visible to p
func (s *VisitReportService) ListVisitReports(ctx context.Context, p policy.Principal, filter models.VisitReportFilter) (models.PagedResult[models.VisitReport], error) {
	var result models.PagedResult[models.VisitReport]

	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return result, err
	}

	filter.Page = filter.Page.Normalize()
	reports, total, err := s.store.VisitReports().List(ctx, filter, scope)
	if err != nil {
		return result, storeErr(err, "Visit report", "list visit reports")
	}

	result.Items = reports
	result.Pagination = models.NewPagination(filter.Page, total)
	return result, nil
}

// GetVisitReport returns a report whose plan is visible to p
func (s *VisitReportService) GetVisitReport(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.VisitReport, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	report, err := s.store.VisitReports().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Visit report", "get visit report")
	}

	plan, err := s.planOf(ctx, s.store, report)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(plan.UserID) {
		return nil, policyErr(policy.ErrOutOfScope)
	}
	return report, nil
}

// CreateVisitReport records the outcome of a plan and moves the plan to
// COMPLETED or CANCELLED. A plan has at most one report.
func (s *VisitReportService) CreateVisitReport(ctx context.Context, p policy.Principal, req models.VisitReportRequest) (*models.VisitReport, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	realization := req.StatusRealisasi
	if realization == "" {
		realization = models.Realized
	}

	var (
		created *models.VisitReport
		plan    *models.VisitPlan
	)
	err = s.store.InTx(ctx, func(tx Store) error {
		var err error
		plan, err = tx.VisitPlans().GetByIDForUpdate(ctx, req.VisitPlanID)
		if err != nil {
			return storeErr(err, "Visit plan", "get visit plan")
		}
		if !scope.Allows(plan.UserID) {
			return policyErr(policy.ErrOutOfScope)
		}
		if !policy.CanWriteReport(p, plan.UserID) {
			return policyErr(policy.ErrNotOwner)
		}

		if _, err := tx.VisitReports().GetByPlanID(ctx, plan.ID); err == nil {
			return api.Conflict("Report already exists for this visit plan")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		created, err = tx.VisitReports().Create(ctx, models.VisitReport{
			VisitPlanID:     plan.ID,
			StatusRealisasi: realization,
			HasilVisit:      normalizeHasil(req.HasilVisit),
			Category:        req.Category,
			RevenueActual:   req.RevenueActual,
			PICFollowUp:     req.PICFollowUp,
			CPPIC:           req.CPPIC,
			Notes:           req.Notes,
			RealizedAt:      s.now(),
		})
		if err != nil {
			return err
		}

		plan.Status = policy.PlanStatusForReport(realization, req.ForceComplete, plan.Status)
		return tx.VisitPlans().UpdateStatus(ctx, plan.ID, plan.Status)
	})
	if err != nil {
		return nil, storeErr(err, "Visit report", "create visit report")
	}
	syncPlanStatus(created, plan.Status)

	s.log.Info("visit report created",
		zap.String("visit_report_id", created.ID.String()),
		zap.String("visit_plan_id", plan.ID.String()),
		zap.String("plan_status", string(plan.Status)),
	)
	s.notifier.Notify(ctx, websockets.TypeVisitReportCreated, plan.UserID, created)
	return created, nil
}

// UpdateVisitReport applies a partial update and re-derives the plan status
// from the resulting realization status
func (s *VisitReportService) UpdateVisitReport(ctx context.Context, p policy.Principal, id uuid.UUID, req models.VisitReportUpdateRequest) (*models.VisitReport, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	var (
		updated *models.VisitReport
		plan    *models.VisitPlan
	)
	err = s.store.InTx(ctx, func(tx Store) error {
		report, err := tx.VisitReports().GetByID(ctx, id)
		if err != nil {
			return storeErr(err, "Visit report", "get visit report")
		}
		plan, err = tx.VisitPlans().GetByIDForUpdate(ctx, report.VisitPlanID)
		if err != nil {
			return storeErr(err, "Visit plan", "get visit plan")
		}
		if !scope.Allows(plan.UserID) {
			return policyErr(policy.ErrOutOfScope)
		}
		if !policy.CanWriteReport(p, plan.UserID) {
			return policyErr(policy.ErrNotOwner)
		}

		if req.StatusRealisasi != nil {
			report.StatusRealisasi = *req.StatusRealisasi
		}
		if req.HasilVisit != nil {
			report.HasilVisit = normalizeHasil(req.HasilVisit)
		}
		if req.Category != nil {
			report.Category = req.Category
		}
		if req.RevenueActual != nil {
			report.RevenueActual = decimal.NewNullDecimal(*req.RevenueActual)
		}
		if req.PICFollowUp != nil {
			report.PICFollowUp = *req.PICFollowUp
		}
		if req.CPPIC != nil {
			report.CPPIC = *req.CPPIC
		}
		if req.Notes != nil {
			report.Notes = req.Notes
		}
		report.RealizedAt = s.now()

		updated, err = tx.VisitReports().Update(ctx, *report)
		if err != nil {
			return err
		}

		plan.Status = policy.PlanStatusForReport(report.StatusRealisasi, false, plan.Status)
		return tx.VisitPlans().UpdateStatus(ctx, plan.ID, plan.Status)
	})
	if err != nil {
		return nil, storeErr(err, "Visit report", "update visit report")
	}
	syncPlanStatus(updated, plan.Status)

	s.notifier.Notify(ctx, websockets.TypeVisitReportUpdated, plan.UserID, updated)
	return updated, nil
}

// DeleteVisitReport removes a report and returns its plan to PLANNED. Admin only.
func (s *VisitReportService) DeleteVisitReport(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if !policy.CanDeleteReport(p) {
		return policyErr(policy.ErrAdminOnly)
	}

	var plan *models.VisitPlan
	err := s.store.InTx(ctx, func(tx Store) error {
		report, err := tx.VisitReports().GetByID(ctx, id)
		if err != nil {
			return storeErr(err, "Visit report", "get visit report")
		}
		plan, err = tx.VisitPlans().GetByIDForUpdate(ctx, report.VisitPlanID)
		if err != nil {
			return storeErr(err, "Visit plan", "get visit plan")
		}

		if err := tx.VisitReports().Delete(ctx, id); err != nil {
			return err
		}
		return tx.VisitPlans().UpdateStatus(ctx, plan.ID, policy.PlanStatusAfterReportDelete())
	})
	if err != nil {
		return storeErr(err, "Visit report", "delete visit report")
	}

	s.log.Info("visit report deleted", zap.String("visit_report_id", id.String()), zap.String("by", p.ID.String()))
	s.notifier.Notify(ctx, websockets.TypeVisitReportDeleted, plan.UserID, map[string]any{
		"id":          id,
		"visitPlanId": plan.ID,
	})
	return nil
}

// planOf returns the plan summary carried by report, loading it when absent
func (s *VisitReportService) planOf(ctx context.Context, store Store, report *models.VisitReport) (*models.VisitPlan, error) {
	if report.VisitPlan != nil {
		return report.VisitPlan, nil
	}
	plan, err := store.VisitPlans().GetByID(ctx, report.VisitPlanID)
	if err != nil {
		return nil, storeErr(err, "Visit plan", "get visit plan")
	}
	return plan, nil
}

// syncPlanStatus refreshes the embedded plan summary after a status change
func syncPlanStatus(report *models.VisitReport, status models.VisitStatus) {
	if report != nil && report.VisitPlan != nil {
		report.VisitPlan.Status = status
	}
}

// normalizeHasil upper-cases the visit outcome and treats blank as absent
func normalizeHasil(hasil *string) *string {
	if hasil == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*hasil))
	if v == "" {
		return nil
	}
	return &v
}
