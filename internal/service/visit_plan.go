package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/websockets"
	"go.uber.org/zap"
)

// VisitPlanService manages visit plans under the editability window
type VisitPlanService struct {
	store    Store
	edit     policy.Editability
	notifier *Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewVisitPlanService creates a new visit plan service
func NewVisitPlanService(store Store, edit policy.Editability, notifier *Notifier, log *zap.Logger) *VisitPlanService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VisitPlanService{store: store, edit: edit, notifier: notifier, log: log, now: time.Now}
}

// SetClock replaces the time source
func (s *VisitPlanService) SetClock(now func() time.Time) {
	s.now = now
}

// ListVisitPlans returns one page of plans visible to p. A non-nil userID narrows
// the listing to that user, who must be inside p's scope.
func (s *VisitPlanService) ListVisitPlans(ctx context.Context, p policy.Principal, filter models.VisitPlanFilter, userID *uuid.UUID) (models.PagedResult[models.VisitPlan], error) {
	var result models.PagedResult[models.VisitPlan]

	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return result, err
	}
	if userID != nil {
		if scope, err = scope.WithUserOverride(*userID); err != nil {
			return result, policyErr(err)
		}
	}

	filter.Page = filter.Page.Normalize()
	plans, total, err := s.store.VisitPlans().List(ctx, filter, scope)
	if err != nil {
		return result, storeErr(err, "Visit plan", "list visit plans")
	}

	now := s.now()
	for i := range plans {
		plans[i].Access = s.edit.Access(p, &plans[i], now)
	}

	result.Items = plans
	result.Pagination = models.NewPagination(filter.Page, total)
	return result, nil
}

// GetVisitPlan returns a plan visible to p together with its report, if any
func (s *VisitPlanService) GetVisitPlan(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.VisitPlan, error) {
	plan, err := s.visiblePlan(ctx, p, id)
	if err != nil {
		return nil, err
	}

	report, err := s.store.VisitReports().GetByPlanID(ctx, plan.ID)
	switch {
	case err == nil:
		plan.Report = report
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr(err, "Visit report", "get visit report")
	}

	plan.Access = s.edit.Access(p, plan, s.now())
	return plan, nil
}

func (s *VisitPlanService) visiblePlan(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.VisitPlan, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	plan, err := s.store.VisitPlans().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Visit plan", "get visit plan")
	}
	if !scope.Allows(plan.UserID) {
		return nil, policyErr(policy.ErrOutOfScope)
	}
	return plan, nil
}

// CreateVisitPlan schedules a visit owned by p. Creation is never time-gated.
func (s *VisitPlanService) CreateVisitPlan(ctx context.Context, p policy.Principal, req models.VisitPlanRequest) (*models.VisitPlan, error) {
	if err := s.checkCustomer(ctx, p, req.CustomerID); err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.store.VisitPlans().Create(ctx, models.VisitPlan{
		UserID:            p.ID,
		CustomerID:        req.CustomerID,
		VisitDate:         req.VisitDate,
		Purpose:           req.Purpose,
		DiscussionProgram: req.DiscussionProgram,
		RevenueTarget:     req.RevenueTarget,
		Status:            models.VisitStatusPlanned,
		Category:          req.Category,
		IsEditable:        s.edit.IsEditable(req.VisitDate, now, p.Role),
	})
	if err != nil {
		return nil, storeErr(err, "Visit plan", "create visit plan")
	}

	created.Access = s.edit.Access(p, created, now)

	s.log.Info("visit plan created",
		zap.String("visit_plan_id", created.ID.String()),
		zap.String("user_id", p.ID.String()),
		zap.Time("visit_date", created.VisitDate),
	)
	s.notifier.Notify(ctx, websockets.TypeVisitPlanCreated, created.UserID, created)
	return created, nil
}

// UpdateVisitPlan applies a partial update. Non-admins may only edit their own
// plans before the lock instant, and only admins may change the status.
func (s *VisitPlanService) UpdateVisitPlan(ctx context.Context, p policy.Principal, id uuid.UUID, req models.VisitPlanUpdateRequest) (*models.VisitPlan, error) {
	plan, err := s.visiblePlan(ctx, p, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.edit.CheckUpdate(p, plan, now); err != nil {
		return nil, policyErr(err)
	}
	if req.Status != nil && *req.Status != plan.Status && !p.IsAdmin() {
		return nil, policyErr(policy.ErrStatusChange)
	}

	if req.CustomerID != nil && *req.CustomerID != plan.CustomerID {
		if err := s.checkCustomer(ctx, p, *req.CustomerID); err != nil {
			return nil, err
		}
		plan.CustomerID = *req.CustomerID
	}
	if req.VisitDate != nil {
		plan.VisitDate = *req.VisitDate
	}
	if req.Purpose != nil {
		plan.Purpose = *req.Purpose
	}
	if req.DiscussionProgram != nil {
		plan.DiscussionProgram = *req.DiscussionProgram
	}
	if req.RevenueTarget != nil {
		plan.RevenueTarget = *req.RevenueTarget
	}
	if req.Category != nil {
		plan.Category = req.Category
	}
	if req.Status != nil {
		plan.Status = *req.Status
	}
	plan.IsEditable = s.edit.IsEditable(plan.VisitDate, now, p.Role)

	updated, err := s.store.VisitPlans().Update(ctx, *plan)
	if err != nil {
		return nil, storeErr(err, "Visit plan", "update visit plan")
	}
	updated.Access = s.edit.Access(p, updated, now)

	s.notifier.Notify(ctx, websockets.TypeVisitPlanUpdated, updated.UserID, updated)
	return updated, nil
}

// DeleteVisitPlan removes a plan and its report. Admins may delete any plan
// in scope; others only their own. There is no time window.
func (s *VisitPlanService) DeleteVisitPlan(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	plan, err := s.visiblePlan(ctx, p, id)
	if err != nil {
		return err
	}
	if !policy.CanDeletePlan(p, plan.UserID) {
		return policyErr(policy.ErrNotOwner)
	}

	err = s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.VisitReports().DeleteByPlanID(ctx, id); err != nil {
			return err
		}
		return tx.VisitPlans().Delete(ctx, id)
	})
	if err != nil {
		return storeErr(err, "Visit plan", "delete visit plan")
	}

	s.log.Info("visit plan deleted", zap.String("visit_plan_id", id.String()), zap.String("by", p.ID.String()))
	s.notifier.Notify(ctx, websockets.TypeVisitPlanDeleted, plan.UserID, map[string]any{"id": id})
	return nil
}

// checkCustomer requires the customer to exist and be visible to p
func (s *VisitPlanService) checkCustomer(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.Validation("Customer not found")
		}
		return storeErr(err, "Customer", "look up customer")
	}

	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return err
	}
	if !customerVisible(customer, scope) {
		return policyErr(policy.ErrOutOfScope)
	}
	return nil
}
