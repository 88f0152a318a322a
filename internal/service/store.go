package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
)

// UserStore persists users
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, scope policy.Scope) ([]models.User, error)
	ListSubordinates(ctx context.Context, managerID uuid.UUID) ([]models.User, error)
	SubordinateIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	Create(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, user models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerStore persists customers
type CustomerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ExistsByNipNas(ctx context.Context, nipNas string) (bool, error)
	List(ctx context.Context, filter models.CustomerFilter, scope policy.Scope) ([]models.Customer, int64, error)
	Create(ctx context.Context, c models.Customer) (*models.Customer, error)
	Update(ctx context.Context, c models.Customer) (*models.Customer, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) (models.CustomerDeleteResult, error)
}

// VisitPlanStore persists visit plans
type VisitPlanStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error)
	List(ctx context.Context, filter models.VisitPlanFilter, scope policy.Scope) ([]models.VisitPlan, int64, error)
	Create(ctx context.Context, p models.VisitPlan) (*models.VisitPlan, error)
	Update(ctx context.Context, p models.VisitPlan) (*models.VisitPlan, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.VisitStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// VisitReportStore persists visit reports
type VisitReportStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.VisitReport, error)
	GetByPlanID(ctx context.Context, planID uuid.UUID) (*models.VisitReport, error)
	List(ctx context.Context, filter models.VisitReportFilter, scope policy.Scope) ([]models.VisitReport, int64, error)
	Create(ctx context.Context, rep models.VisitReport) (*models.VisitReport, error)
	Update(ctx context.Context, rep models.VisitReport) (*models.VisitReport, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPlanID(ctx context.Context, planID uuid.UUID) (int64, error)
}

// DashboardStore aggregates visit data
type DashboardStore interface {
	CountCustomers(ctx context.Context, scope policy.Scope) (int64, error)
	StatusCounts(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (models.StatusCounts, error)
	CountReports(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (int64, error)
	RevenueTotals(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (models.RevenueTotals, error)
	ReportBreakdown(ctx context.Context, scope policy.Scope, f models.DashboardFilter, dim repository.ReportDimension) ([]models.GroupCount, error)
}

// Store groups the stores the services use. InTx runs fn against a
// transactional view; nested calls reuse the outer transaction.
type Store interface {
	Users() UserStore
	Customers() CustomerStore
	VisitPlans() VisitPlanStore
	VisitReports() VisitReportStore
	Dashboard() DashboardStore
	InTx(ctx context.Context, fn func(Store) error) error
}

// NewStore adapts the SQL repositories to Store
func NewStore(repos *repository.Repositories) Store {
	return sqlStore{f: repos.Factory, repos: repos}
}

type sqlStore struct {
	f     *repository.Factory
	repos *repository.Repositories // nil inside a transaction
}

func (s sqlStore) Users() UserStore               { return s.f.User }
func (s sqlStore) Customers() CustomerStore       { return s.f.Customer }
func (s sqlStore) VisitPlans() VisitPlanStore     { return s.f.VisitPlan }
func (s sqlStore) VisitReports() VisitReportStore { return s.f.VisitReport }
func (s sqlStore) Dashboard() DashboardStore      { return s.f.Dashboard }

func (s sqlStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.repos == nil {
		return fn(s)
	}
	return s.repos.InTx(ctx, func(f *repository.Factory) error {
		return fn(sqlStore{f: f})
	})
}
