package repository

import (
	"github.com/jmoiron/sqlx"
)

// Factory provides access to all repositories bound to one executor,
// either the pool or an open transaction
type Factory struct {
	User        *UserRepository
	Customer    *CustomerRepository
	VisitPlan   *VisitPlanRepository
	VisitReport *VisitReportRepository
	Dashboard   *DashboardRepository
}

// NewFactory creates a new repository factory
func NewFactory(db sqlx.ExtContext) *Factory {
	return &Factory{
		User:        NewUserRepository(db),
		Customer:    NewCustomerRepository(db),
		VisitPlan:   NewVisitPlanRepository(db),
		VisitReport: NewVisitReportRepository(db),
		Dashboard:   NewDashboardRepository(db),
	}
}
