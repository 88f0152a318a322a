package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/websockets"
	"go.uber.org/zap"
)

// CustomerService manages customers. Imported customers are visible to everyone;
// manual ones follow the creator's visibility scope.
type CustomerService struct {
	store    Store
	notifier *Notifier
	log      *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store Store, notifier *Notifier, log *zap.Logger) *CustomerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerService{store: store, notifier: notifier, log: log}
}

// ListCustomers returns one page of customers visible to p
func (s *CustomerService) ListCustomers(ctx context.Context, p policy.Principal, filter models.CustomerFilter) (models.PagedResult[models.Customer], error) {
	var result models.PagedResult[models.Customer]

	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return result, err
	}

	filter.Page = filter.Page.Normalize()
	customers, total, err := s.store.Customers().List(ctx, filter, scope)
	if err != nil {
		return result, storeErr(err, "Customer", "list customers")
	}

	result.Items = customers
	result.Pagination = models.NewPagination(filter.Page, total)
	return result, nil
}

// GetCustomer returns a customer visible to p
func (s *CustomerService) GetCustomer(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Customer, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	return s.visibleCustomer(ctx, scope, id)
}

func (s *CustomerService) visibleCustomer(ctx context.Context, scope policy.Scope, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Customer", "get customer")
	}
	if !customerVisible(customer, scope) {
		return nil, policyErr(policy.ErrOutOfScope)
	}
	return customer, nil
}

// customerVisible reports whether scope covers c. Imported customers are shared.
func customerVisible(c *models.Customer, scope policy.Scope) bool {
	return c.Source == models.CustomerSourceImport || scope.Allows(c.CreatedBy)
}

// CreateCustomer adds a manual customer owned by p
func (s *CustomerService) CreateCustomer(ctx context.Context, p policy.Principal, req models.CustomerRequest) (*models.Customer, error) {
	nipNas := normalizeNipNas(req.NipNas)
	if nipNas != nil {
		exists, err := s.store.Customers().ExistsByNipNas(ctx, *nipNas)
		if err != nil {
			return nil, storeErr(err, "Customer", "check NIP/NAS")
		}
		if exists {
			return nil, api.Conflict("Customer with this NIP/NAS already exists")
		}
	}

	status := req.Status
	if status == "" {
		status = models.CustomerStatusActive
	}

	created, err := s.store.Customers().Create(ctx, models.Customer{
		Name:      req.Name,
		NipNas:    nipNas,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		PICName:   req.PICName,
		Status:    status,
		Source:    models.CustomerSourceManual,
		CreatedBy: p.ID,
	})
	if err != nil {
		return nil, storeErr(err, "Customer", "create customer")
	}

	s.log.Info("customer created", zap.String("customer_id", created.ID.String()), zap.String("by", p.ID.String()))
	s.notifier.Notify(ctx, websockets.TypeCustomerCreated, created.CreatedBy, created)
	return created, nil
}

// UpdateCustomer replaces the editable fields of a customer visible to p
func (s *CustomerService) UpdateCustomer(ctx context.Context, p policy.Principal, id uuid.UUID, req models.CustomerRequest) (*models.Customer, error) {
	scope, err := scopeFor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	customer, err := s.visibleCustomer(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	nipNas := normalizeNipNas(req.NipNas)
	if nipNas != nil && (customer.NipNas == nil || *customer.NipNas != *nipNas) {
		exists, err := s.store.Customers().ExistsByNipNas(ctx, *nipNas)
		if err != nil {
			return nil, storeErr(err, "Customer", "check NIP/NAS")
		}
		if exists {
			return nil, api.Conflict("Customer with this NIP/NAS already exists")
		}
	}

	customer.Name = req.Name
	customer.NipNas = nipNas
	customer.Address = req.Address
	customer.Phone = req.Phone
	customer.Email = req.Email
	customer.PICName = req.PICName
	if req.Status != "" {
		customer.Status = req.Status
	}

	updated, err := s.store.Customers().Update(ctx, *customer)
	if err != nil {
		return nil, storeErr(err, "Customer", "update customer")
	}

	s.notifier.Notify(ctx, websockets.TypeCustomerUpdated, updated.CreatedBy, updated)
	return updated, nil
}

// DeleteCustomer removes a customer with its visit plans and reports.
// Admins may delete any customer; others only manual customers they created.
func (s *CustomerService) DeleteCustomer(ctx context.Context, p policy.Principal, id uuid.UUID) (models.CustomerDeleteResult, error) {
	var result models.CustomerDeleteResult

	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		return result, storeErr(err, "Customer", "delete customer")
	}
	if !p.IsAdmin() && (customer.Source != models.CustomerSourceManual || customer.CreatedBy != p.ID) {
		return result, api.Forbidden("Only admins or the creator of a manual customer can delete it")
	}

	err = s.store.InTx(ctx, func(tx Store) error {
		var err error
		result, err = tx.Customers().DeleteCascade(ctx, id)
		return err
	})
	if err != nil {
		return models.CustomerDeleteResult{}, storeErr(err, "Customer", "delete customer")
	}

	s.log.Info("customer deleted",
		zap.String("customer_id", id.String()),
		zap.Int64("visit_plans", result.DeletedVisitPlans),
		zap.Int64("visit_reports", result.DeletedVisitReports),
		zap.String("by", p.ID.String()),
	)
	s.notifier.Notify(ctx, websockets.TypeCustomerDeleted, customer.CreatedBy, map[string]any{
		"id":                  id,
		"deletedVisitPlans":   result.DeletedVisitPlans,
		"deletedVisitReports": result.DeletedVisitReports,
	})
	return result, nil
}

// normalizeNipNas trims the identifier and treats blank as absent
func normalizeNipNas(nipNas *string) *string {
	if nipNas == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*nipNas)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
