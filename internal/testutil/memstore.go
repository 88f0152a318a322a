// Package testutil provides an in-memory Store and fixtures for service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/shopspring/decimal"
)

// MemStore is a mutex-guarded service.Store with the same error semantics as
// the SQL repositories: ErrNotFound for missing rows and constraint errors for
// duplicate usernames, NIP/NAS values and second reports on a plan.
type MemStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]models.User
	customers map[uuid.UUID]models.Customer
	plans     map[uuid.UUID]models.VisitPlan
	reports   map[uuid.UUID]models.VisitReport
	last      time.Time

	inTx     bool
	failures map[string]error
}

var _ service.Store = (*MemStore)(nil)

// NewMemStore returns an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		users:     make(map[uuid.UUID]models.User),
		customers: make(map[uuid.UUID]models.Customer),
		plans:     make(map[uuid.UUID]models.VisitPlan),
		reports:   make(map[uuid.UUID]models.VisitReport),
	}
}

func (m *MemStore) Users() service.UserStore               { return memUsers{m} }
func (m *MemStore) Customers() service.CustomerStore       { return memCustomers{m} }
func (m *MemStore) VisitPlans() service.VisitPlanStore     { return memPlans{m} }
func (m *MemStore) VisitReports() service.VisitReportStore { return memReports{m} }
func (m *MemStore) Dashboard() service.DashboardStore      { return memDashboard{m} }

// InTx runs fn and restores the previous contents when it fails. Nested calls
// join the outer transaction. Writes from other goroutines made while fn runs
// are rolled back with it.
func (m *MemStore) InTx(ctx context.Context, fn func(service.Store) error) error {
	m.mu.Lock()
	if m.inTx {
		m.mu.Unlock()
		return fn(m)
	}
	m.inTx = true
	snap := m.snapshot()
	m.mu.Unlock()

	err := fn(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx = false
	if err != nil {
		m.restore(snap)
	}
	return err
}

type memSnapshot struct {
	users     map[uuid.UUID]models.User
	customers map[uuid.UUID]models.Customer
	plans     map[uuid.UUID]models.VisitPlan
	reports   map[uuid.UUID]models.VisitReport
}

func (m *MemStore) snapshot() memSnapshot {
	return memSnapshot{
		users:     maps.Clone(m.users),
		customers: maps.Clone(m.customers),
		plans:     maps.Clone(m.plans),
		reports:   maps.Clone(m.reports),
	}
}

func (m *MemStore) restore(snap memSnapshot) {
	m.users, m.customers, m.plans, m.reports = snap.users, snap.customers, snap.plans, snap.reports
}

// FailOn makes the next call to op return err. op names a store method,
// e.g. "VisitPlans.UpdateStatus".
func (m *MemStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failures == nil {
		m.failures = make(map[string]error)
	}
	m.failures[op] = err
}

// injected returns and clears the failure registered for op. Callers hold mu.
func (m *MemStore) injected(op string) error {
	err, ok := m.failures[op]
	if !ok {
		return nil
	}
	delete(m.failures, op)
	return err
}

// tick returns a strictly increasing timestamp so creation order is stable
func (m *MemStore) tick() time.Time {
	now := time.Now()
	if !now.After(m.last) {
		now = m.last.Add(time.Microsecond)
	}
	m.last = now
	return now
}

func notFound(what string) error {
	return fmt.Errorf("failed to get %s: %w", what, repository.ErrNotFound)
}

func paginate[T any](items []T, page models.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// users

type memUsers struct{ m *MemStore }

func (s memUsers) withManager(u models.User) models.User {
	if u.ManagerID != nil {
		if mgr, ok := s.m.users[*u.ManagerID]; ok {
			u.Manager = &models.UserRef{ID: mgr.ID, FullName: mgr.FullName}
		}
	}
	return u
}

func (s memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	u = s.withManager(u)
	return &u, nil
}

func (s memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, u := range s.m.users {
		if u.Username == username {
			u = s.withManager(u)
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (s memUsers) sorted(keep func(models.User) bool) []models.User {
	users := []models.User{}
	for _, u := range s.m.users {
		if keep(u) {
			users = append(users, s.withManager(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	return users
}

func (s memUsers) List(ctx context.Context, scope policy.Scope) ([]models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.sorted(func(u models.User) bool { return scope.Allows(u.ID) }), nil
}

func (s memUsers) ListSubordinates(ctx context.Context, managerID uuid.UUID) ([]models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.sorted(func(u models.User) bool { return u.ManagerID != nil && *u.ManagerID == managerID }), nil
}

func (s memUsers) SubordinateIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var ids []uuid.UUID
	for _, u := range s.m.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (s memUsers) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var n int64
	for _, u := range s.m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s memUsers) checkUnique(u models.User) error {
	for _, other := range s.m.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return repository.NewConflict(repository.ConstraintUsername)
		}
		if u.Email != "" && other.Email == u.Email {
			return repository.NewConflict(repository.ConstraintEmail)
		}
	}
	return nil
}

func (s memUsers) Create(ctx context.Context, user models.User) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Users.Create"); err != nil {
		return nil, err
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.checkUnique(user); err != nil {
		return nil, err
	}
	user.CreatedAt = s.m.tick()
	user.UpdatedAt = user.CreatedAt
	s.m.users[user.ID] = user

	user = s.withManager(user)
	return &user, nil
}

func (s memUsers) Update(ctx context.Context, user models.User) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Users.Update"); err != nil {
		return nil, err
	}

	existing, ok := s.m.users[user.ID]
	if !ok {
		return nil, notFound("user")
	}
	if err := s.checkUnique(user); err != nil {
		return nil, err
	}
	user.PasswordHash = existing.PasswordHash
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = s.m.tick()
	user.Manager = nil
	s.m.users[user.ID] = user

	user = s.withManager(user)
	return &user, nil
}

func (s memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Users.UpdatePassword"); err != nil {
		return err
	}

	u, ok := s.m.users[id]
	if !ok {
		return notFound("user")
	}
	u.PasswordHash = passwordHash
	s.m.users[id] = u
	return nil
}

func (s memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Users.Delete"); err != nil {
		return err
	}

	if _, ok := s.m.users[id]; !ok {
		return notFound("user")
	}
	delete(s.m.users, id)
	for uid, u := range s.m.users {
		if u.ManagerID != nil && *u.ManagerID == id {
			u.ManagerID = nil
			s.m.users[uid] = u
		}
	}
	return nil
}

// customers

type memCustomers struct{ m *MemStore }

func (s memCustomers) withCreator(c models.Customer) models.Customer {
	if u, ok := s.m.users[c.CreatedBy]; ok {
		c.Creator = &models.UserRef{ID: u.ID, FullName: u.FullName}
	}
	return c
}

func customerVisible(c models.Customer, scope policy.Scope) bool {
	return c.Source == models.CustomerSourceImport || scope.Allows(c.CreatedBy)
}

func (s memCustomers) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	c, ok := s.m.customers[id]
	if !ok {
		return nil, notFound("customer")
	}
	c = s.withCreator(c)
	return &c, nil
}

func (s memCustomers) ExistsByNipNas(ctx context.Context, nipNas string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.nipNasTaken(nipNas, uuid.Nil), nil
}

func (s memCustomers) nipNasTaken(nipNas string, except uuid.UUID) bool {
	for _, c := range s.m.customers {
		if c.ID != except && c.NipNas != nil && *c.NipNas == nipNas {
			return true
		}
	}
	return false
}

func (s memCustomers) List(ctx context.Context, filter models.CustomerFilter, scope policy.Scope) ([]models.Customer, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	search := strings.ToLower(filter.Search)
	var matched []models.Customer
	for _, c := range s.m.customers {
		if !customerVisible(c, scope) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Source != "" && c.Source != filter.Source {
			continue
		}
		if search != "" {
			nip := ""
			if c.NipNas != nil {
				nip = *c.NipNas
			}
			hay := strings.ToLower(c.Name + "\x00" + nip + "\x00" + c.PICName)
			if !strings.Contains(hay, search) {
				continue
			}
		}
		matched = append(matched, s.withCreator(c))
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.Ascending {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (s memCustomers) Create(ctx context.Context, c models.Customer) (*models.Customer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Customers.Create"); err != nil {
		return nil, err
	}

	if c.NipNas != nil && s.nipNasTaken(*c.NipNas, uuid.Nil) {
		return nil, repository.NewConflict(repository.ConstraintNipNas)
	}
	c.ID = uuid.New()
	c.CreatedAt = s.m.tick()
	c.UpdatedAt = c.CreatedAt
	c.Creator = nil
	s.m.customers[c.ID] = c

	c = s.withCreator(c)
	return &c, nil
}

func (s memCustomers) Update(ctx context.Context, c models.Customer) (*models.Customer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Customers.Update"); err != nil {
		return nil, err
	}

	existing, ok := s.m.customers[c.ID]
	if !ok {
		return nil, notFound("customer")
	}
	if c.NipNas != nil && s.nipNasTaken(*c.NipNas, c.ID) {
		return nil, repository.NewConflict(repository.ConstraintNipNas)
	}
	existing.Name = c.Name
	existing.NipNas = c.NipNas
	existing.Address = c.Address
	existing.Phone = c.Phone
	existing.Email = c.Email
	existing.PICName = c.PICName
	existing.Status = c.Status
	existing.UpdatedAt = s.m.tick()
	s.m.customers[c.ID] = existing

	existing = s.withCreator(existing)
	return &existing, nil
}

func (s memCustomers) DeleteCascade(ctx context.Context, id uuid.UUID) (models.CustomerDeleteResult, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("Customers.DeleteCascade"); err != nil {
		return models.CustomerDeleteResult{}, err
	}

	var result models.CustomerDeleteResult
	if _, ok := s.m.customers[id]; !ok {
		return result, notFound("customer")
	}
	for pid, p := range s.m.plans {
		if p.CustomerID != id {
			continue
		}
		for rid, r := range s.m.reports {
			if r.VisitPlanID == pid {
				delete(s.m.reports, rid)
				result.DeletedVisitReports++
			}
		}
		delete(s.m.plans, pid)
		result.DeletedVisitPlans++
	}
	delete(s.m.customers, id)
	return result, nil
}

// visit plans

type memPlans struct{ m *MemStore }

// expandPlan fills in the joined user and customer refs
func (m *MemStore) expandPlan(p models.VisitPlan) models.VisitPlan {
	if u, ok := m.users[p.UserID]; ok {
		p.User = &models.UserRef{ID: u.ID, FullName: u.FullName}
	}
	if c, ok := m.customers[p.CustomerID]; ok {
		p.Customer = &models.CustomerRef{ID: c.ID, Name: c.Name}
	}
	return p
}

func (s memPlans) GetByID(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p, ok := s.m.plans[id]
	if !ok {
		return nil, notFound("visit plan")
	}
	p = s.m.expandPlan(p)
	return &p, nil
}

func (s memPlans) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error) {
	return s.GetByID(ctx, id)
}

func (s memPlans) List(ctx context.Context, filter models.VisitPlanFilter, scope policy.Scope) ([]models.VisitPlan, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var matched []models.VisitPlan
	for _, p := range s.m.plans {
		if !scope.Allows(p.UserID) {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.CustomerID != nil && p.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Category != "" && (p.Category == nil || *p.Category != filter.Category) {
			continue
		}
		if filter.StartDate != nil && p.VisitDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && p.VisitDate.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, s.m.expandPlan(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !filter.RecentFirst && !a.VisitDate.Equal(b.VisitDate) {
			return a.VisitDate.After(b.VisitDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (s memPlans) Create(ctx context.Context, p models.VisitPlan) (*models.VisitPlan, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitPlans.Create"); err != nil {
		return nil, err
	}

	p.ID = uuid.New()
	p.CreatedAt = s.m.tick()
	p.UpdatedAt = p.CreatedAt
	p.User, p.Customer, p.Report, p.Access = nil, nil, nil, nil
	s.m.plans[p.ID] = p

	p = s.m.expandPlan(p)
	return &p, nil
}

func (s memPlans) Update(ctx context.Context, p models.VisitPlan) (*models.VisitPlan, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitPlans.Update"); err != nil {
		return nil, err
	}

	existing, ok := s.m.plans[p.ID]
	if !ok {
		return nil, notFound("visit plan")
	}
	p.UserID = existing.UserID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.m.tick()
	p.User, p.Customer, p.Report, p.Access = nil, nil, nil, nil
	s.m.plans[p.ID] = p

	p = s.m.expandPlan(p)
	return &p, nil
}

func (s memPlans) UpdateStatus(ctx context.Context, id uuid.UUID, status models.VisitStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitPlans.UpdateStatus"); err != nil {
		return err
	}

	p, ok := s.m.plans[id]
	if !ok {
		return notFound("visit plan")
	}
	p.Status = status
	p.UpdatedAt = s.m.tick()
	s.m.plans[id] = p
	return nil
}

func (s memPlans) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitPlans.Delete"); err != nil {
		return err
	}

	if _, ok := s.m.plans[id]; !ok {
		return notFound("visit plan")
	}
	for _, r := range s.m.reports {
		if r.VisitPlanID == id {
			return fmt.Errorf("failed to delete visit plan: %w", repository.ErrInUse)
		}
	}
	delete(s.m.plans, id)
	return nil
}

// visit reports

type memReports struct{ m *MemStore }

func (m *MemStore) expandReport(r models.VisitReport) models.VisitReport {
	if p, ok := m.plans[r.VisitPlanID]; ok {
		p = m.expandPlan(p)
		r.VisitPlan = &p
	}
	return r
}

func (s memReports) GetByID(ctx context.Context, id uuid.UUID) (*models.VisitReport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	r, ok := s.m.reports[id]
	if !ok {
		return nil, notFound("visit report")
	}
	r = s.m.expandReport(r)
	return &r, nil
}

func (s memReports) GetByPlanID(ctx context.Context, planID uuid.UUID) (*models.VisitReport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, r := range s.m.reports {
		if r.VisitPlanID == planID {
			r = s.m.expandReport(r)
			return &r, nil
		}
	}
	return nil, notFound("visit report")
}

func (s memReports) List(ctx context.Context, filter models.VisitReportFilter, scope policy.Scope) ([]models.VisitReport, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	hasil := strings.ToLower(filter.HasilVisit)
	var matched []models.VisitReport
	for _, r := range s.m.reports {
		p, ok := s.m.plans[r.VisitPlanID]
		if !ok || !scope.Allows(p.UserID) {
			continue
		}
		if filter.StatusRealisasi != "" && r.StatusRealisasi != filter.StatusRealisasi {
			continue
		}
		if hasil != "" && (r.HasilVisit == nil || !strings.Contains(strings.ToLower(*r.HasilVisit), hasil)) {
			continue
		}
		if filter.Category != "" && (r.Category == nil || *r.Category != filter.Category) {
			continue
		}
		matched = append(matched, s.m.expandReport(r))
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].RealizedAt.After(matched[j].RealizedAt) })
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (s memReports) Create(ctx context.Context, rep models.VisitReport) (*models.VisitReport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitReports.Create"); err != nil {
		return nil, err
	}

	if _, ok := s.m.plans[rep.VisitPlanID]; !ok {
		return nil, fmt.Errorf("failed to create visit report: %w", repository.ErrInUse)
	}
	for _, r := range s.m.reports {
		if r.VisitPlanID == rep.VisitPlanID {
			return nil, repository.NewConflict(repository.ConstraintReportOfPlan)
		}
	}
	rep.ID = uuid.New()
	rep.CreatedAt = s.m.tick()
	rep.UpdatedAt = rep.CreatedAt
	rep.VisitPlan = nil
	s.m.reports[rep.ID] = rep

	rep = s.m.expandReport(rep)
	return &rep, nil
}

func (s memReports) Update(ctx context.Context, rep models.VisitReport) (*models.VisitReport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitReports.Update"); err != nil {
		return nil, err
	}

	existing, ok := s.m.reports[rep.ID]
	if !ok {
		return nil, notFound("visit report")
	}
	rep.VisitPlanID = existing.VisitPlanID
	rep.CreatedAt = existing.CreatedAt
	rep.UpdatedAt = s.m.tick()
	rep.VisitPlan = nil
	s.m.reports[rep.ID] = rep

	rep = s.m.expandReport(rep)
	return &rep, nil
}

func (s memReports) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitReports.Delete"); err != nil {
		return err
	}

	if _, ok := s.m.reports[id]; !ok {
		return notFound("visit report")
	}
	delete(s.m.reports, id)
	return nil
}

func (s memReports) DeleteByPlanID(ctx context.Context, planID uuid.UUID) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.m.injected("VisitReports.DeleteByPlanID"); err != nil {
		return 0, err
	}

	var n int64
	for id, r := range s.m.reports {
		if r.VisitPlanID == planID {
			delete(s.m.reports, id)
			n++
		}
	}
	return n, nil
}

// dashboard

type memDashboard struct{ m *MemStore }

func inRange(p models.VisitPlan, scope policy.Scope, f models.DashboardFilter) bool {
	if !scope.Allows(p.UserID) {
		return false
	}
	if f.StartDate != nil && p.VisitDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && p.VisitDate.After(*f.EndDate) {
		return false
	}
	return true
}

func (s memDashboard) CountCustomers(ctx context.Context, scope policy.Scope) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var n int64
	for _, c := range s.m.customers {
		if customerVisible(c, scope) {
			n++
		}
	}
	return n, nil
}

func (s memDashboard) StatusCounts(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (models.StatusCounts, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var counts models.StatusCounts
	for _, p := range s.m.plans {
		if !inRange(p, scope, f) {
			continue
		}
		counts.Total++
		switch p.Status {
		case models.VisitStatusPlanned:
			counts.Planned++
		case models.VisitStatusCompleted:
			counts.Completed++
		case models.VisitStatusCancelled:
			counts.Cancelled++
		}
	}
	return counts, nil
}

// reportsInRange returns the reports whose plans match scope and f
func (s memDashboard) reportsInRange(scope policy.Scope, f models.DashboardFilter) []models.VisitReport {
	var out []models.VisitReport
	for _, r := range s.m.reports {
		if p, ok := s.m.plans[r.VisitPlanID]; ok && inRange(p, scope, f) {
			out = append(out, r)
		}
	}
	return out
}

func (s memDashboard) CountReports(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return int64(len(s.reportsInRange(scope, f))), nil
}

func (s memDashboard) RevenueTotals(ctx context.Context, scope policy.Scope, f models.DashboardFilter) (models.RevenueTotals, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	totals := models.RevenueTotals{Target: decimal.Zero, Actual: decimal.Zero}
	for _, p := range s.m.plans {
		if inRange(p, scope, f) {
			totals.Target = totals.Target.Add(p.RevenueTarget)
		}
	}
	for _, r := range s.reportsInRange(scope, f) {
		if r.RevenueActual.Valid {
			totals.Actual = totals.Actual.Add(r.RevenueActual.Decimal)
		}
	}
	return totals, nil
}

func (s memDashboard) ReportBreakdown(ctx context.Context, scope policy.Scope, f models.DashboardFilter, dim repository.ReportDimension) ([]models.GroupCount, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	counts := map[string]int64{}
	for _, r := range s.reportsInRange(scope, f) {
		var key string
		switch dim {
		case repository.ByHasilVisit:
			if r.HasilVisit != nil {
				key = *r.HasilVisit
			}
		case repository.ByCategory:
			if r.Category != nil {
				key = string(*r.Category)
			}
		default:
			key = string(r.StatusRealisasi)
		}
		counts[key]++
	}

	groups := []models.GroupCount{}
	for k, n := range counts {
		groups = append(groups, models.GroupCount{Key: k, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}
