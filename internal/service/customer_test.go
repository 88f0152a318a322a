package service_test

import (
	"testing"
	"time"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/testutil"
)

func customerRequest(name, nipNas string) models.CustomerRequest {
	return models.CustomerRequest{
		Name:    name,
		NipNas:  &nipNas,
		Address: "Jl. Thamrin 5",
		Phone:   "0217777",
	}
}

func TestCreateCustomerDefaults(t *testing.T) {
	tm := newTeam(t)
	svc := service.NewCustomerService(tm.store, tm.notifier(), nil)

	c, err := svc.CreateCustomer(ctx, tm.alice, customerRequest("PT Maju", "  123  "))
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if c.Status != models.CustomerStatusActive || c.Source != models.CustomerSourceManual {
		t.Errorf("status/source = %s/%s", c.Status, c.Source)
	}
	if c.CreatedBy != tm.alice.ID {
		t.Errorf("created_by = %s, want alice", c.CreatedBy)
	}
	if c.NipNas == nil || *c.NipNas != "123" {
		t.Errorf("nipNas = %v, want trimmed 123", c.NipNas)
	}
	if len(tm.sent.Sent()) != 1 {
		t.Errorf("notifications = %d, want 1", len(tm.sent.Sent()))
	}
}

func TestCreateCustomerDuplicateNipNas(t *testing.T) {
	tm := newTeam(t)
	svc := service.NewCustomerService(tm.store, nil, nil)

	if _, err := svc.CreateCustomer(ctx, tm.alice, customerRequest("PT Maju", "123")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateCustomer(ctx, tm.bob, customerRequest("PT Lain", "123"))
	wantKind(t, err, api.KindConflict)

	page, err := svc.ListCustomers(ctx, tm.admin, models.CustomerFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Total != 1 {
		t.Errorf("customers = %d, want 1", page.Pagination.Total)
	}
}

func TestCustomerVisibility(t *testing.T) {
	tm := newTeam(t)
	svc := service.NewCustomerService(tm.store, nil, nil)

	aliceCust := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	bobCust := testutil.SeedCustomer(t, tm.store, tm.bob.ID, "Bob Co", "B1")
	imported := testutil.SeedImportedCustomer(t, tm.store, tm.admin.ID, "Imported Co", "I1")

	tests := []struct {
		name    string
		caller  policy.Principal
		visible []string
	}{
		{"admin", tm.admin, []string{"Alice Co", "Bob Co", "Imported Co"}},
		{"manager", tm.manager, []string{"Alice Co", "Imported Co"}},
		{"alice", tm.alice, []string{"Alice Co", "Imported Co"}},
		{"bob", tm.bob, []string{"Bob Co", "Imported Co"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListCustomers(ctx, tt.caller, models.CustomerFilter{})
			if err != nil {
				t.Fatal(err)
			}
			names := map[string]bool{}
			for _, c := range page.Items {
				names[c.Name] = true
			}
			if len(names) != len(tt.visible) || page.Pagination.Total != int64(len(tt.visible)) {
				t.Fatalf("visible = %v (total %d), want %v", names, page.Pagination.Total, tt.visible)
			}
			for _, n := range tt.visible {
				if !names[n] {
					t.Errorf("missing %s", n)
				}
			}
		})
	}

	if _, err := svc.GetCustomer(ctx, tm.bob, aliceCust.ID); api.KindOf(err) != api.KindAuthorization {
		t.Errorf("bob reading alice's customer: %v, want forbidden", err)
	}
	if _, err := svc.GetCustomer(ctx, tm.manager, aliceCust.ID); err != nil {
		t.Errorf("manager reading subordinate's customer: %v", err)
	}
	if _, err := svc.GetCustomer(ctx, tm.bob, imported.ID); err != nil {
		t.Errorf("imported customers are visible to everyone: %v", err)
	}
	if _, err := svc.GetCustomer(ctx, tm.alice, bobCust.ID); api.KindOf(err) != api.KindAuthorization {
		t.Errorf("alice reading bob's customer: %v, want forbidden", err)
	}
}

func TestUpdateCustomerNipNasConflict(t *testing.T) {
	tm := newTeam(t)
	svc := service.NewCustomerService(tm.store, nil, nil)

	mine := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Two", "A2")

	// Keeping the current value is not a conflict
	if _, err := svc.UpdateCustomer(ctx, tm.alice, mine.ID, customerRequest("Alice Renamed", "A1")); err != nil {
		t.Fatalf("update with same nipNas: %v", err)
	}
	_, err := svc.UpdateCustomer(ctx, tm.alice, mine.ID, customerRequest("Alice Renamed", "A2"))
	wantKind(t, err, api.KindConflict)
}

func TestDeleteCustomerCascades(t *testing.T) {
	tm := newTeam(t)
	customers := service.NewCustomerService(tm.store, nil, nil)
	reports := service.NewVisitReportService(tm.store, nil, nil)

	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	visit := time.Date(2024, 5, 1, 10, 0, 0, 0, wib)
	withReport := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, visit, 100)
	testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, visit, 50)

	if _, err := reports.CreateVisitReport(ctx, tm.alice, reportRequest(withReport.ID)); err != nil {
		t.Fatalf("CreateVisitReport: %v", err)
	}

	if _, err := customers.DeleteCustomer(ctx, tm.bob, c.ID); api.KindOf(err) != api.KindAuthorization {
		t.Fatalf("bob deleting alice's customer: %v, want forbidden", err)
	}

	res, err := customers.DeleteCustomer(ctx, tm.alice, c.ID)
	if err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if res.DeletedVisitPlans != 2 || res.DeletedVisitReports != 1 {
		t.Errorf("result = %+v, want 2 plans and 1 report", res)
	}
	if _, err := customers.GetCustomer(ctx, tm.admin, c.ID); api.KindOf(err) != api.KindNotFound {
		t.Errorf("customer still present: %v", err)
	}
}

func TestDeleteImportedCustomerAdminOnly(t *testing.T) {
	tm := newTeam(t)
	svc := service.NewCustomerService(tm.store, nil, nil)

	imported := testutil.SeedImportedCustomer(t, tm.store, tm.alice.ID, "Imported Co", "I1")

	_, err := svc.DeleteCustomer(ctx, tm.alice, imported.ID)
	wantKind(t, err, api.KindAuthorization)

	if _, err := svc.DeleteCustomer(ctx, tm.admin, imported.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
