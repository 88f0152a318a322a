package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/testutil"
	"github.com/shopspring/decimal"
)

func reportRequest(planID uuid.UUID) models.VisitReportRequest {
	hasil := "deal"
	return models.VisitReportRequest{
		VisitPlanID:   planID,
		HasilVisit:    &hasil,
		RevenueActual: decimal.NewNullDecimal(decimal.NewFromInt(80)),
		PICFollowUp:   models.PICSalesEngineer,
		CPPIC:         "Budi",
	}
}

func planStatus(t *testing.T, tm *team, id uuid.UUID) models.VisitStatus {
	t.Helper()
	plan, err := tm.store.VisitPlans().GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	return plan.Status
}

func TestCreateVisitReportCompletesPlan(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
	svc := service.NewVisitReportService(tm.store, tm.notifier(), nil)

	report, err := svc.CreateVisitReport(ctx, tm.alice, reportRequest(plan.ID))
	if err != nil {
		t.Fatalf("CreateVisitReport: %v", err)
	}
	if report.StatusRealisasi != models.Realized {
		t.Errorf("realization = %s, want default TEREALISASI", report.StatusRealisasi)
	}
	if report.HasilVisit == nil || *report.HasilVisit != "DEAL" {
		t.Errorf("hasil = %v, want upper-cased DEAL", report.HasilVisit)
	}
	if report.VisitPlan == nil || report.VisitPlan.Status != models.VisitStatusCompleted {
		t.Errorf("embedded plan not refreshed: %+v", report.VisitPlan)
	}
	if got := planStatus(t, tm, plan.ID); got != models.VisitStatusCompleted {
		t.Errorf("plan status = %s, want COMPLETED", got)
	}
}

func TestCreateVisitReportNotRealizedCancels(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	svc := service.NewVisitReportService(tm.store, nil, nil)

	tests := []struct {
		name  string
		force bool
		want  models.VisitStatus
	}{
		{"not realized", false, models.VisitStatusCancelled},
		{"not realized but forced", true, models.VisitStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
			req := reportRequest(plan.ID)
			req.StatusRealisasi = models.NotRealized
			req.ForceComplete = tt.force

			if _, err := svc.CreateVisitReport(ctx, tm.alice, req); err != nil {
				t.Fatalf("CreateVisitReport: %v", err)
			}
			if got := planStatus(t, tm, plan.ID); got != tt.want {
				t.Errorf("plan status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCreateVisitReportDuplicate(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
	svc := service.NewVisitReportService(tm.store, nil, nil)

	if _, err := svc.CreateVisitReport(ctx, tm.alice, reportRequest(plan.ID)); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateVisitReport(ctx, tm.alice, reportRequest(plan.ID))
	wantKind(t, err, api.KindConflict)
}

func TestCreateVisitReportPermissions(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
	svc := service.NewVisitReportService(tm.store, nil, nil)

	// The manager can see the plan but does not own it
	_, err := svc.CreateVisitReport(ctx, tm.manager, reportRequest(plan.ID))
	wantKind(t, err, api.KindAuthorization)

	_, err = svc.CreateVisitReport(ctx, tm.bob, reportRequest(plan.ID))
	wantKind(t, err, api.KindAuthorization)

	_, err = svc.CreateVisitReport(ctx, tm.alice, reportRequest(uuid.New()))
	wantKind(t, err, api.KindNotFound)

	if got := planStatus(t, tm, plan.ID); got != models.VisitStatusPlanned {
		t.Errorf("plan status = %s after rejected writes", got)
	}
}

func TestDeleteVisitReportResetsPlan(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
	svc := service.NewVisitReportService(tm.store, nil, nil)

	req := reportRequest(plan.ID)
	req.StatusRealisasi = models.NotRealized
	report, err := svc.CreateVisitReport(ctx, tm.alice, req)
	if err != nil {
		t.Fatal(err)
	}
	if got := planStatus(t, tm, plan.ID); got != models.VisitStatusCancelled {
		t.Fatalf("plan status = %s, want CANCELLED", got)
	}

	err = svc.DeleteVisitReport(ctx, tm.alice, report.ID)
	wantKind(t, err, api.KindAuthorization)

	if err := svc.DeleteVisitReport(ctx, tm.admin, report.ID); err != nil {
		t.Fatalf("DeleteVisitReport: %v", err)
	}
	if got := planStatus(t, tm, plan.ID); got != models.VisitStatusPlanned {
		t.Errorf("plan status = %s, want PLANNED", got)
	}

	// The plan accepts a new report afterwards
	if _, err := svc.CreateVisitReport(ctx, tm.alice, reportRequest(plan.ID)); err != nil {
		t.Fatalf("re-create: %v", err)
	}
	if got := planStatus(t, tm, plan.ID); got != models.VisitStatusCompleted {
		t.Errorf("plan status = %s, want COMPLETED", got)
	}
}

func TestUpdateVisitReportRederivesStatus(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
	svc := service.NewVisitReportService(tm.store, nil, nil)

	report, err := svc.CreateVisitReport(ctx, tm.alice, reportRequest(plan.ID))
	if err != nil {
		t.Fatal(err)
	}

	notRealized := models.NotRealized
	revenue := decimal.NewFromInt(0)
	updated, err := svc.UpdateVisitReport(ctx, tm.alice, report.ID, models.VisitReportUpdateRequest{
		StatusRealisasi: &notRealized,
		RevenueActual:   &revenue,
	})
	if err != nil {
		t.Fatalf("UpdateVisitReport: %v", err)
	}
	if !updated.RevenueActual.Valid || !updated.RevenueActual.Decimal.IsZero() {
		t.Errorf("revenueActual = %+v", updated.RevenueActual)
	}
	if got := planStatus(t, tm, plan.ID); got != models.VisitStatusCancelled {
		t.Errorf("plan status = %s, want CANCELLED", got)
	}

	_, err = svc.UpdateVisitReport(ctx, tm.bob, report.ID, models.VisitReportUpdateRequest{})
	wantKind(t, err, api.KindAuthorization)
}

func TestListVisitReportsScope(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedImportedCustomer(t, tm.store, tm.admin.ID, "Shared Co", "S1")
	svc := service.NewVisitReportService(tm.store, nil, nil)

	alicePlan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
	bobPlan := testutil.SeedPlan(t, tm.store, tm.bob.ID, c.ID, time.Now(), 100)
	if _, err := svc.CreateVisitReport(ctx, tm.alice, reportRequest(alicePlan.ID)); err != nil {
		t.Fatal(err)
	}
	bobReport, err := svc.CreateVisitReport(ctx, tm.bob, reportRequest(bobPlan.ID))
	if err != nil {
		t.Fatal(err)
	}

	page, err := svc.ListVisitReports(ctx, tm.manager, models.VisitReportFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Total != 1 || page.Items[0].VisitPlanID != alicePlan.ID {
		t.Errorf("manager sees %d reports", page.Pagination.Total)
	}

	_, err = svc.GetVisitReport(ctx, tm.manager, bobReport.ID)
	wantKind(t, err, api.KindAuthorization)

	page, err = svc.ListVisitReports(ctx, tm.admin, models.VisitReportFilter{})
	if err != nil || page.Pagination.Total != 2 {
		t.Errorf("admin sees %d reports, err %v", page.Pagination.Total, err)
	}
}
