package service_test

import (
	"testing"
	"time"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestDashboardRevenue(t *testing.T) {
	tests := []struct {
		name    string
		targets []int64
		actuals []int64
		achieve float64
		gap     int64
	}{
		{"partial", []int64{1000}, []int64{800}, 80, 200},
		{"exceeded", []int64{300}, []int64{450}, 150, -150},
		{"thirds", []int64{300}, []int64{100}, 33.33, 200},
		{"no target", []int64{0}, []int64{500}, 0, -500},
		{"nothing", nil, nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := newTeam(t)
			c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
			reports := service.NewVisitReportService(tm.store, nil, nil)

			for i, target := range tt.targets {
				plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), target)
				req := reportRequest(plan.ID)
				req.RevenueActual = decimal.NewNullDecimal(decimal.NewFromInt(tt.actuals[i]))
				if _, err := reports.CreateVisitReport(ctx, tm.alice, req); err != nil {
					t.Fatal(err)
				}
			}

			svc := service.NewDashboardService(tm.store, nil)
			got, err := svc.Revenue(ctx, tm.alice, models.DashboardFilter{})
			if err != nil {
				t.Fatalf("Revenue: %v", err)
			}
			if got.Achievement != tt.achieve {
				t.Errorf("achievement = %v, want %v", got.Achievement, tt.achieve)
			}
			if !got.Gap.Equal(decimal.NewFromInt(tt.gap)) {
				t.Errorf("gap = %s, want %d", got.Gap, tt.gap)
			}
		})
	}
}

func TestDashboardSummaryScope(t *testing.T) {
	tm := newTeam(t)
	aliceCust := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	bobCust := testutil.SeedCustomer(t, tm.store, tm.bob.ID, "Bob Co", "B1")
	testutil.SeedImportedCustomer(t, tm.store, tm.admin.ID, "Imported Co", "I1")

	day := time.Date(2024, 6, 1, 10, 0, 0, 0, wib)
	for i := 0; i < 6; i++ {
		testutil.SeedPlan(t, tm.store, tm.alice.ID, aliceCust.ID, day.AddDate(0, 0, i), 100)
	}
	bobPlan := testutil.SeedPlan(t, tm.store, tm.bob.ID, bobCust.ID, day, 100)

	reports := service.NewVisitReportService(tm.store, nil, nil)
	if _, err := reports.CreateVisitReport(ctx, tm.bob, reportRequest(bobPlan.ID)); err != nil {
		t.Fatal(err)
	}

	svc := service.NewDashboardService(tm.store, nil)

	got, err := svc.Summary(ctx, tm.manager, models.DashboardFilter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	s := got.Summary
	if s.TotalCustomers != 2 {
		t.Errorf("customers = %d, want 2 (own scope plus imported)", s.TotalCustomers)
	}
	if s.Total != 6 || s.Planned != 6 || s.Completed != 0 || s.TotalReports != 0 {
		t.Errorf("counts = %+v reports %d", s.StatusCounts, s.TotalReports)
	}
	if len(got.RecentVisits) != 5 {
		t.Errorf("recent visits = %d, want 5", len(got.RecentVisits))
	}

	got, err = svc.Summary(ctx, tm.admin, models.DashboardFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.Total != 7 || got.Summary.Completed != 1 || got.Summary.TotalReports != 1 {
		t.Errorf("admin counts = %+v", got.Summary)
	}
	if got.Summary.TotalCustomers != 3 {
		t.Errorf("admin customers = %d, want 3", got.Summary.TotalCustomers)
	}

	// Date range
	start := day.AddDate(0, 0, 2)
	end := day.AddDate(0, 0, 3)
	got, err = svc.Summary(ctx, tm.alice, models.DashboardFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.Total != 2 {
		t.Errorf("ranged total = %d, want 2", got.Summary.Total)
	}

	_, err = svc.Summary(ctx, tm.manager, models.DashboardFilter{UserID: &tm.bob.ID})
	wantKind(t, err, api.KindAuthorization)
}

func TestDashboardStatistics(t *testing.T) {
	tm := newTeam(t)
	c := testutil.SeedCustomer(t, tm.store, tm.alice.ID, "Alice Co", "A1")
	reports := service.NewVisitReportService(tm.store, nil, nil)

	farming := models.CategoryFarming
	for i, realization := range []models.RealizationStatus{models.Realized, models.Realized, models.NotRealized} {
		plan := testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)
		req := reportRequest(plan.ID)
		req.StatusRealisasi = realization
		if i == 0 {
			req.Category = &farming
		}
		if _, err := reports.CreateVisitReport(ctx, tm.alice, req); err != nil {
			t.Fatal(err)
		}
	}
	testutil.SeedPlan(t, tm.store, tm.alice.ID, c.ID, time.Now(), 100)

	svc := service.NewDashboardService(tm.store, nil)
	stats, err := svc.Statistics(ctx, tm.alice, models.DashboardFilter{})
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	wantStatus := []models.GroupCount{
		{Key: "PLANNED", Count: 1},
		{Key: "COMPLETED", Count: 2},
		{Key: "CANCELLED", Count: 1},
	}
	if len(stats.VisitsByStatus) != len(wantStatus) {
		t.Fatalf("visitsByStatus = %+v", stats.VisitsByStatus)
	}
	for i := range wantStatus {
		if stats.VisitsByStatus[i] != wantStatus[i] {
			t.Errorf("visitsByStatus[%d] = %+v, want %+v", i, stats.VisitsByStatus[i], wantStatus[i])
		}
	}

	if len(stats.ReportsByRealisasi) != 2 || stats.ReportsByRealisasi[0] != (models.GroupCount{Key: "TEREALISASI", Count: 2}) {
		t.Errorf("reportsByRealisasi = %+v", stats.ReportsByRealisasi)
	}
	if len(stats.ReportsByHasil) != 1 || stats.ReportsByHasil[0] != (models.GroupCount{Key: "DEAL", Count: 3}) {
		t.Errorf("reportsByHasil = %+v", stats.ReportsByHasil)
	}
	if len(stats.ReportsByCategory) != 2 {
		t.Errorf("reportsByCategory = %+v", stats.ReportsByCategory)
	}
}
