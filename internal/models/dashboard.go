package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardFilter narrows dashboard aggregation
type DashboardFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	// UserID replaces the computed visibility scope with a single user
	UserID *uuid.UUID
}

// StatusCounts holds visit plan counts per status
type StatusCounts struct {
	Total     int64 `db:"total" json:"totalVisitPlans"`
	Planned   int64 `db:"planned" json:"plannedVisits"`
	Completed int64 `db:"completed" json:"completedVisits"`
	Cancelled int64 `db:"cancelled" json:"cancelledVisits"`
}

// RevenueTotals holds summed targets and actuals
type RevenueTotals struct {
	Target decimal.Decimal `db:"target"`
	Actual decimal.Decimal `db:"actual"`
}

// DashboardSummary is the dashboard headline block
type DashboardSummary struct {
	TotalCustomers int64 `json:"totalCustomers"`
	StatusCounts
	TotalReports       int64           `json:"totalReports"`
	TotalRevenueTarget decimal.Decimal `json:"totalRevenueTarget"`
	TotalRevenueActual decimal.Decimal `json:"totalRevenueActual"`
	// RevenueAchievement is actual/target as a percentage rounded to two places
	RevenueAchievement float64 `json:"revenueAchievement"`
}

// DashboardOverview is the payload of the summary endpoint
type DashboardOverview struct {
	Summary      DashboardSummary `json:"summary"`
	RecentVisits []VisitPlan      `json:"recentVisits"`
}

// GroupCount is a count for one value of a grouping column
type GroupCount struct {
	Key   string `db:"key" json:"key"`
	Count int64  `db:"count" json:"count"`
}

// VisitStatistics breaks plans down by status and reports by outcome
type VisitStatistics struct {
	VisitsByStatus     []GroupCount `json:"visitsByStatus"`
	ReportsByHasil     []GroupCount `json:"reportsByHasil"`
	ReportsByCategory  []GroupCount `json:"reportsByCategory"`
	ReportsByRealisasi []GroupCount `json:"reportsByRealisasi"`
}

// RevenueAnalytics compares target and actual revenue
type RevenueAnalytics struct {
	TotalTarget decimal.Decimal `json:"totalTarget"`
	TotalActual decimal.Decimal `json:"totalActual"`
	Achievement float64         `json:"achievement"`
	Gap         decimal.Decimal `json:"gap"`
}
