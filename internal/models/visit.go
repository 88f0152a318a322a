package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VisitStatus represents the status of a visit plan
type VisitStatus string

const (
	VisitStatusPlanned   VisitStatus = "PLANNED"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
)

// Valid reports whether s is a known visit status.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitStatusPlanned, VisitStatusCompleted, VisitStatusCancelled:
		return true
	}
	return false
}

// VisitCategory tags a visit as new business (hunting) or an existing account (farming)
type VisitCategory string

const (
	CategoryHunting VisitCategory = "HUNTING"
	CategoryFarming VisitCategory = "FARMING"
)

// RealizationStatus is the recorded real-world outcome of a planned visit
type RealizationStatus string

const (
	Realized    RealizationStatus = "TEREALISASI"
	NotRealized RealizationStatus = "TIDAK_TEREALISASI"
)

// PICFollowUp names the role responsible for following up a visit
type PICFollowUp string

const (
	PICManager       PICFollowUp = "MANAGER"
	PICOfficer       PICFollowUp = "OFFICER"
	PICSalesEngineer PICFollowUp = "SALES_ENGINEER"
	PICSupportTeam   PICFollowUp = "SUPPORT_TIM"
)

// VisitPlan represents a planned sales visit
type VisitPlan struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	UserID            uuid.UUID       `db:"user_id" json:"userId"`
	CustomerID        uuid.UUID       `db:"customer_id" json:"customerId"`
	VisitDate         time.Time       `db:"visit_date" json:"tanggalVisit"`
	Purpose           string          `db:"purpose" json:"tujuanVisit"`
	DiscussionProgram string          `db:"discussion_program" json:"programPembahasan"`
	RevenueTarget     decimal.Decimal `db:"revenue_target" json:"revenueTarget"`
	Status            VisitStatus     `db:"status" json:"status"`
	Category          *VisitCategory  `db:"category" json:"kategori"`
	// IsEditable is a cached hint refreshed on every edit. Authorization never reads it.
	IsEditable bool      `db:"is_editable" json:"isEditable"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	User     *UserRef     `db:"-" json:"user,omitempty"`
	Customer *CustomerRef `db:"-" json:"customer,omitempty"`
	Report   *VisitReport `db:"-" json:"report,omitempty"`
	Access   *PlanAccess  `db:"-" json:"access,omitempty"`
}

// PlanAccess is computed per request for the calling principal
type PlanAccess struct {
	Editable  bool       `json:"editable"`
	Deletable bool       `json:"deletable"`
	LockAt    *time.Time `json:"lockAt,omitempty"`
}

// VisitReport represents the outcome of a visit plan. One-to-one with VisitPlan.
type VisitReport struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	VisitPlanID     uuid.UUID           `db:"visit_plan_id" json:"visitPlanId"`
	StatusRealisasi RealizationStatus   `db:"status_realisasi" json:"statusRealisasi"`
	HasilVisit      *string             `db:"hasil_visit" json:"hasilVisit"`
	Category        *VisitCategory      `db:"category" json:"kategori"`
	RevenueActual   decimal.NullDecimal `db:"revenue_actual" json:"revenueActual"`
	PICFollowUp     PICFollowUp         `db:"pic_follow_up" json:"pic"`
	CPPIC           string              `db:"cp_pic" json:"cpPic"`
	Notes           *string             `db:"notes" json:"catatan"`
	RealizedAt      time.Time           `db:"realized_at" json:"tanggalRealisasi"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	VisitPlan *VisitPlan `db:"-" json:"visitPlan,omitempty"`
}

// VisitPlanRequest is used for visit plan creation
type VisitPlanRequest struct {
	CustomerID        uuid.UUID       `json:"customerId" validate:"required"`
	VisitDate         time.Time       `json:"tanggalVisit" validate:"required"`
	Purpose           string          `json:"tujuanVisit" validate:"required"`
	DiscussionProgram string          `json:"programPembahasan" validate:"required"`
	RevenueTarget     decimal.Decimal `json:"revenueTarget"`
	Category          *VisitCategory  `json:"kategori" validate:"omitempty,oneof=HUNTING FARMING"`
}

// VisitPlanUpdateRequest is used for partial visit plan updates. Nil fields are left unchanged.
type VisitPlanUpdateRequest struct {
	CustomerID        *uuid.UUID       `json:"customerId"`
	VisitDate         *time.Time       `json:"tanggalVisit"`
	Purpose           *string          `json:"tujuanVisit" validate:"omitempty,min=1"`
	DiscussionProgram *string          `json:"programPembahasan" validate:"omitempty,min=1"`
	RevenueTarget     *decimal.Decimal `json:"revenueTarget"`
	Category          *VisitCategory   `json:"kategori" validate:"omitempty,oneof=HUNTING FARMING"`
	Status            *VisitStatus     `json:"status" validate:"omitempty,oneof=PLANNED COMPLETED CANCELLED"`
}

// VisitPlanFilter narrows a visit plan listing
type VisitPlanFilter struct {
	Status     VisitStatus
	CustomerID *uuid.UUID
	Category   VisitCategory
	StartDate  *time.Time
	EndDate    *time.Time
	Page       Page

	// RecentFirst orders by creation time instead of visit date
	RecentFirst bool
}

// VisitReportRequest is used for visit report creation
type VisitReportRequest struct {
	VisitPlanID     uuid.UUID           `json:"visitPlanId" validate:"required"`
	StatusRealisasi RealizationStatus   `json:"statusRealisasi" validate:"omitempty,oneof=TEREALISASI TIDAK_TEREALISASI"`
	HasilVisit      *string             `json:"hasilVisit" validate:"omitempty,max=200"`
	Category        *VisitCategory      `json:"kategori" validate:"omitempty,oneof=HUNTING FARMING"`
	RevenueActual   decimal.NullDecimal `json:"revenueActual"`
	PICFollowUp     PICFollowUp         `json:"pic" validate:"required,oneof=MANAGER OFFICER SALES_ENGINEER SUPPORT_TIM"`
	CPPIC           string              `json:"cpPic" validate:"required,max=100"`
	Notes           *string             `json:"catatan"`
	// ForceComplete marks a still-PLANNED plan COMPLETED regardless of the realization outcome
	ForceComplete bool `json:"updateVisitPlanStatus"`
}

// VisitReportUpdateRequest is used for partial visit report updates. Nil fields are left unchanged.
type VisitReportUpdateRequest struct {
	StatusRealisasi *RealizationStatus `json:"statusRealisasi" validate:"omitempty,oneof=TEREALISASI TIDAK_TEREALISASI"`
	HasilVisit      *string            `json:"hasilVisit" validate:"omitempty,max=200"`
	Category        *VisitCategory     `json:"kategori" validate:"omitempty,oneof=HUNTING FARMING"`
	RevenueActual   *decimal.Decimal   `json:"revenueActual"`
	PICFollowUp     *PICFollowUp       `json:"pic" validate:"omitempty,oneof=MANAGER OFFICER SALES_ENGINEER SUPPORT_TIM"`
	CPPIC           *string            `json:"cpPic" validate:"omitempty,min=1,max=100"`
	Notes           *string            `json:"catatan"`
}

// VisitReportFilter narrows a visit report listing
type VisitReportFilter struct {
	StatusRealisasi RealizationStatus
	HasilVisit      string
	Category        VisitCategory
	Page            Page
}
