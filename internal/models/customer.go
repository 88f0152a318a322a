package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerStatus represents whether a customer account is active
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "AKTIF"
	CustomerStatusInactive CustomerStatus = "TIDAK_AKTIF"
)

// CustomerSource records how a customer entered the system
type CustomerSource string

const (
	CustomerSourceManual CustomerSource = "MANUAL"
	CustomerSourceImport CustomerSource = "IMPORT"
)

type Customer struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Name      string         `db:"name" json:"namaCustomer"`
	NipNas    *string        `db:"nip_nas" json:"nipNas"`
	Address   string         `db:"address" json:"alamat"`
	Phone     string         `db:"phone" json:"telepon"`
	Email     string         `db:"email" json:"email"`
	PICName   string         `db:"pic_name" json:"picName"`
	Status    CustomerStatus `db:"status" json:"status"`
	Source    CustomerSource `db:"source" json:"source"`
	CreatedBy uuid.UUID      `db:"created_by" json:"createdBy"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	Creator *UserRef `db:"-" json:"creator,omitempty"`
}

// CustomerRef is the short form of a customer embedded in visit plans.
type CustomerRef struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"namaCustomer"`
}

// CustomerRequest is used for customer creation/update requests
type CustomerRequest struct {
	Name    string         `json:"namaCustomer" validate:"required,max=200"`
	NipNas  *string        `json:"nipNas" validate:"omitempty,max=50"`
	Address string         `json:"alamat" validate:"required"`
	Phone   string         `json:"telepon" validate:"required,max=50"`
	Email   string         `json:"email" validate:"omitempty,email"`
	PICName string         `json:"picName" validate:"max=100"`
	Status  CustomerStatus `json:"status" validate:"omitempty,oneof=AKTIF TIDAK_AKTIF"`
}

// CustomerFilter narrows a customer listing
type CustomerFilter struct {
	Search string
	Status CustomerStatus
	Source CustomerSource
	Page   Page
	// Ascending orders by creation time oldest first
	Ascending bool
}

// CustomerDeleteResult reports the dependent rows removed with a customer
type CustomerDeleteResult struct {
	DeletedVisitPlans   int64 `json:"deletedVisitPlans"`
	DeletedVisitReports int64 `json:"deletedVisitReports"`
}

// ImportRowError describes why a single spreadsheet row was rejected
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the outcome of a bulk customer import
type ImportResult struct {
	Inserted int              `json:"inserted"`
	Errors   []ImportRowError `json:"errors"`
}
