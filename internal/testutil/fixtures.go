package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Password is the plain-text password of every seeded user
const Password = "secret123"

var (
	hashOnce sync.Once
	hash     string
)

func passwordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		hash = string(b)
	})
	return hash
}

// SeedUser stores a user and returns the principal it resolves to
func SeedUser(t *testing.T, store *MemStore, username string, role models.UserRole, managerID *uuid.UUID) policy.Principal {
	t.Helper()

	u, err := store.Users().Create(context.Background(), models.User{
		Username:     username,
		PasswordHash: passwordHash(t),
		FullName:     username,
		Email:        username + "@example.com",
		Role:         role,
		ManagerID:    managerID,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return policy.PrincipalFromUser(u)
}

// SeedCustomer stores a manually created customer owned by createdBy
func SeedCustomer(t *testing.T, store *MemStore, createdBy uuid.UUID, name, nipNas string) *models.Customer {
	t.Helper()
	return seedCustomer(t, store, createdBy, name, nipNas, models.CustomerSourceManual)
}

// SeedImportedCustomer stores a customer that came from a spreadsheet import
func SeedImportedCustomer(t *testing.T, store *MemStore, createdBy uuid.UUID, name, nipNas string) *models.Customer {
	t.Helper()
	return seedCustomer(t, store, createdBy, name, nipNas, models.CustomerSourceImport)
}

func seedCustomer(t *testing.T, store *MemStore, createdBy uuid.UUID, name, nipNas string, source models.CustomerSource) *models.Customer {
	t.Helper()

	c := models.Customer{
		Name:      name,
		Address:   "Jl. Sudirman 1",
		Phone:     "021555",
		Status:    models.CustomerStatusActive,
		Source:    source,
		CreatedBy: createdBy,
	}
	if nipNas != "" {
		c.NipNas = &nipNas
	}

	created, err := store.Customers().Create(context.Background(), c)
	if err != nil {
		t.Fatalf("seed customer %s: %v", name, err)
	}
	return created
}

// SeedPlan stores a PLANNED visit plan with the given revenue target
func SeedPlan(t *testing.T, store *MemStore, owner, customerID uuid.UUID, visitDate time.Time, target int64) *models.VisitPlan {
	t.Helper()

	plan, err := store.VisitPlans().Create(context.Background(), models.VisitPlan{
		UserID:            owner,
		CustomerID:        customerID,
		VisitDate:         visitDate,
		Purpose:           "Quarterly review",
		DiscussionProgram: "Renewal",
		RevenueTarget:     decimal.NewFromInt(target),
		Status:            models.VisitStatusPlanned,
		IsEditable:        true,
	})
	if err != nil {
		t.Fatalf("seed visit plan: %v", err)
	}
	return plan
}

// Publication is one call recorded by Recorder
type Publication struct {
	UserIDs []string
	Role    models.UserRole
	Message []byte
}

// Recorder is a Publisher that keeps everything it is given
type Recorder struct {
	mu   sync.Mutex
	sent []Publication
}

func (r *Recorder) Publish(userIDs []string, role models.UserRole, message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Publication{UserIDs: userIDs, Role: role, Message: message})
}

// Sent returns a copy of the recorded publications
func (r *Recorder) Sent() []Publication {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Publication(nil), r.sent...)
}
