package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/testutil"
)

var wib = time.FixedZone("WIB", 7*60*60)

// team is an admin, a manager with one report (alice) and an unrelated user (bob)
type team struct {
	store   *testutil.MemStore
	sent    *testutil.Recorder
	admin   policy.Principal
	manager policy.Principal
	alice   policy.Principal
	bob     policy.Principal
}

func newTeam(t *testing.T) *team {
	t.Helper()

	store := testutil.NewMemStore()
	admin := testutil.SeedUser(t, store, "admin", models.RoleAdmin, nil)
	manager := testutil.SeedUser(t, store, "manager", models.RoleManager, nil)
	alice := testutil.SeedUser(t, store, "alice", models.RoleUser, &manager.ID)
	bob := testutil.SeedUser(t, store, "bob", models.RoleUser, nil)

	return &team{
		store:   store,
		sent:    &testutil.Recorder{},
		admin:   admin,
		manager: manager,
		alice:   alice,
		bob:     bob,
	}
}

func (tm *team) notifier() *service.Notifier {
	return service.NewNotifier(tm.sent, tm.store.Users(), nil)
}

func wantKind(t *testing.T, err error, kind api.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	if got := api.KindOf(err); got != kind {
		t.Fatalf("error kind = %d (%v), want %d", got, err, kind)
	}
}

func ids[T any](items []T, id func(T) uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		out[id(it)] = true
	}
	return out
}

var ctx = context.Background()
