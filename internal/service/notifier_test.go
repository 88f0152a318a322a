package service_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/websockets"
)

func TestNotifierRecipients(t *testing.T) {
	tm := newTeam(t)
	n := tm.notifier()

	n.Notify(ctx, websockets.TypeVisitPlanCreated, tm.alice.ID, map[string]string{"id": "p1"})
	n.Notify(ctx, websockets.TypeVisitPlanDeleted, tm.bob.ID, nil)
	n.Notify(ctx, websockets.TypeCustomerDeleted, uuid.New(), nil)

	sent := tm.sent.Sent()
	if len(sent) != 3 {
		t.Fatalf("publications = %d, want 3", len(sent))
	}

	want := [][]string{
		{tm.alice.ID.String(), tm.manager.ID.String()},
		{tm.bob.ID.String()},
		nil,
	}
	for i, w := range want {
		if w == nil {
			continue
		}
		got := sent[i].UserIDs
		if len(got) != len(w) {
			t.Errorf("publication %d recipients = %v, want %v", i, got, w)
			continue
		}
		for j := range w {
			if got[j] != w[j] {
				t.Errorf("publication %d recipient %d = %s, want %s", i, j, got[j], w[j])
			}
		}
		if sent[i].Role != models.RoleAdmin {
			t.Errorf("publication %d role = %s", i, sent[i].Role)
		}
	}
	// An unknown owner is still notified by id
	if len(sent[2].UserIDs) != 1 {
		t.Errorf("unknown owner recipients = %v", sent[2].UserIDs)
	}

	var event struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(sent[0].Message, &event); err != nil {
		t.Fatal(err)
	}
	if event.Type != "visit_plan.created" || event.Data["id"] != "p1" {
		t.Errorf("event = %+v", event)
	}
}

func TestNilNotifier(t *testing.T) {
	var n *service.Notifier
	n.Notify(ctx, websockets.TypeCustomerCreated, uuid.New(), nil)
}
