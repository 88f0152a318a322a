package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/websockets"
	"go.uber.org/zap"
)

// Publisher pushes encoded events to connected clients
type Publisher interface {
	Publish(userIDs []string, role models.UserRole, message []byte)
}

// Notifier fans record changes out to the record owner, the owner's manager and admins.
// A nil Notifier drops everything.
type Notifier struct {
	pub   Publisher
	users UserStore
	log   *zap.Logger
	now   func() time.Time
}

// NewNotifier creates a notifier publishing through pub
func NewNotifier(pub Publisher, users UserStore, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{pub: pub, users: users, log: log, now: time.Now}
}

// Notify publishes an event about a record owned by ownerID
func (n *Notifier) Notify(ctx context.Context, typ websockets.MessageType, ownerID uuid.UUID, data any) {
	if n == nil || n.pub == nil {
		return
	}

	message, err := json.Marshal(websockets.Event{Type: typ, Data: data, At: n.now()})
	if err != nil {
		n.log.Error("failed to encode notification", zap.String("type", string(typ)), zap.Error(err))
		return
	}

	recipients := []string{ownerID.String()}
	if owner, err := n.users.GetByID(ctx, ownerID); err == nil {
		if owner.ManagerID != nil {
			recipients = append(recipients, owner.ManagerID.String())
		}
	} else {
		n.log.Debug("notification owner lookup failed", zap.String("user_id", ownerID.String()), zap.Error(err))
	}

	n.pub.Publish(recipients, models.RoleAdmin, message)
}
