package policy

import (
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
)

// DefaultEditWindow is how long after the end of the visit day a plan stays editable
const DefaultEditWindow = 48 * time.Hour

// Editability decides whether a visit plan may still be changed.
// The window is measured from the end of the visit day in Location.
type Editability struct {
	Location *time.Location
	Window   time.Duration
}

// NewEditability returns a policy for loc, falling back to UTC and the default window
func NewEditability(loc *time.Location, window time.Duration) Editability {
	if loc == nil {
		loc = time.UTC
	}
	if window <= 0 {
		window = DefaultEditWindow
	}
	return Editability{Location: loc, Window: window}
}

// LockInstant is the last moment a non-admin may edit a plan visiting on visitDate
func (e Editability) LockInstant(visitDate time.Time) time.Time {
	return endOfDay(visitDate, e.location()).Add(e.window())
}

// IsEditable reports whether a plan dated visitDate may be edited at now.
// Admins are never locked out.
func (e Editability) IsEditable(visitDate, now time.Time, role models.UserRole) bool {
	if role == models.RoleAdmin {
		return true
	}
	return !now.After(e.LockInstant(visitDate))
}

// CheckUpdate returns nil when p may update a plan it can see
func (e Editability) CheckUpdate(p Principal, plan *models.VisitPlan, now time.Time) error {
	if p.IsAdmin() {
		return nil
	}
	if !p.Owns(plan.UserID) {
		return ErrNotOwner
	}
	if !e.IsEditable(plan.VisitDate, now, p.Role) {
		return ErrEditLocked
	}
	return nil
}

// Access computes the per-principal access block reported with a plan
func (e Editability) Access(p Principal, plan *models.VisitPlan, now time.Time) *models.PlanAccess {
	access := &models.PlanAccess{
		Editable:  e.CheckUpdate(p, plan, now) == nil,
		Deletable: CanDeletePlan(p, plan.UserID),
	}
	if !p.IsAdmin() {
		lock := e.LockInstant(plan.VisitDate)
		access.LockAt = &lock
	}
	return access
}

// CanDeletePlan reports whether p may delete a plan owned by ownerID. There is no time window.
func CanDeletePlan(p Principal, ownerID uuid.UUID) bool {
	return p.IsAdmin() || p.Owns(ownerID)
}

func (e Editability) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

func (e Editability) window() time.Duration {
	if e.Window <= 0 {
		return DefaultEditWindow
	}
	return e.Window
}

// endOfDay returns the last nanosecond of t's calendar day in loc
func endOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
}
