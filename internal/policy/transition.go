package policy

import (
	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/models"
)

// PlanStatusForReport derives a plan's status from its report.
// A report that was not realized cancels the plan; anything else completes it.
// forceComplete completes a plan that is still PLANNED whatever the outcome.
func PlanStatusForReport(realization models.RealizationStatus, forceComplete bool, current models.VisitStatus) models.VisitStatus {
	if forceComplete && current == models.VisitStatusPlanned {
		return models.VisitStatusCompleted
	}
	if realization == models.NotRealized {
		return models.VisitStatusCancelled
	}
	return models.VisitStatusCompleted
}

// PlanStatusAfterReportDelete is the status a plan returns to once its report is gone
func PlanStatusAfterReportDelete() models.VisitStatus {
	return models.VisitStatusPlanned
}

// CanWriteReport reports whether p may create or update the report of a plan owned by ownerID.
// Visibility is checked separately.
func CanWriteReport(p Principal, ownerID uuid.UUID) bool {
	return p.IsAdmin() || p.Owns(ownerID)
}

// CanDeleteReport reports whether p may delete a visit report
func CanDeleteReport(p Principal) bool {
	return p.IsAdmin()
}
