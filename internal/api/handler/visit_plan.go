package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// VisitPlanHandler handles visit plan requests
type VisitPlanHandler struct {
	plans *service.VisitPlanService
	rs    *api.Responder
	loc   *time.Location
}

// NewVisitPlanHandler creates a new visit plan handler. Date-only query values are read in loc.
func NewVisitPlanHandler(plans *service.VisitPlanService, rs *api.Responder, loc *time.Location) *VisitPlanHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &VisitPlanHandler{plans: plans, rs: rs, loc: loc}
}

// List handles GET /visit-plans
func (h *VisitPlanHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	filter, userID, err := h.parseFilter(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	result, err := h.plans.ListVisitPlans(r.Context(), p, filter, userID)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Paged(w, result.Items, result.Pagination)
}

func (h *VisitPlanHandler) parseFilter(r *http.Request) (models.VisitPlanFilter, *uuid.UUID, error) {
	var filter models.VisitPlanFilter
	var err error

	if filter.Page, err = queryPage(r); err != nil {
		return filter, nil, err
	}
	if filter.CustomerID, err = queryUUID(r, "customerId"); err != nil {
		return filter, nil, err
	}
	if filter.StartDate, err = queryDate(r, "startDate", h.loc, false); err != nil {
		return filter, nil, err
	}
	if filter.EndDate, err = queryDate(r, "endDate", h.loc, true); err != nil {
		return filter, nil, err
	}

	filter.Status = models.VisitStatus(queryUpper(r, "status"))
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, nil, api.Validation("Invalid status")
	}
	filter.Category = models.VisitCategory(queryUpper(r, "category"))

	userID, err := queryUUID(r, "userId")
	return filter, userID, err
}

// Get handles GET /visit-plans/{id}
func (h *VisitPlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "visit plan")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	plan, err := h.plans.GetVisitPlan(r.Context(), p, id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, plan)
}

// Create handles POST /visit-plans
func (h *VisitPlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	var req models.VisitPlanRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	plan, err := h.plans.CreateVisitPlan(r.Context(), p, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Created(w, "Visit plan created successfully", plan)
}

// Update handles PUT /visit-plans/{id}
func (h *VisitPlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "visit plan")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	var req models.VisitPlanUpdateRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	plan, err := h.plans.UpdateVisitPlan(r.Context(), p, id, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{Success: true, Message: "Visit plan updated successfully", Data: plan})
}

// Delete handles DELETE /visit-plans/{id}
func (h *VisitPlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "visit plan")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	if err := h.plans.DeleteVisitPlan(r.Context(), p, id); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Message(w, "Visit plan deleted successfully")
}
