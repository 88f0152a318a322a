package handler

import (
	"net/http"
	"time"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// DashboardHandler serves aggregated figures
type DashboardHandler struct {
	dash *service.DashboardService
	rs   *api.Responder
	loc  *time.Location
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dash *service.DashboardService, rs *api.Responder, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardHandler{dash: dash, rs: rs, loc: loc}
}

func (h *DashboardHandler) parseFilter(r *http.Request) (models.DashboardFilter, error) {
	var f models.DashboardFilter
	var err error

	if f.StartDate, err = queryDate(r, "startDate", h.loc, false); err != nil {
		return f, err
	}
	if f.EndDate, err = queryDate(r, "endDate", h.loc, true); err != nil {
		return f, err
	}
	f.UserID, err = queryUUID(r, "userId")
	return f, err
}

// Summary handles GET /dashboard/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	f, err := h.parseFilter(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	overview, err := h.dash.Summary(r.Context(), p, f)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, overview)
}

// Statistics handles GET /dashboard/statistics
func (h *DashboardHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	f, err := h.parseFilter(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	stats, err := h.dash.Statistics(r.Context(), p, f)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, stats)
}

// Revenue handles GET /dashboard/revenue
func (h *DashboardHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	f, err := h.parseFilter(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	revenue, err := h.dash.Revenue(r.Context(), p, f)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, revenue)
}
