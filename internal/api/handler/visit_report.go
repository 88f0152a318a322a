package handler

import (
	"net/http"
	"strings"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// VisitReportHandler handles visit report requests
type VisitReportHandler struct {
	reports *service.VisitReportService
	rs      *api.Responder
}

// NewVisitReportHandler creates a new visit report handler
func NewVisitReportHandler(reports *service.VisitReportService, rs *api.Responder) *VisitReportHandler {
	return &VisitReportHandler{reports: reports, rs: rs}
}

// List handles GET /visit-reports
func (h *VisitReportHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	page, err := queryPage(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	filter := models.VisitReportFilter{
		StatusRealisasi: models.RealizationStatus(queryUpper(r, "statusRealisasi")),
		HasilVisit:      strings.TrimSpace(r.URL.Query().Get("hasilVisit")),
		Category:        models.VisitCategory(queryUpper(r, "category")),
		Page:            page,
	}

	result, err := h.reports.ListVisitReports(r.Context(), p, filter)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Paged(w, result.Items, result.Pagination)
}

// Get handles GET /visit-reports/{id}
func (h *VisitReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "visit report")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	report, err := h.reports.GetVisitReport(r.Context(), p, id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, report)
}

// Create handles POST /visit-reports
func (h *VisitReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	var req models.VisitReportRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	report, err := h.reports.CreateVisitReport(r.Context(), p, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Created(w, "Visit report created successfully", report)
}

// Update handles PUT /visit-reports/{id}
func (h *VisitReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "visit report")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	var req models.VisitReportUpdateRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	report, err := h.reports.UpdateVisitReport(r.Context(), p, id, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{Success: true, Message: "Visit report updated successfully", Data: report})
}

// Delete handles DELETE /visit-reports/{id}
func (h *VisitReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "visit report")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	if err := h.reports.DeleteVisitReport(r.Context(), p, id); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Message(w, "Visit report deleted successfully")
}
