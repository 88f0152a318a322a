package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
)

// CustomerHandler handles customer requests and spreadsheet imports
type CustomerHandler struct {
	customers *service.CustomerService
	importer  *service.ImportService
	rs        *api.Responder
	maxUpload int64
}

// NewCustomerHandler creates a new customer handler. maxUpload caps import uploads in bytes.
func NewCustomerHandler(customers *service.CustomerService, importer *service.ImportService, rs *api.Responder, maxUpload int64) *CustomerHandler {
	return &CustomerHandler{customers: customers, importer: importer, rs: rs, maxUpload: maxUpload}
}

// List handles GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	page, err := queryPage(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	filter := models.CustomerFilter{
		Search:    strings.TrimSpace(r.URL.Query().Get("search")),
		Status:    models.CustomerStatus(queryUpper(r, "status")),
		Source:    models.CustomerSource(queryUpper(r, "source")),
		Page:      page,
		Ascending: strings.EqualFold(r.URL.Query().Get("order"), "asc"),
	}

	result, err := h.customers.ListCustomers(r.Context(), p, filter)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Paged(w, result.Items, result.Pagination)
}

// Get handles GET /customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "customer")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	customer, err := h.customers.GetCustomer(r.Context(), p, id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.OK(w, customer)
}

// Create handles POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	var req models.CustomerRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	customer, err := h.customers.CreateCustomer(r.Context(), p, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.Created(w, "Customer created successfully", customer)
}

// Update handles PUT /customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "customer")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	var req models.CustomerRequest
	if err := api.Decode(r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	customer, err := h.customers.UpdateCustomer(r.Context(), p, id, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{Success: true, Message: "Customer updated successfully", Data: customer})
}

// Delete handles DELETE /customers/{id}
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	id, err := pathID(r, "customer")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	result, err := h.customers.DeleteCustomer(r.Context(), p, id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, api.Envelope{Success: true, Message: "Customer deleted successfully", Data: result})
}

type importResponse struct {
	Success  bool                    `json:"success"`
	Inserted int                     `json:"inserted"`
	Errors   []models.ImportRowError `json:"errors"`
}

// Import handles POST /customers/import with a multipart "file" field
func (h *CustomerHandler) Import(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rs.Error(w, r, api.Validation("File exceeds the maximum upload size"))
			return
		}
		h.rs.Error(w, r, api.Validation("No file uploaded"))
		return
	}
	defer file.Close()

	result, err := h.importer.ImportCustomers(r.Context(), p, file)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.rs.JSON(w, http.StatusOK, importResponse{Success: true, Inserted: result.Inserted, Errors: result.Errors})
}
