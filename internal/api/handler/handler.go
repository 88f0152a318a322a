package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/middleware"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
)

const dateLayout = "2006-01-02"

// principal returns the authenticated caller, writing a 401 when there is none
func principal(w http.ResponseWriter, r *http.Request, rs *api.Responder) (policy.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		rs.Error(w, r, api.Unauthenticated("Authentication required"))
	}
	return p, ok
}

// pathID parses the {id} route parameter
func pathID(r *http.Request, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, api.Validation("Invalid %s ID", what)
	}
	return id, nil
}

// queryPage reads page and limit. Out-of-range values are clamped later.
func queryPage(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, api.Validation("Invalid page")
		}
		page.Number = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, api.Validation("Invalid limit")
		}
		page.Limit = n
	}
	return page.Normalize(), nil
}

// queryUUID reads an optional uuid query parameter
func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, api.Validation("Invalid %s", key)
	}
	return &id, nil
}

// queryDate reads an optional date (YYYY-MM-DD) or RFC 3339 timestamp.
// A bare date is read in loc; with endOfDay it selects the last instant of that day.
func queryDate(r *http.Request, key string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}

	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return nil, api.Validation("Invalid %s format (use YYYY-MM-DD)", key)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// queryUpper reads an optional enum-like query parameter
func queryUpper(r *http.Request, key string) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get(key)))
}
