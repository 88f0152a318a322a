package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/middleware"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAuth map[string]policy.Principal

func (f fakeAuth) Authenticate(_ context.Context, token string) (policy.Principal, error) {
	p, ok := f[token]
	if !ok {
		return policy.Principal{}, api.Unauthenticated("Invalid or expired token")
	}
	return p, nil
}

var rs = api.NewResponder(zap.NewNop(), false)

// echoPrincipal writes the caller's role
var echoPrincipal = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "no principal", http.StatusInternalServerError)
		return
	}
	w.Write([]byte(p.Role))
})

func TestAuth(t *testing.T) {
	auth := fakeAuth{
		"good": {ID: uuid.New(), Role: models.RoleManager},
	}
	h := middleware.Auth(auth, rs)(echoPrincipal)

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{"bearer", "Bearer good", "", http.StatusOK, "MANAGER"},
		{"query token ignored", "", "?token=good", http.StatusUnauthorized, ""},
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", "", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", "", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer bad", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
			if tt.status == http.StatusUnauthorized {
				var env api.Envelope
				if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
					t.Fatal(err)
				}
				if env.Success || env.Message == "" {
					t.Errorf("envelope = %+v", env)
				}
			}
		})
	}
}

func TestWebSocketAuthAcceptsQueryToken(t *testing.T) {
	auth := fakeAuth{
		"good": {ID: uuid.New(), Role: models.RoleUser},
	}
	h := middleware.WebSocketAuth(auth, rs)(echoPrincipal)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"query token", "", "?token=good", http.StatusOK},
		{"bearer", "Bearer good", "", http.StatusOK},
		{"header wins over query", "Bearer bad", "?token=good", http.StatusUnauthorized},
		{"unknown query token", "", "?token=bad", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != string(models.RoleUser) {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := middleware.RequireRole(rs, models.RoleAdmin, models.RoleManager)(echoPrincipal)

	tests := []struct {
		name   string
		p      *policy.Principal
		status int
	}{
		{"admin", &policy.Principal{Role: models.RoleAdmin}, http.StatusOK},
		{"manager", &policy.Principal{Role: models.RoleManager}, http.StatusOK},
		{"user", &policy.Principal{Role: models.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/subordinates", nil)
			if tt.p != nil {
				req = req.WithContext(middleware.WithPrincipal(req.Context(), *tt.p))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	userID := uuid.New()
	auth := fakeAuth{"good": {ID: userID, Role: models.RoleUser}}

	h := middleware.RequestID(middleware.Logger(zap.New(core))(middleware.Auth(auth, rs)(echoPrincipal)))

	req := httptest.NewRequest(http.MethodGet, "/api/visit-plans", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(middleware.RequestIDHeader); got != "req-42" {
		t.Errorf("request id = %q, want propagated req-42", got)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-42" || fields["user_id"] != userID.String() {
		t.Errorf("log fields = %v", fields)
	}

	// Generated when absent, and failures log at warn
	req = httptest.NewRequest(http.MethodGet, "/api/visit-plans", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("no request id generated")
	}
	if last := logs.All()[1]; last.Level != zapcore.WarnLevel {
		t.Errorf("401 logged at %s, want warn", last.Level)
	}
}

func TestRateLimit(t *testing.T) {
	store, err := middleware.NewLimiterStore(nil)
	if err != nil {
		t.Fatal(err)
	}
	limit, err := middleware.RateLimit(store, "2-M", rs)
	if err != nil {
		t.Fatal(err)
	}
	h := limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i, status := range want {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != status {
			t.Errorf("request %d status = %d, want %d", i+1, rec.Code, status)
		}
	}

	if _, err := middleware.RateLimit(store, "lots", rs); err == nil {
		t.Error("expected an error for a malformed rate")
	}
}
