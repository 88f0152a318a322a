package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("Customer"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("outer: %w", Forbidden("inner")), http.StatusForbidden},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err).Status(); got != tt.want {
			t.Errorf("status for %v = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorHidesInternalDetail(t *testing.T) {
	for _, dev := range []bool{false, true} {
		rs := NewResponder(zap.NewNop(), dev)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)

		rs.Error(rec, req, errors.New("pq: relation \"customers\" does not exist"))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
		var body Envelope
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Success || body.Message != "Internal server error" {
			t.Errorf("body = %+v", body)
		}
		leaked := strings.Contains(body.Error, "relation")
		if leaked != dev {
			t.Errorf("dev=%v leaked=%v", dev, leaked)
		}
	}
}

func TestDecodeValidates(t *testing.T) {
	type payload struct {
		Name  string `json:"namaCustomer" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"invalid fields", `{"email":"nope"}`, []string{"namaCustomer is required", "email must be a valid email"}},
		{"malformed body", `{`, []string{"Invalid request body"}},
		{"empty body", ``, []string{"Request body is required"}},
		{"valid body", `{"namaCustomer":"PT Maju"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := Decode(req, &p)

			if tt.want == nil {
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if p.Name != "PT Maju" {
					t.Errorf("name = %q", p.Name)
				}
				return
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("got %v, want validation error", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("message %q does not mention %q", err.Error(), w)
				}
			}
		})
	}
}
