package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Envelope is the body shape of every JSON response
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Responder writes JSON envelopes and maps errors to status codes
type Responder struct {
	log *zap.Logger
	dev bool
}

// NewResponder creates a responder. In dev mode internal error causes are returned to clients.
func NewResponder(log *zap.Logger, dev bool) *Responder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{log: log, dev: dev}
}

// JSON writes v with the given status
func (rs *Responder) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (rs *Responder) OK(w http.ResponseWriter, data any) {
	rs.JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func (rs *Responder) Created(w http.ResponseWriter, message string, data any) {
	rs.JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func (rs *Responder) Message(w http.ResponseWriter, message string) {
	rs.JSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

func (rs *Responder) Paged(w http.ResponseWriter, data, pagination any) {
	rs.JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: pagination})
}

// Error writes err as {success:false, message}
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal("Internal server error", err)
	}

	status := apiErr.Kind.Status()
	body := Envelope{Success: false, Message: apiErr.Message}

	if status >= http.StatusInternalServerError {
		rs.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if rs.dev && apiErr.Err != nil {
			body.Error = apiErr.Err.Error()
		}
	}

	rs.JSON(w, status, body)
}

// BadRequest writes a validation failure with message
func (rs *Responder) BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	rs.Error(w, r, &Error{Kind: KindValidation, Message: message})
}
