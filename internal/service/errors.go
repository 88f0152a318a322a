package service

import (
	"context"
	"errors"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/policy"
)

var conflictMessages = map[string]string{
	repository.ConstraintUsername:     "Username already exists",
	repository.ConstraintEmail:        "Email already registered",
	repository.ConstraintNipNas:       "Customer with this NIP/NAS already exists",
	repository.ConstraintReportOfPlan: "Report already exists for this visit plan",
}

// storeErr converts a store failure into an api error. what names the record for 404s.
func storeErr(err error, what, action string) error {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return api.NotFound(what)
	case errors.Is(err, repository.ErrConflict):
		if msg, ok := conflictMessages[repository.ConstraintOf(err)]; ok {
			return api.Wrap(api.KindConflict, msg, err)
		}
		return api.Wrap(api.KindConflict, what+" already exists", err)
	case errors.Is(err, repository.ErrInUse):
		return api.Wrap(api.KindConflict, what+" is still referenced by other records", err)
	}
	return api.Internal("Failed to "+action, err)
}

// policyErr converts a policy denial into a 403
func policyErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, policy.ErrOutOfScope),
		errors.Is(err, policy.ErrNotOwner),
		errors.Is(err, policy.ErrEditLocked),
		errors.Is(err, policy.ErrAdminOnly),
		errors.Is(err, policy.ErrStatusChange),
		errors.Is(err, policy.ErrUnknownRole):
		return api.Wrap(api.KindAuthorization, capitalize(err.Error()), err)
	}
	return api.Internal("Failed to evaluate permissions", err)
}

// scopeFor computes the principal's visibility scope
func scopeFor(ctx context.Context, store Store, p policy.Principal) (policy.Scope, error) {
	scope, err := policy.ScopeFor(ctx, p, store.Users())
	if err != nil {
		if errors.Is(err, policy.ErrUnknownRole) {
			return scope, policyErr(err)
		}
		return scope, api.Internal("Failed to resolve visibility", err)
	}
	return scope, nil
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
