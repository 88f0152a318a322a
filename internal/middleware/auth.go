package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
)

// contextKey is a type for context keys
type contextKey string

const principalKey contextKey = "principal"

// Authenticator resolves a bearer token to the caller's current identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (policy.Principal, error)
}

// Auth middleware authenticates requests and stores the resolved principal in the context.
// The token is read from the Authorization header only.
func Auth(auth Authenticator, rs *api.Responder) func(http.Handler) http.Handler {
	return authenticate(auth, rs, false)
}

// WebSocketAuth is Auth for the websocket upgrade route. Browsers cannot set
// headers on the handshake, so the token query parameter is accepted as well.
func WebSocketAuth(auth Authenticator, rs *api.Responder) func(http.Handler) http.Handler {
	return authenticate(auth, rs, true)
}

func authenticate(auth Authenticator, rs *api.Responder, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r, allowQuery)
			if err != nil {
				rs.Error(w, r, err)
				return
			}

			principal, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				rs.Error(w, r, err)
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = principal.ID.String()
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request, allowQuery bool) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); allowQuery && token != "" {
			return token, nil
		}
		return "", api.Unauthenticated("Authorization header required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", api.Unauthenticated("Invalid Authorization header format")
	}
	return parts[1], nil
}

// RequireRole middleware for checking user roles
func RequireRole(rs *api.Responder, roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				rs.Error(w, r, api.Unauthenticated("Authentication required"))
				return
			}

			for _, allowed := range roles {
				if principal.Role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			rs.Error(w, r, api.Forbidden("Access denied"))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p policy.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated principal stored by Auth
func PrincipalFrom(ctx context.Context) (policy.Principal, bool) {
	p, ok := ctx.Value(principalKey).(policy.Principal)
	return p, ok
}
