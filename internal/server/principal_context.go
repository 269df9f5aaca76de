package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jacksonlee411/governance-adjudicator/pkg/authz"
)

// Headers set by the upstream gateway after it authenticated the caller.
const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
	headerTenantID  = "X-Tenant-ID"
)

type Principal struct {
	ID       string
	TenantID string
	RoleSlug string
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func currentPrincipal(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalContextKey{})
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func principalFromRequest(r *http.Request) Principal {
	role := strings.TrimSpace(r.Header.Get(headerActorRole))
	if role == "" {
		role = authz.RoleAnonymous
	}
	return Principal{
		ID:       strings.TrimSpace(r.Header.Get(headerActorID)),
		TenantID: strings.TrimSpace(r.Header.Get(headerTenantID)),
		RoleSlug: role,
	}
}

func withPrincipalFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principalFromRequest(r))))
	})
}
