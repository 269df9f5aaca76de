package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jacksonlee411/governance-adjudicator/internal/routing"
	"github.com/jacksonlee411/governance-adjudicator/pkg/authz"
)

func loadAuthorizer(modelPath string, policyPath string) (*authz.Authorizer, error) {
	if modelPath == "" {
		p, err := defaultAuthzModelPath()
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	if policyPath == "" {
		p, err := defaultAuthzPolicyPath()
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

func defaultAuthzModelPath() (string, error) {
	path := "config/access/model.conf"
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz model not found")
}

func defaultAuthzPolicyPath() (string, error) {
	path := "config/access/policy.csv"
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz policy not found")
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

// checkAllowlistAuthz rejects internal API routes that carry no usable
// object/action pair.
func checkAllowlistAuthz(a routing.Allowlist, entrypoint string) error {
	ep, ok := a.Entrypoints[entrypoint]
	if !ok {
		return errors.New("server: allowlist entrypoint missing")
	}
	for _, r := range ep.Routes {
		if routing.RouteClass(r.RouteClass) != routing.RouteClassInternalAPI {
			continue
		}
		if !authz.KnownObject(r.Object) || !authz.KnownAction(r.Action) {
			return fmt.Errorf("server: route %s %v has invalid authz object=%q action=%q", r.Path, r.Methods, r.Object, r.Action)
		}
	}
	return nil
}

func withAuthz(allowlist routing.Allowlist, classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := classifier.Classify(path)
		if rc == routing.RouteClassOps {
			next.ServeHTTP(w, r)
			return
		}

		route, ok := allowlist.Lookup(entrypointServer, r.Method, path)
		if !ok || route.Object == "" {
			// Unknown routes fall through to the router's 404/405.
			next.ServeHTTP(w, r)
			return
		}

		roleSlug := authz.RoleAnonymous
		tenantID := ""
		if p, ok := currentPrincipal(r.Context()); ok {
			roleSlug = p.RoleSlug
			tenantID = p.TenantID
		}

		allowed, enforced, err := a.Authorize(authz.SubjectFromRoleSlug(roleSlug), authz.DomainFromTenantID(tenantID), route.Object, route.Action)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}
