package authz

import (
	"errors"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// Mode controls what a denied compliance route does. Enforce rejects it
// with 403, shadow only reports the decision so the middleware can log it,
// and disabled skips casbin entirely.
type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"

	envMode          = "AUTHZ_MODE"
	envAllowDisabled = "AUTHZ_UNSAFE_ALLOW_DISABLED"
)

var (
	errDisabledNotAllowed = errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
	errInvalidMode        = errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	errUnknownMode        = errors.New("authz: unknown mode")
)

// ModeFromEnv reads AUTHZ_MODE, defaulting to enforce. Turning claim and
// evidence authorization off needs a second explicit opt-in.
func ModeFromEnv() (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(os.Getenv(envMode))))
	switch mode {
	case "":
		return ModeEnforce, nil
	case ModeEnforce, ModeShadow:
		return mode, nil
	case ModeDisabled:
		if os.Getenv(envAllowDisabled) == "1" {
			return ModeDisabled, nil
		}
		return "", errDisabledNotAllowed
	}
	return "", errInvalidMode
}

// Authorizer checks (role subject, tenant domain, compliance object, action)
// tuples against a casbin model and a file policy.
type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

func NewAuthorizer(modelPath string, policyPath string, mode Mode) (*Authorizer, error) {
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

// SubjectFromRoleSlug turns an X-Actor-Role value into a policy subject.
func SubjectFromRoleSlug(roleSlug string) string {
	roleSlug = strings.ToLower(strings.TrimSpace(roleSlug))
	if roleSlug == "" {
		roleSlug = RoleAnonymous
	}
	return "role:" + roleSlug
}

// DomainFromTenantID maps a tenant to its policy domain. Requests without a
// tenant fall into the global domain.
func DomainFromTenantID(tenantID string) string {
	tenantID = strings.ToLower(strings.TrimSpace(tenantID))
	if tenantID == "" {
		return DomainGlobal
	}
	return tenantID
}

// Authorize reports the casbin decision and whether the caller must act on
// it. Only enforce mode returns enforced=true.
func (a *Authorizer) Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error) {
	switch a.mode {
	case ModeDisabled:
		return true, false, nil
	case ModeShadow, ModeEnforce:
	default:
		return false, false, errUnknownMode
	}

	enforced = a.mode == ModeEnforce
	allowed, err = a.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return false, enforced, err
	}
	return allowed, enforced, nil
}
