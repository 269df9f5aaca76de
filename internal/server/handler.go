package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/internal/routing"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/presentation/controllers"
)

const entrypointServer = "server"

type Services struct {
	Claims       controllers.ClaimAdjudicator
	Evidence     controllers.EvidenceService
	Attacher     controllers.EvidenceAttacher
	Requirements controllers.RequirementsAssembler
	Reuse        controllers.ReuseFinder
	Risk         controllers.RiskPreviewer
	Profile      controllers.ProfileStore
}

type HandlerOptions struct {
	// Allowlist overrides AllowlistPath when set.
	Allowlist     *routing.Allowlist
	AllowlistPath string

	// Authorizer overrides the casbin model/policy paths when set.
	Authorizer      authorizer
	AuthzModelPath  string
	AuthzPolicyPath string

	Services Services
	Ready    func(ctx context.Context) error
	NowUTC   func() time.Time
}

func loadAllowlist(opts HandlerOptions) (routing.Allowlist, error) {
	if opts.Allowlist != nil {
		return *opts.Allowlist, nil
	}
	path := opts.AllowlistPath
	if path == "" {
		path = os.Getenv("ALLOWLIST_PATH")
	}
	if path == "" {
		p, err := routing.FindAllowlist()
		if err != nil {
			return routing.Allowlist{}, err
		}
		path = p
	}
	return routing.LoadAllowlist(path)
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	svc := opts.Services
	if svc.Claims == nil || svc.Evidence == nil || svc.Attacher == nil || svc.Requirements == nil || svc.Reuse == nil || svc.Risk == nil || svc.Profile == nil {
		return nil, errors.New("server: missing compliance services")
	}

	a, err := loadAllowlist(opts)
	if err != nil {
		return nil, err
	}
	if err := checkAllowlistAuthz(a, entrypointServer); err != nil {
		return nil, err
	}

	classifier, err := routing.NewClassifier(a, entrypointServer)
	if err != nil {
		return nil, err
	}

	authorizer := opts.Authorizer
	if authorizer == nil {
		az, err := loadAuthorizer(opts.AuthzModelPath, opts.AuthzPolicyPath)
		if err != nil {
			return nil, err
		}
		authorizer = az
	}

	nowUTC := opts.NowUTC
	if nowUTC == nil {
		nowUTC = func() time.Time { return time.Now().UTC() }
	}

	claims := controllers.ClaimsController{Adjudicator: svc.Claims}
	evidence := controllers.EvidenceController{Evidence: svc.Evidence, Attacher: svc.Attacher}
	requirements := controllers.RequirementsController{
		NowUTC:    nowUTC,
		Assembler: svc.Requirements,
		Reuse:     svc.Reuse,
		Risk:      svc.Risk,
	}
	profile := controllers.ProfileController{Store: svc.Profile}

	router := routing.NewRouter(classifier)

	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready(ctx); err != nil {
				routing.WriteError(w, r, routing.RouteClassOps, http.StatusServiceUnavailable, "not_ready", "store unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	api := routing.RouteClassInternalAPI
	router.Handle(api, http.MethodGet, "/compliance/api/claims", http.HandlerFunc(claims.HandleClaimsAPI))
	router.Handle(api, http.MethodPost, "/compliance/api/claims", http.HandlerFunc(claims.HandleClaimsAPI))
	router.Handle(api, http.MethodGet, "/compliance/api/evidence", http.HandlerFunc(evidence.HandleEvidenceAPI))
	router.Handle(api, http.MethodPost, "/compliance/api/evidence", http.HandlerFunc(evidence.HandleEvidenceAPI))
	router.Handle(api, http.MethodPost, "/compliance/api/evidence/revoke", http.HandlerFunc(evidence.HandleEvidenceRevokeAPI))
	router.Handle(api, http.MethodPost, "/compliance/api/evidence/attach", http.HandlerFunc(evidence.HandleEvidenceAttachAPI))
	router.Handle(api, http.MethodGet, "/compliance/api/requirements", http.HandlerFunc(requirements.HandleRequirementsAPI))
	router.Handle(api, http.MethodGet, "/compliance/api/reuse", http.HandlerFunc(requirements.HandleReuseAPI))
	router.Handle(api, http.MethodGet, "/compliance/api/field-risk", http.HandlerFunc(requirements.HandleFieldRiskAPI))
	router.Handle(api, http.MethodGet, "/compliance/api/profile", http.HandlerFunc(profile.HandleProfileAPI))
	router.Handle(api, http.MethodPost, "/compliance/api/profile", http.HandlerFunc(profile.HandleProfileAPI))

	if err := router.CheckAllowlist(a, entrypointServer); err != nil {
		return nil, err
	}

	return withPrincipalFromHeaders(withAuthz(a, classifier, authorizer, router)), nil
}
