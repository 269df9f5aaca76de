package server

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/celguard"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/opa"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/persistence"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/registry"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/presentation/controllers"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/services"
)

type stores struct {
	evidence ports.EvidenceStore
	claims   ports.ClaimStore
	profiles controllers.ProfileStore
	risks    ports.RiskOpener
	ready    func(ctx context.Context) error
	close    func()
}

func openStores(ctx context.Context, cfg Config) (stores, error) {
	if cfg.Store == StoreMemory {
		m := persistence.NewMemoryStore()
		return stores{evidence: m, claims: m, profiles: m, risks: m, close: func() {}}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	return stores{
		evidence: persistence.NewEvidencePGStore(pool),
		claims:   persistence.NewClaimPGStore(pool),
		profiles: persistence.NewProfilePGStore(pool),
		risks:    persistence.NewRiskPGStore(pool),
		ready:    pool.Ping,
		close:    pool.Close,
	}, nil
}

func openPolicy(ctx context.Context, cfg Config) (ports.PolicyDecisionService, error) {
	if cfg.OPAURL != "" {
		log.Printf("policy decisions via %s (%s)", cfg.OPAURL, cfg.OPADecisionPath)
		return opa.New(cfg.OPAURL, cfg.OPADecisionPath, cfg.OPATimeout)
	}
	log.Printf("policy decisions via embedded rego from %s (%s)", cfg.OPAPolicyDir, cfg.OPADecisionPath)
	return opa.NewRegoEvaluatorFromDir(ctx, cfg.OPADecisionPath, cfg.OPAPolicyDir)
}

func loadRegistry(path string, guards *celguard.Guards) (*registry.FieldRiskRegistry, error) {
	if path == "" {
		p, err := registry.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return registry.LoadFieldRiskRegistry(path, guards)
}

// BuildOptions assembles the compliance services described by cfg. The
// returned func releases the store.
func BuildOptions(ctx context.Context, cfg Config) (HandlerOptions, func(), error) {
	guards, err := celguard.New()
	if err != nil {
		return HandlerOptions{}, nil, err
	}
	reg, err := loadRegistry(cfg.RegistryPath, guards)
	if err != nil {
		return HandlerOptions{}, nil, err
	}
	log.Printf("field risk registry loaded version=%s fields=%d", reg.Version(), len(reg.FieldKeys()))

	ttl, err := services.NewTTLPolicy(cfg.FallbackTTL)
	if err != nil {
		return HandlerOptions{}, nil, err
	}

	policy, err := openPolicy(ctx, cfg)
	if err != nil {
		return HandlerOptions{}, nil, err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return HandlerOptions{}, nil, err
	}

	reuse := services.NewReuseMatcher(st.evidence)
	evaluator := services.NewRiskRuleEvaluator(reg, guards)
	smes := services.StaticSMEResolver{ByField: cfg.SMEAssignments, Default: cfg.SMEDefault}
	attach := services.NewAttachmentService(st.evidence, st.profiles, evaluator, smes, st.risks, ttl)

	opts := HandlerOptions{
		AllowlistPath:   cfg.AllowlistPath,
		AuthzModelPath:  cfg.AuthzModelPath,
		AuthzPolicyPath: cfg.AuthzPolicyPath,
		Ready:           st.ready,
		Services: Services{
			Claims:       services.NewClaimAdjudicator(st.evidence, st.claims),
			Evidence:     services.NewEvidenceFacade(st.evidence),
			Attacher:     attach,
			Requirements: services.NewRequirementsAssembler(st.profiles, policy, reuse, cfg.DecorationConcurrency),
			Reuse:        reuse,
			Risk:         attach,
			Profile:      st.profiles,
		},
	}
	return opts, st.close, nil
}
