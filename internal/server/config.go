package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/opa"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/services"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is read once from the environment at start-up.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	Store       string
	DatabaseURL string

	AllowlistPath   string
	AuthzModelPath  string
	AuthzPolicyPath string
	RegistryPath    string

	OPAURL          string
	OPADecisionPath string
	OPAPolicyDir    string
	OPATimeout      time.Duration

	FallbackTTL           string
	SMEDefault            string
	SMEAssignments        map[string]string
	DecorationConcurrency int
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Addr:                  getenvDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:       getenvDurationDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		Store:                 strings.ToLower(strings.TrimSpace(getenvDefault("STORE", StorePostgres))),
		DatabaseURL:           dbDSNFromEnv(),
		AllowlistPath:         os.Getenv("ALLOWLIST_PATH"),
		AuthzModelPath:        os.Getenv("AUTHZ_MODEL_PATH"),
		AuthzPolicyPath:       os.Getenv("AUTHZ_POLICY_PATH"),
		RegistryPath:          os.Getenv("FIELD_RISK_REGISTRY_PATH"),
		OPAURL:                strings.TrimSpace(os.Getenv("OPA_URL")),
		OPADecisionPath:       getenvDefault("OPA_DECISION_PATH", opa.DefaultDecisionPath),
		OPAPolicyDir:          strings.TrimSpace(os.Getenv("OPA_POLICY_DIR")),
		OPATimeout:            getenvDurationDefault("OPA_TIMEOUT", 5*time.Second),
		FallbackTTL:           os.Getenv("RISK_DEFAULT_TTL"),
		SMEDefault:            getenvDefault("SME_DEFAULT", "compliance-team"),
		DecorationConcurrency: getenvIntDefault("REUSE_DECORATION_CONCURRENCY", services.DefaultDecorationConcurrency),
	}

	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		return Config{}, fmt.Errorf("server: invalid STORE %q (expected postgres|memory)", cfg.Store)
	}

	assignments, err := services.ParseSMEAssignments(os.Getenv("SME_ASSIGNMENTS"))
	if err != nil {
		return Config{}, err
	}
	cfg.SMEAssignments = assignments

	if _, err := services.NewTTLPolicy(cfg.FallbackTTL); err != nil {
		return Config{}, fmt.Errorf("server: RISK_DEFAULT_TTL: %w", err)
	}

	if cfg.OPAURL == "" && cfg.OPAPolicyDir == "" {
		dir, err := defaultPolicyDir()
		if err != nil {
			return Config{}, errors.New("server: set OPA_URL or OPA_POLICY_DIR")
		}
		cfg.OPAPolicyDir = dir
	}
	return cfg, nil
}

func defaultPolicyDir() (string, error) {
	path := "policies"
	for range 8 {
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: policies directory not found")
}
