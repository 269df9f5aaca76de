package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

const supportedVersion = 1

// ConditionCompiler validates rule guards at load time.
type ConditionCompiler interface {
	Compile(expr string) error
}

// FieldRiskRegistry is an immutable, load-once rule table. It is safe for
// unsynchronized concurrent reads.
type FieldRiskRegistry struct {
	version string
	fields  map[string]types.FieldRiskConfig
}

type registryFile struct {
	Version     int                  `yaml:"version"`
	RuleVersion string               `yaml:"rule_version"`
	Fields      map[string]fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Label       string               `yaml:"label"`
	DerivedFrom string               `yaml:"derived_from"`
	Rules       map[string]ruleValue `yaml:"rules"`
}

type ruleValue struct {
	types.RuleValue
}

func (v *ruleValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		v.RuleValue = types.ScalarRule(strings.TrimSpace(s))
		return nil
	case yaml.MappingNode:
		var r types.RiskCreationRule
		if err := node.Decode(&r); err != nil {
			return err
		}
		v.RuleValue = types.StructuredRule(r)
		return nil
	default:
		return fmt.Errorf("registry: line %d: rule must be a scalar or a mapping", node.Line)
	}
}

func ParseFieldRiskRegistryYAML(b []byte, conditions ConditionCompiler) (*FieldRiskRegistry, error) {
	var f registryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Version != supportedVersion {
		return nil, errors.New("registry: unsupported version")
	}
	if f.Fields == nil {
		return nil, errors.New("registry: missing fields")
	}

	out := &FieldRiskRegistry{
		version: strings.TrimSpace(f.RuleVersion),
		fields:  make(map[string]types.FieldRiskConfig, len(f.Fields)),
	}
	for rawKey, ff := range f.Fields {
		key := strings.TrimSpace(rawKey)
		if key == "" {
			return nil, errors.New("registry: empty field key")
		}
		cfg := types.FieldRiskConfig{
			FieldKey:    key,
			Label:       strings.TrimSpace(ff.Label),
			DerivedFrom: strings.TrimSpace(ff.DerivedFrom),
			Rules:       make(map[string]types.RuleValue, len(ff.Rules)),
		}
		for rawTier, rv := range ff.Rules {
			tier := types.NormalizeTier(rawTier)
			if tier == "" {
				return nil, fmt.Errorf("registry: field %s: empty tier", key)
			}
			if _, dup := cfg.Rules[tier]; dup {
				return nil, fmt.Errorf("registry: field %s: duplicate tier %s", key, tier)
			}
			if when := strings.TrimSpace(rv.Rule().When); when != "" && conditions != nil {
				if err := conditions.Compile(when); err != nil {
					return nil, fmt.Errorf("registry: field %s tier %s: when: %w", key, tier, err)
				}
			}
			cfg.Rules[tier] = rv.RuleValue
		}
		out.fields[key] = cfg
	}
	return out, nil
}

func LoadFieldRiskRegistry(path string, conditions ConditionCompiler) (*FieldRiskRegistry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFieldRiskRegistryYAML(b, conditions)
}

// DefaultPath looks for config/field_risk_registry.yaml in the working
// directory and up to seven parents.
func DefaultPath() (string, error) {
	path := "config/field_risk_registry.yaml"
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("registry: field risk registry not found")
}

func (r *FieldRiskRegistry) GetFieldRiskConfig(fieldKey string) (types.FieldRiskConfig, bool) {
	cfg, ok := r.fields[strings.TrimSpace(fieldKey)]
	return cfg, ok
}

func (r *FieldRiskRegistry) Version() string { return r.version }

func (r *FieldRiskRegistry) FieldKeys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
