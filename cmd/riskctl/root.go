package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/celguard"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/registry"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/services"
)

type rootOptions struct {
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "riskctl",
		Short: "Field risk registry tooling",
		Long: `riskctl validates field risk registry files and previews how the
risk rule evaluator treats a field for a given criticality tier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case "table", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("invalid --output %q (expected table|json|yaml)", opts.output)
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json, yaml")

	root.AddCommand(newValidateCmd(opts), newEvalCmd(opts), newTTLCmd(opts))
	return root
}

func loadRegistry(path string) (*registry.FieldRiskRegistry, *celguard.Guards, error) {
	guards, err := celguard.New()
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.LoadFieldRiskRegistry(path, guards)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return reg, guards, nil
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a registry file and compile its rule guards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := loadRegistry(args[0])
			if err != nil {
				return err
			}
			summary := map[string]any{
				"version": reg.Version(),
				"fields":  reg.FieldKeys(),
			}
			if opts.output != "table" {
				return writeFormatted(cmd.OutOrStdout(), opts.output, summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry ok version=%s fields=%d\n", reg.Version(), len(reg.FieldKeys()))
			for _, k := range reg.FieldKeys() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", k)
			}
			return nil
		},
	}
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var (
		field string
		tier  string
		appID string
		facts []string
	)
	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Preview the risk evaluation for a field and tier",
		Long: `Preview the risk evaluation for a field and tier.

Examples:
  riskctl eval config/field_risk_registry.yaml --field confidentiality_level --tier A
  riskctl eval registry.yaml --field availability_tier --tier A --fact has_dependencies=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, guards, err := loadRegistry(args[0])
			if err != nil {
				return err
			}
			factMap, err := parseFacts(facts)
			if err != nil {
				return err
			}
			eval := services.NewRiskRuleEvaluator(reg, guards).Evaluate(services.RiskRuleInput{
				FieldKey:       field,
				AppID:          appID,
				AppCriticality: tier,
				Facts:          factMap,
			})
			if opts.output != "table" {
				return writeFormatted(cmd.OutOrStdout(), opts.output, eval)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s field=%s tier=%s reason=%s\n", eval.Outcome, eval.FieldKey, eval.Criticality, eval.Reason)
			if eval.Rule != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  value=%s priority=%s ttl=%s requires_review=%v\n", eval.Rule.Value, eval.Rule.Priority, eval.Rule.TTL, eval.Rule.RequiresReview)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "profile field key")
	cmd.Flags().StringVar(&tier, "tier", "", "app criticality tier")
	cmd.Flags().StringVar(&appID, "app", "", "app id passed to rule guards")
	cmd.Flags().StringArrayVar(&facts, "fact", nil, "app fact as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func newTTLCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ttl <value>",
		Short: "Parse a rule TTL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := services.ParseTTL(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			out := map[string]any{
				"ttl":     args[0],
				"hours":   d.Hours(),
				"days":    d.Hours() / 24,
				"seconds": int64(d.Seconds()),
			}
			if opts.output != "table" {
				return writeFormatted(cmd.OutOrStdout(), opts.output, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%.0f days)\n", args[0], d, d.Hours()/24)
			return nil
		},
	}
}

func parseFacts(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, f := range raw {
		k, v, ok := strings.Cut(f, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --fact %q (expected key=value)", f)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func writeFormatted(w io.Writer, format string, data any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
