// Package rulesets provides the RuleSet document: the ordered list of rules
// charon classifies files with.
package rulesets

import (
	"fmt"
	"log/slog"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/charon/api"
	"github.com/macropower/charon/api/v1beta1"
	"github.com/macropower/charon/pkg/rule"
	"github.com/macropower/charon/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen -kind rules -o rulesets.v1beta1.json

const Kind = "RuleSet"

var (
	//go:embed rules.yaml
	defaultRulesYAML []byte

	//go:embed rulesets.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for rule sets.
	ValidKinds = []string{Kind}

	// DefaultValidator validates rule sets against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/rulesets.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*RuleSet)(nil)
)

// RuleSet is the rules document. Rules are evaluated in order and the first
// match wins.
//
// apiVersion and kind may be omitted, so plain {"rules": [...]} JSON
// documents load as well.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RuleSet struct {
	v1beta1.TypeMeta `json:",inline"`
	// Rules are the classification rules, in evaluation order.
	Rules []*rule.Rule `json:"rules" jsonschema:"title=Rules"`
}

// New creates a new, empty [RuleSet].
func New() *RuleSet {
	rs := &RuleSet{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	rs.EnsureDefaults()

	return rs
}

// EnsureDefaults initializes nil fields to their default values.
func (rs *RuleSet) EnsureDefaults() {
	if rs.Rules == nil {
		rs.Rules = []*rule.Rule{}
	}
}

// Compile validates every rule. Invalid rules are dropped with a warning;
// the rest keep their order. Rules with an unknown match type are kept and
// warned about here, once per load.
func (rs *RuleSet) Compile(logger *slog.Logger) rule.RuleSet {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(rule.RuleSet, 0, len(rs.Rules))

	for i, r := range rs.Rules {
		if r == nil {
			continue
		}

		err := r.Compile()
		if err != nil {
			logger.Warn("skipping invalid rule",
				slog.Int("index", i),
				slog.Any("err", err),
			)

			continue
		}

		if !r.MatchType.Known() {
			logger.Warn("rule has unknown match type and will never match",
				slog.Int("index", i),
				slog.String("match_type", string(r.MatchType)),
				slog.String("destination", r.Destination),
			)
		}

		out = append(out, r)
	}

	return out
}

func (rs RuleSet) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the rule set to YAML.
func (rs RuleSet) MarshalYAML() ([]byte, error) {
	type alias RuleSet

	b, err := api.MarshalYAML(alias(rs))
	if err != nil {
		return nil, fmt.Errorf("marshal rule set: %w", err)
	}

	return b, nil
}

// WriteDefault writes the embedded default rules.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultRulesYAML, force, "rules")
	if err != nil {
		return fmt.Errorf("write default rules: %w", err)
	}

	return nil
}

// GetPath returns the default path of the rules document.
func GetPath() string {
	return api.GetConfigPath("rules.yaml")
}
