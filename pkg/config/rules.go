package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/macropower/charon/api/v1beta1/rulesets"
	"github.com/macropower/charon/pkg/log"
	"github.com/macropower/charon/pkg/metrics"
	"github.com/macropower/charon/pkg/rule"
)

// ErrLoadRules is returned when the rules document cannot be read, parsed
// or validated.
var ErrLoadRules = errors.New("load rules")

// RuleLoader reads the rules document from disk on every call, so edits are
// picked up by the next classification.
type RuleLoader struct {
	metrics *metrics.Metrics
	path    string
}

// RuleLoaderOpt configures a [RuleLoader].
type RuleLoaderOpt func(*RuleLoader)

// WithRuleMetrics counts failed loads in m.
func WithRuleMetrics(m *metrics.Metrics) RuleLoaderOpt {
	return func(l *RuleLoader) {
		l.metrics = m
	}
}

// NewRuleLoader creates a [RuleLoader] for the document at path.
func NewRuleLoader(path string, opts ...RuleLoaderOpt) *RuleLoader {
	l := &RuleLoader{path: path}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Path returns the path of the rules document.
func (l *RuleLoader) Path() string {
	return l.path
}

// Load reads, validates and compiles the rules document. Invalid rules are
// skipped with a warning; a malformed document is an error wrapping
// [ErrLoadRules].
func (l *RuleLoader) Load(ctx context.Context) (rule.RuleSet, error) {
	logger := log.WithContext(ctx).With(slog.String("rules", l.path))

	loader, err := NewLoaderFromFile(l.path, rulesets.New, rulesets.DefaultValidator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRules, err)
	}

	doc, err := loader.ValidateAndLoad()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadRules, l.path, err)
	}

	rs := doc.Compile(logger)

	logger.DebugContext(ctx, "loaded rules", slog.Int("count", len(rs)))

	return rs, nil
}

// LoadRules is like [RuleLoader.Load] but never fails: errors are logged
// and yield an empty rule set.
func (l *RuleLoader) LoadRules(ctx context.Context) rule.RuleSet {
	rs, err := l.Load(ctx)
	if err != nil {
		l.metrics.ObserveRuleLoadFailure()
		log.WithContext(ctx).ErrorContext(ctx, "using empty rule set", slog.Any("err", err))

		return rule.RuleSet{}
	}

	return rs
}
