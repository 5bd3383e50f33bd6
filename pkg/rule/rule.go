package rule

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/macropower/charon/pkg/tag"
)

// MatchType selects how a rule's tags are compared with a file's tags.
type MatchType string

const (
	// MatchAny matches when the file has at least one of the rule's tags.
	MatchAny MatchType = "any"
	// MatchAll matches when the file has every one of the rule's tags. The
	// file may carry additional tags.
	MatchAll MatchType = "all"
	// MatchExclusive matches when the file's tags equal the rule's tags.
	MatchExclusive MatchType = "exclusive"
)

var (
	ErrEmptyTags        = errors.New("rule has no tags")
	ErrEmptyDestination = errors.New("rule has no destination")

	// MatchTypes lists the known match types.
	MatchTypes = []MatchType{MatchAny, MatchAll, MatchExclusive}
)

// Known reports whether m is one of [MatchTypes].
func (m MatchType) Known() bool {
	switch m {
	case MatchAny, MatchAll, MatchExclusive:
		return true
	}

	return false
}

// JSONSchema describes match types as plain strings. Unknown values are
// accepted so that one bad rule does not invalidate a whole document.
func (MatchType) JSONSchema() *jsonschema.Schema {
	examples := make([]any, 0, len(MatchTypes))
	for _, m := range MatchTypes {
		examples = append(examples, string(m))
	}

	return &jsonschema.Schema{
		Type:        "string",
		Title:       "Match Type",
		Description: "How the rule's tags are compared with a file's tags.",
		Examples:    examples,
		Default:     string(MatchAny),
	}
}

// Rule moves files whose tags satisfy MatchType to Destination.
type Rule struct {
	tags tag.Set // Normalized Tags.

	// MatchType is the predicate used to compare tags. Defaults to "any".
	MatchType MatchType `json:"matchType,omitempty"`
	// Destination is the directory matching files are moved into. A leading
	// "~" is expanded to the user's home directory.
	Destination string `json:"destination" jsonschema:"title=Destination"`
	// Tags are the tags the rule compares against.
	Tags []string `json:"tags" jsonschema:"title=Tags"`
}

// New creates a new [Rule]. Tags are normalized and empty ones dropped; an
// empty matchType becomes [MatchAny].
func New(tags []string, matchType MatchType, destination string) (*Rule, error) {
	r := &Rule{
		Tags:        tags,
		MatchType:   matchType,
		Destination: destination,
	}
	if err := r.Compile(); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew creates a new rule and panics if there's an error.
func MustNew(tags []string, matchType MatchType, destination string) *Rule {
	r, err := New(tags, matchType, destination)
	if err != nil {
		panic(err)
	}

	return r
}

// Compile validates a decoded rule and normalizes its fields. Unknown match
// types are kept; such a rule never matches.
func (r *Rule) Compile() error {
	r.tags = tag.NewSet(r.Tags...)
	r.Tags = r.tags.Tags()
	r.Destination = strings.TrimSpace(r.Destination)

	if r.MatchType == "" {
		r.MatchType = MatchAny
	}

	if r.tags.Empty() {
		return fmt.Errorf("rule %q: %w", r.Destination, ErrEmptyTags)
	}

	if r.Destination == "" {
		return fmt.Errorf("rule %s: %w", r.tags, ErrEmptyDestination)
	}

	return nil
}

// Matches reports whether a file carrying tags satisfies the rule. An empty
// tag set never matches, and neither does a rule with an unknown match type.
func (r *Rule) Matches(tags tag.Set) bool {
	if tags.Empty() {
		return false
	}

	want := r.tags
	if want.Empty() {
		want = tag.NewSet(r.Tags...)
	}

	if want.Empty() {
		return false
	}

	switch r.MatchType {
	case MatchAny, "":
		for _, t := range want.Tags() {
			if tags.Has(t) {
				return true
			}
		}

		return false

	case MatchAll:
		return containsAll(tags, want)

	case MatchExclusive:
		return want.Equal(tags)
	}

	return false
}

func (r *Rule) String() string {
	mt := r.MatchType
	if mt == "" {
		mt = MatchAny
	}

	return fmt.Sprintf("%s %s -> %s", mt, tag.NewSet(r.Tags...), r.Destination)
}

// LogValue implements [slog.LogValuer].
func (r *Rule) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("tags", r.Tags),
		slog.String("match_type", string(r.MatchType)),
		slog.String("destination", r.Destination),
	)
}

func containsAll(have, want tag.Set) bool {
	for _, t := range want.Tags() {
		if !have.Has(t) {
			return false
		}
	}

	return true
}

// RuleSet is an ordered list of rules.
type RuleSet []*Rule

// Match returns the first rule, in list order, that matches tags.
func (rs RuleSet) Match(tags tag.Set) (*Rule, bool) {
	if tags.Empty() {
		return nil, false
	}

	for _, r := range rs {
		if r != nil && r.Matches(tags) {
			return r, true
		}
	}

	return nil, false
}

func (rs RuleSet) String() string {
	lines := make([]string, 0, len(rs))
	for i, r := range rs {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, r))
	}

	return strings.Join(lines, "\n")
}
