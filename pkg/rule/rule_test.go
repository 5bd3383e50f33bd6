package rule_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/charon/pkg/rule"
	"github.com/macropower/charon/pkg/tag"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err       error
		tags      []string
		matchType rule.MatchType
		dest      string
		wantTags  []string
		wantType  rule.MatchType
	}{
		"valid": {
			tags:      []string{"Invoices"},
			matchType: rule.MatchAll,
			dest:      "/out/Invoices",
			wantTags:  []string{"Invoices"},
			wantType:  rule.MatchAll,
		},
		"default match type": {
			tags:     []string{"Work"},
			dest:     "~/Documents/Work",
			wantTags: []string{"Work"},
			wantType: rule.MatchAny,
		},
		"tags normalized": {
			tags:     []string{" Work ", "", "Work", "Urgent\n6"},
			dest:     "/out",
			wantTags: []string{"Work", "Urgent"},
			wantType: rule.MatchAny,
		},
		"unknown match type kept": {
			tags:      []string{"Work"},
			matchType: "most",
			dest:      "/out",
			wantTags:  []string{"Work"},
			wantType:  "most",
		},
		"no tags": {
			tags: nil,
			dest: "/out",
			err:  rule.ErrEmptyTags,
		},
		"blank tags": {
			tags: []string{" ", ""},
			dest: "/out",
			err:  rule.ErrEmptyTags,
		},
		"no destination": {
			tags: []string{"Work"},
			dest: "  ",
			err:  rule.ErrEmptyDestination,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := rule.New(tc.tags, tc.matchType, tc.dest)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Nil(t, r)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantTags, r.Tags)
			assert.Equal(t, tc.wantType, r.MatchType)
		})
	}
}

func TestMustNew(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		rule.MustNew([]string{"Work"}, rule.MatchAny, "/out")
	})
	assert.Panics(t, func() {
		rule.MustNew(nil, rule.MatchAny, "/out")
	})
}

func TestRule_Matches(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fileTags  []string
		ruleTags  []string
		matchType rule.MatchType
		want      bool
	}{
		"any single hit": {
			fileTags:  []string{"Invoices"},
			ruleTags:  []string{"Invoices"},
			matchType: rule.MatchAny,
			want:      true,
		},
		"any one of several": {
			fileTags:  []string{"Urgent", "Work"},
			ruleTags:  []string{"Personal", "Work"},
			matchType: rule.MatchAny,
			want:      true,
		},
		"any disjoint": {
			fileTags:  []string{"Personal"},
			ruleTags:  []string{"Work"},
			matchType: rule.MatchAny,
			want:      false,
		},
		"any is case sensitive": {
			fileTags:  []string{"work"},
			ruleTags:  []string{"Work"},
			matchType: rule.MatchAny,
			want:      false,
		},
		"all superset": {
			fileTags:  []string{"Invoices", "ClientA", "Urgent"},
			ruleTags:  []string{"Invoices", "ClientA"},
			matchType: rule.MatchAll,
			want:      true,
		},
		"all exact": {
			fileTags:  []string{"ClientA", "Invoices"},
			ruleTags:  []string{"Invoices", "ClientA"},
			matchType: rule.MatchAll,
			want:      true,
		},
		"all missing one": {
			fileTags:  []string{"Invoices"},
			ruleTags:  []string{"Invoices", "ClientA"},
			matchType: rule.MatchAll,
			want:      false,
		},
		"exclusive equal": {
			fileTags:  []string{"Personal"},
			ruleTags:  []string{"Personal"},
			matchType: rule.MatchExclusive,
			want:      true,
		},
		"exclusive equal unordered": {
			fileTags:  []string{"Work", "Personal"},
			ruleTags:  []string{"Personal", "Work"},
			matchType: rule.MatchExclusive,
			want:      true,
		},
		"exclusive extra file tag": {
			fileTags:  []string{"Personal", "Work"},
			ruleTags:  []string{"Personal"},
			matchType: rule.MatchExclusive,
			want:      false,
		},
		"exclusive subset": {
			fileTags:  []string{"Personal"},
			ruleTags:  []string{"Personal", "Work"},
			matchType: rule.MatchExclusive,
			want:      false,
		},
		"unknown match type": {
			fileTags:  []string{"Work"},
			ruleTags:  []string{"Work"},
			matchType: "most",
			want:      false,
		},
		"empty file tags any": {
			ruleTags:  []string{"Work"},
			matchType: rule.MatchAny,
			want:      false,
		},
		"empty file tags all": {
			ruleTags:  []string{"Work"},
			matchType: rule.MatchAll,
			want:      false,
		},
		"empty file tags exclusive": {
			ruleTags:  []string{"Work"},
			matchType: rule.MatchExclusive,
			want:      false,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := rule.MustNew(tc.ruleTags, tc.matchType, "/out")
			assert.Equal(t, tc.want, r.Matches(tag.NewSet(tc.fileTags...)))
		})
	}
}

//nolint:paralleltest // Replaces slog.Default.
func TestRule_MatchesUnknownTypeIsSilent(t *testing.T) {
	var buf bytes.Buffer

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(prev)
	})

	r := rule.MustNew([]string{"Work"}, "most", "/out")
	for range 100 {
		assert.False(t, r.Matches(tag.NewSet("Work")))
	}

	assert.Empty(t, buf.String())
}

// Rules decoded from a document have not been compiled yet.
func TestRule_MatchesUncompiled(t *testing.T) {
	t.Parallel()

	r := &rule.Rule{Tags: []string{"Work"}, Destination: "/out"}

	assert.True(t, r.Matches(tag.NewSet("Work")))
	assert.False(t, (&rule.Rule{Destination: "/out"}).Matches(tag.NewSet("Work")))
}

func TestRule_Properties(t *testing.T) {
	t.Parallel()

	universe := []string{"a", "b", "c", "d"}

	// Every subset of the universe, as a bitmask.
	subset := func(mask int) []string {
		var out []string
		for i, v := range universe {
			if mask&(1<<i) != 0 {
				out = append(out, v)
			}
		}

		return out
	}

	n := 1 << len(universe)
	for fm := range n {
		for rm := 1; rm < n; rm++ {
			file := tag.NewSet(subset(fm)...)
			ruleTags := subset(rm)

			intersects := fm&rm != 0
			subsetOf := fm&rm == rm
			equal := fm == rm

			assert.Equal(t, intersects, rule.MustNew(ruleTags, rule.MatchAny, "/out").Matches(file),
				"any %v %s", ruleTags, file)
			assert.Equal(t, subsetOf, rule.MustNew(ruleTags, rule.MatchAll, "/out").Matches(file),
				"all %v %s", ruleTags, file)
			assert.Equal(t, equal, rule.MustNew(ruleTags, rule.MatchExclusive, "/out").Matches(file),
				"exclusive %v %s", ruleTags, file)
		}
	}
}

func TestRuleSet_Match(t *testing.T) {
	t.Parallel()

	invoices := rule.MustNew([]string{"Invoices"}, rule.MatchAny, "/out/Invoices")
	clientA := rule.MustNew([]string{"Invoices", "ClientA"}, rule.MatchAll, "/out/ClientA")
	personal := rule.MustNew([]string{"Personal"}, rule.MatchExclusive, "/out/Personal")

	tcs := map[string]struct {
		want  *rule.Rule
		rules rule.RuleSet
		tags  []string
	}{
		"single any rule": {
			rules: rule.RuleSet{invoices},
			tags:  []string{"Invoices"},
			want:  invoices,
		},
		"first match wins": {
			rules: rule.RuleSet{invoices, clientA},
			tags:  []string{"Invoices", "ClientA"},
			want:  invoices,
		},
		"order decides": {
			rules: rule.RuleSet{clientA, invoices},
			tags:  []string{"Invoices", "ClientA"},
			want:  clientA,
		},
		"superset matches all": {
			rules: rule.RuleSet{clientA},
			tags:  []string{"Invoices", "ClientA", "Urgent"},
			want:  clientA,
		},
		"exclusive with extra tag": {
			rules: rule.RuleSet{personal},
			tags:  []string{"Personal", "Work"},
		},
		"empty tag set": {
			rules: rule.RuleSet{invoices, clientA, personal},
		},
		"no rules": {
			tags: []string{"Invoices"},
		},
		"nil entries skipped": {
			rules: rule.RuleSet{nil, personal},
			tags:  []string{"Personal"},
			want:  personal,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := tc.rules.Match(tag.NewSet(tc.tags...))
			if tc.want == nil {
				assert.False(t, ok)
				assert.Nil(t, got)

				return
			}

			require.True(t, ok)
			assert.Same(t, tc.want, got)
			assert.Equal(t, tc.want.Destination, got.Destination)
		})
	}
}

func TestRuleSet_String(t *testing.T) {
	t.Parallel()

	rs := rule.RuleSet{
		rule.MustNew([]string{"Invoices"}, "", "~/Documents/Invoices"),
		rule.MustNew([]string{"Invoices", "ClientA"}, rule.MatchAll, "/out"),
	}

	assert.Equal(t,
		"1. any [Invoices] -> ~/Documents/Invoices\n2. all [Invoices, ClientA] -> /out",
		rs.String(),
	)
}

func TestMatchType_Known(t *testing.T) {
	t.Parallel()

	for _, m := range rule.MatchTypes {
		assert.True(t, m.Known(), m)
	}

	assert.False(t, rule.MatchType("most").Known())
	assert.False(t, rule.MatchType("").Known())
	assert.Equal(t, []any{"any", "all", "exclusive"}, rule.MatchAny.JSONSchema().Examples)
}
