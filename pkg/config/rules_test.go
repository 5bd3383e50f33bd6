package config_test

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/charon/pkg/config"
	"github.com/macropower/charon/pkg/metrics"
	"github.com/macropower/charon/pkg/rule"
	"github.com/macropower/charon/pkg/tag"
)

func TestRuleLoader_Load(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content string
		want    []string
		wantErr bool
	}{
		"yaml document": {
			content: `apiVersion: charon.jacobcolvin.com/v1beta1
kind: RuleSet
rules:
  - tags: [Invoices]
    destination: /tmp/invoices
  - tags: [Work, Urgent]
    matchType: all
    destination: /tmp/work
`,
			want: []string{"any [Invoices] -> /tmp/invoices", "all [Work, Urgent] -> /tmp/work"},
		},
		"legacy json": {
			content: `{"rules": [{"tags": ["Personal"], "matchType": "exclusive", "destination": "/tmp/p"}]}`,
			want:    []string{"exclusive [Personal] -> /tmp/p"},
		},
		"invalid rules skipped": {
			content: `rules:
  - tags: []
    destination: /tmp/empty
  - tags: [a]
    destination: "  "
  - tags: [a]
    destination: /tmp/a
`,
			want: []string{"any [a] -> /tmp/a"},
		},
		"unknown match type kept": {
			content: `rules:
  - tags: [a]
    matchType: some
    destination: /tmp/a
`,
			want: []string{"some [a] -> /tmp/a"},
		},
		"no rules": {
			content: "rules: []\n",
			want:    []string{},
		},
		"malformed": {
			content: "rules: [",
			wantErr: true,
		},
		"wrong shape": {
			content: "rules: {tags: a}\n",
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := config.NewRuleLoader(createTempFile(t, tc.content))

			rs, err := l.Load(t.Context())
			if tc.wantErr {
				require.ErrorIs(t, err, config.ErrLoadRules)

				return
			}

			require.NoError(t, err)

			got := make([]string, 0, len(rs))
			for _, r := range rs {
				got = append(got, r.String())
			}

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRuleLoader_LoadRules(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		m := metrics.New(prometheus.NewRegistry())
		l := config.NewRuleLoader("/non/existent/rules.yaml", config.WithRuleMetrics(m))

		rs := l.LoadRules(t.Context())
		assert.Empty(t, rs)
		assert.Equal(t, "/non/existent/rules.yaml", l.Path())
		assert.InDelta(t, 1, testutil.ToFloat64(m.RuleLoadFailures), 0)
	})

	t.Run("reads fresh each call", func(t *testing.T) {
		t.Parallel()

		path := createTempFile(t, "rules: []\n")
		l := config.NewRuleLoader(path)

		assert.Empty(t, l.LoadRules(t.Context()))

		require.NoError(t, os.WriteFile(path, []byte(`rules:
  - tags: [Work]
    destination: /tmp/work
`), 0o600))

		rs := l.LoadRules(t.Context())
		require.Len(t, rs, 1)

		r, ok := rs.Match(tag.NewSet("Work"))
		require.True(t, ok)
		assert.Equal(t, "/tmp/work", r.Destination)
	})

	t.Run("nil metrics", func(t *testing.T) {
		t.Parallel()

		l := config.NewRuleLoader(createTempFile(t, "rules: ["))
		assert.NotPanics(t, func() {
			assert.Equal(t, rule.RuleSet{}, l.LoadRules(t.Context()))
		})
	})
}
