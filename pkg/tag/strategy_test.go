package tag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/macropower/charon/pkg/execs"
	"github.com/macropower/charon/pkg/tag"
)

func mustPlist(t *testing.T, format int, tags ...string) []byte {
	t.Helper()

	b, err := plist.Marshal(tags, format)
	require.NoError(t, err)

	return b
}

func TestPlistStrategy(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		attr    []byte
		want    []string
		wantErr bool
	}{
		"binary": {
			attr: mustPlist(t, plist.BinaryFormat, "Invoices\n6", "ClientA"),
			want: []string{"Invoices\n6", "ClientA"},
		},
		"xml": {
			attr: mustPlist(t, plist.XMLFormat, "Work"),
			want: []string{"Work"},
		},
		"empty attribute": {
			attr: nil,
		},
		"truncated binary": {
			attr:    []byte("bplist00\xa2\x01"),
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := tag.PlistStrategy{}.Tags(t.Context(), &tag.Input{Attr: tc.attr})
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConverterStrategy(t *testing.T) {
	t.Parallel()

	fakePlutil := execs.NewCommand("sh", "-c",
		`cat >/dev/null; printf '<array>\n<string>Invoices</string>\n<string>Client &amp; Co</string>\n</array>'`)

	tcs := map[string]struct {
		cmd     *execs.Command
		attr    []byte
		want    []string
		wantErr bool
	}{
		"signature converted": {
			cmd:  fakePlutil,
			attr: []byte("bplist00garbage"),
			want: []string{"Invoices", "Client & Co"},
		},
		"xml matched directly": {
			cmd:  execs.NewCommand("false"),
			attr: []byte("<plist><array><string>Work</string></array></plist>"),
			want: []string{"Work"},
		},
		"no converter configured": {
			attr: []byte("bplist00garbage"),
		},
		"converter fails": {
			cmd:     execs.NewCommand("false"),
			attr:    []byte("bplist00garbage"),
			wantErr: true,
		},
		"not a property list": {
			cmd:  fakePlutil,
			attr: []byte("Invoices,Work"),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := tag.NewConverterStrategy(tc.cmd).Tags(t.Context(), &tag.Input{Attr: tc.attr})
			if tc.wantErr {
				require.ErrorIs(t, err, execs.ErrCommandExecution)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseQueryOutput(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		out  string
		want []string
	}{
		"multi line": {
			out:  "(\n    Invoices,\n    \"Client A\"\n)\n",
			want: []string{"Invoices", "Client A"},
		},
		"single line": {
			out:  `(Work, Personal)`,
			want: []string{"Work", "Personal"},
		},
		"empty fields dropped": {
			out:  "(\n    Work,\n    ,\n    \"\"\n)",
			want: []string{"Work"},
		},
		"null": {
			out: "(null)",
		},
		"empty": {
			out: "  \n",
		},
		"empty list": {
			out: "(\n)",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tag.ParseQueryOutput(tc.out))
		})
	}
}

func TestQueryStrategy(t *testing.T) {
	t.Parallel()

	// The file path is appended as the last argument, i.e. $1 for sh -c.
	fakeMdls := execs.NewCommand("sh", "-c", `printf '(\n    Invoices,\n    "%s"\n)' "$(basename "$1")"`, "mdls")

	got, err := tag.NewQueryStrategy(fakeMdls).Tags(t.Context(), &tag.Input{Path: "/tmp/Client A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoices", "Client A"}, got)

	got, err = tag.NewQueryStrategy(nil).Tags(t.Context(), &tag.Input{Path: "/tmp/x"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = tag.NewQueryStrategy(execs.NewCommand("false")).Tags(t.Context(), &tag.Input{Path: "/tmp/x"})
	require.ErrorIs(t, err, execs.ErrCommandExecution)
}

func TestHeuristicStrategy(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		attr []byte
		want []string
	}{
		"signature dropped": {
			attr: []byte("bplist00\x00\x01Invoices\x00Work\x08"),
			want: []string{"Invoices", "Work"},
		},
		"single characters dropped": {
			attr: []byte("a,Work;b"),
			want: []string{"Work"},
		},
		"delimited text": {
			attr: []byte("Invoices,ClientA"),
			want: []string{"Invoices", "ClientA"},
		},
		"empty": {
			attr: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := tag.HeuristicStrategy{}.Tags(t.Context(), &tag.Input{Attr: tc.attr})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
