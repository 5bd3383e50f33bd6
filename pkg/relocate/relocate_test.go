package relocate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/charon/pkg/relocate"
)

const home = "/home/user"

func newMemFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}

	return fsys
}

func TestRelocator_Relocate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		files       map[string]string
		source      string
		destDir     string
		wantDest    string
		wantReason  relocate.Reason
		wantErr     error
		wantSuccess bool
	}{
		"moves into existing directory": {
			files: map[string]string{
				"/desk/invoice.pdf":   "new",
				"/out/Invoices/a.pdf": "a",
			},
			source:      "/desk/invoice.pdf",
			destDir:     "/out/Invoices",
			wantDest:    "/out/Invoices/invoice.pdf",
			wantSuccess: true,
		},
		"creates missing directory": {
			files:       map[string]string{"/desk/invoice.pdf": "new"},
			source:      "/desk/invoice.pdf",
			destDir:     "/out/a/b/c",
			wantDest:    "/out/a/b/c/invoice.pdf",
			wantSuccess: true,
		},
		"expands home": {
			files:       map[string]string{"/desk/plan.txt": "plan"},
			source:      "/desk/plan.txt",
			destDir:     "~/Documents/Work",
			wantDest:    "/home/user/Documents/Work/plan.txt",
			wantSuccess: true,
		},
		"never overwrites": {
			files: map[string]string{
				"/desk/invoice.pdf":         "new",
				"/out/Invoices/invoice.pdf": "old",
			},
			source:     "/desk/invoice.pdf",
			destDir:    "/out/Invoices",
			wantDest:   "/out/Invoices/invoice.pdf",
			wantReason: relocate.ReasonAlreadyExists,
			wantErr:    relocate.ErrAlreadyExists,
		},
		"already in destination": {
			files:      map[string]string{"/out/Invoices/invoice.pdf": "a"},
			source:     "/out/Invoices/invoice.pdf",
			destDir:    "/out/Invoices/",
			wantDest:   "/out/Invoices/invoice.pdf",
			wantReason: relocate.ReasonInPlace,
		},
		"missing source": {
			source:     "/desk/gone.pdf",
			destDir:    "/out",
			wantDest:   "/out/gone.pdf",
			wantReason: relocate.ReasonIOFailure,
			wantErr:    relocate.ErrIOFailure,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fsys := newMemFs(t, tc.files)
			r := relocate.New(relocate.WithFs(fsys), relocate.WithHomeDir(home))

			out := r.Relocate(t.Context(), tc.source, tc.destDir)

			assert.Equal(t, tc.source, out.Source)
			assert.Equal(t, tc.wantDest, out.Destination)
			assert.Equal(t, tc.wantSuccess, out.Succeeded)
			assert.Equal(t, tc.wantReason, out.Reason)

			if tc.wantErr != nil {
				require.ErrorIs(t, out.Err, tc.wantErr)
			} else {
				require.NoError(t, out.Err)
			}

			if !tc.wantSuccess {
				// Nothing was touched.
				for path, content := range tc.files {
					got, err := afero.ReadFile(fsys, path)
					require.NoError(t, err)
					assert.Equal(t, content, string(got))
				}

				return
			}

			exists, err := afero.Exists(fsys, tc.source)
			require.NoError(t, err)
			assert.False(t, exists, "source should be gone")

			got, err := afero.ReadFile(fsys, tc.wantDest)
			require.NoError(t, err)
			assert.Equal(t, tc.files[tc.source], string(got))
		})
	}
}

func TestRelocator_ReadOnly(t *testing.T) {
	t.Parallel()

	fsys := afero.NewReadOnlyFs(newMemFs(t, map[string]string{"/desk/a.pdf": "a"}))
	r := relocate.New(relocate.WithFs(fsys))

	out := r.Relocate(t.Context(), "/desk/a.pdf", "/out")
	assert.False(t, out.Succeeded)
	assert.Equal(t, relocate.ReasonIOFailure, out.Reason)
	require.ErrorIs(t, out.Err, relocate.ErrIOFailure)
}

func TestRelocator_OsFs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "desk", "invoice.pdf")
	dest := filepath.Join(dir, "out", "Invoices")

	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o600))
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "invoice.pdf"), []byte("old"), 0o600))

	r := relocate.New()

	out := r.Relocate(t.Context(), src, dest)
	assert.False(t, out.Succeeded)
	assert.Equal(t, relocate.ReasonAlreadyExists, out.Reason)

	got, err := os.ReadFile(filepath.Join(dest, "invoice.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	assert.FileExists(t, src)

	require.NoError(t, os.Remove(filepath.Join(dest, "invoice.pdf")))

	out = r.Relocate(t.Context(), src, dest)
	require.True(t, out.Succeeded, out.Err)
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(dest, "invoice.pdf"))
}

func TestRelocator_OsFs_DanglingSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "desk", "a.txt")
	dest := filepath.Join(dir, "out")
	link := filepath.Join(dest, "a.txt")

	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o600))
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), link))

	out := relocate.New().Relocate(t.Context(), src, dest)
	assert.False(t, out.Succeeded)
	assert.Equal(t, relocate.ReasonAlreadyExists, out.Reason)
	require.ErrorIs(t, out.Err, relocate.ErrAlreadyExists)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSymlink, info.Mode().Type())
	assert.FileExists(t, src)
}

func TestRelocator_ExpandPath(t *testing.T) {
	t.Parallel()

	r := relocate.New(relocate.WithHomeDir(home))

	tcs := map[string]struct {
		in   string
		want string
	}{
		"home":          {in: "~", want: home},
		"under home":    {in: "~/Documents/Invoices", want: "/home/user/Documents/Invoices"},
		"absolute":      {in: "/out/Invoices", want: "/out/Invoices"},
		"cleaned":       {in: "/out//Invoices/", want: "/out/Invoices"},
		"other user":    {in: "/out/~bob", want: "/out/~bob"},
		"padded":        {in: "  ~/Work ", want: "/home/user/Work"},
		"tilde in name": {in: "/out/~", want: "/out/~"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := r.ExpandPath(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReason_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", relocate.ReasonNone.String())
	assert.Equal(t, "already exists", relocate.ReasonAlreadyExists.String())
	assert.Equal(t, "io failure", relocate.ReasonIOFailure.String())
	assert.Equal(t, "in place", relocate.ReasonInPlace.String())
	assert.Equal(t, "Reason(9)", relocate.Reason(9).String())
}
