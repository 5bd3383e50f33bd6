package tag_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"howett.net/plist"

	"github.com/macropower/charon/pkg/tag"
)

func TestXattrReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	r := tag.NewXattrReader()

	_, err := r.ReadAttr(path, tag.DefaultAttribute)
	if errors.Is(err, tag.ErrUnsupported) {
		t.Skip("filesystem does not support user extended attributes")
	}

	require.ErrorIs(t, err, tag.ErrAttrNotFound)

	value, err := plist.Marshal([]string{"Invoices"}, plist.BinaryFormat)
	require.NoError(t, err)

	err = unix.Setxattr(path, tag.DefaultAttribute, value, 0)
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EPERM) {
		t.Skip("filesystem does not support user extended attributes")
	}

	require.NoError(t, err)

	got, err := r.ReadAttr(path, tag.DefaultAttribute)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	tags := tag.NewExtractor().Extract(t.Context(), path)
	assert.Equal(t, []string{"Invoices"}, tags.Tags())
}
