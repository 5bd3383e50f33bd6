//go:build linux

package relocate

import (
	"errors"

	"golang.org/x/sys/unix"
)

func renameNoReplace(source, target string) error {
	err := unix.Renameat2(unix.AT_FDCWD, source, unix.AT_FDCWD, target, unix.RENAME_NOREPLACE)
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EINVAL) {
		// Kernel or filesystem without RENAME_NOREPLACE.
		return linkAndRemove(source, target)
	}

	return err //nolint:wrapcheck // Wrapped by the caller.
}
