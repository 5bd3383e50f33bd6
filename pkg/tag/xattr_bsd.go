//go:build darwin || freebsd

package tag

import (
	"errors"

	"golang.org/x/sys/unix"
)

// DefaultAttribute is the extended attribute holding user tags.
const DefaultAttribute = "com.apple.metadata:_kMDItemUserTags"

func isNoAttr(err error) bool {
	return errors.Is(err, unix.ENOATTR)
}
