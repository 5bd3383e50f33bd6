package tag

import (
	"errors"

	"golang.org/x/sys/unix"
)

// DefaultAttribute is the extended attribute holding user tags. Linux only
// exposes user-defined attributes in the "user." namespace.
const DefaultAttribute = "user.com.apple.metadata:_kMDItemUserTags"

func isNoAttr(err error) bool {
	return errors.Is(err, unix.ENODATA)
}
