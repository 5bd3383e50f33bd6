//go:build darwin || linux || freebsd

package tag

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// XattrReader reads extended attributes with getxattr(2).
type XattrReader struct{}

// NewXattrReader creates a new [XattrReader].
func NewXattrReader() XattrReader {
	return XattrReader{}
}

// ReadAttr returns the raw value of the named attribute. A missing attribute
// is reported as [ErrAttrNotFound].
func (XattrReader) ReadAttr(path, name string) ([]byte, error) {
	for {
		// Probe the size first; the value may grow between calls, so retry
		// on ERANGE.
		size, err := unix.Getxattr(path, name, nil)
		if err != nil {
			return nil, xattrError(path, name, err)
		}

		if size == 0 {
			return []byte{}, nil
		}

		buf := make([]byte, size)

		n, err := unix.Getxattr(path, name, buf)
		if errors.Is(err, unix.ERANGE) {
			continue
		}

		if err != nil {
			return nil, xattrError(path, name, err)
		}

		return buf[:n], nil
	}
}

func xattrError(path, name string, err error) error {
	if isNoAttr(err) {
		return fmt.Errorf("%s: %s: %w", path, name, ErrAttrNotFound)
	}

	if errors.Is(err, unix.ENOTSUP) {
		return fmt.Errorf("%s: %w: %w", path, ErrUnsupported, err)
	}

	return fmt.Errorf("getxattr %s: %w", path, err)
}
