//go:build !darwin && !linux && !freebsd

package tag

// DefaultAttribute is the extended attribute holding user tags.
const DefaultAttribute = "com.apple.metadata:_kMDItemUserTags"

// XattrReader always fails with [ErrUnsupported] on this platform.
type XattrReader struct{}

// NewXattrReader creates a new [XattrReader].
func NewXattrReader() XattrReader {
	return XattrReader{}
}

func (XattrReader) ReadAttr(_, _ string) ([]byte, error) {
	return nil, ErrUnsupported
}
