package tag

import "errors"

var (
	// ErrAttrNotFound is returned by an [AttrReader] when the file has no
	// tag attribute.
	ErrAttrNotFound = errors.New("attribute not found")

	// ErrUnsupported is returned by an [AttrReader] on platforms without
	// extended attribute support.
	ErrUnsupported = errors.New("extended attributes not supported")

	// ErrNoTags is reported when no strategy produced a tag.
	ErrNoTags = errors.New("no tags")
)

// AttrReader reads a named extended attribute from a file.
type AttrReader interface {
	ReadAttr(path, name string) ([]byte, error)
}

// AttrReaderFunc adapts a function to an [AttrReader].
type AttrReaderFunc func(path, name string) ([]byte, error)

func (f AttrReaderFunc) ReadAttr(path, name string) ([]byte, error) {
	return f(path, name)
}
