package tag

import (
	"bytes"
	"context"
)

// Signature is the magic prefix of a binary property list.
const Signature = "bplist"

// Input is what a [Strategy] works from. Attr holds the raw attribute value
// and is empty when the attribute could not be read; AttrErr records why.
type Input struct {
	AttrErr error
	Path    string
	Attr    []byte
}

// HasSignature reports whether the raw attribute starts with [Signature].
func (in *Input) HasSignature() bool {
	return bytes.HasPrefix(in.Attr, []byte(Signature))
}

// Strategy is one stage of the extraction chain. It returns the tags it
// found, or none. An error describes why the stage could not produce tags
// and is only logged.
type Strategy interface {
	Name() string
	Tags(ctx context.Context, in *Input) ([]string, error)
}
