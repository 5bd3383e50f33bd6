package tag

import (
	"context"
	"fmt"

	"howett.net/plist"
)

// PlistStrategy decodes the attribute as a property list of strings. All
// property list formats (binary, XML, OpenStep) are accepted.
type PlistStrategy struct{}

func (PlistStrategy) Name() string {
	return "plist"
}

func (PlistStrategy) Tags(_ context.Context, in *Input) ([]string, error) {
	if len(in.Attr) == 0 {
		return nil, nil
	}

	var tags []string

	_, err := plist.Unmarshal(in.Attr, &tags)
	if err != nil {
		return nil, fmt.Errorf("decode property list: %w", err)
	}

	return tags, nil
}
