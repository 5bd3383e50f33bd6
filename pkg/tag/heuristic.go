package tag

import (
	"context"
	"strings"
	"unicode"
)

// HeuristicStrategy is the last resort: it reads the raw attribute as text,
// splits it on every non-alphanumeric rune, and keeps tokens longer than one
// character other than the property list header. Structural bytes of the
// encoding can leak through as false positives.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string {
	return "heuristic"
}

func (HeuristicStrategy) Tags(_ context.Context, in *Input) ([]string, error) {
	if len(in.Attr) == 0 {
		return nil, nil
	}

	fields := strings.FieldsFunc(string(in.Attr), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tags []string
	for _, f := range fields {
		if len([]rune(f)) <= 1 || strings.HasPrefix(f, Signature) {
			continue
		}

		tags = append(tags, f)
	}

	return tags, nil
}
