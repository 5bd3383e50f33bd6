package tag

import (
	"log/slog"
	"strings"
)

// Set is the set of tags attached to one file at the moment of inspection.
// Duplicates collapse; the first-seen order is kept for display.
// The zero value is an empty set.
type Set struct {
	index map[string]struct{}
	tags  []string
}

// NewSet creates a [Set] from tags. Each tag is normalized with [Normalize]
// and empty tags are dropped.
func NewSet(tags ...string) Set {
	s := Set{index: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		t = Normalize(t)
		if t == "" {
			continue
		}

		if _, ok := s.index[t]; ok {
			continue
		}

		s.index[t] = struct{}{}
		s.tags = append(s.tags, t)
	}

	return s
}

// Normalize trims surrounding whitespace and drops the optional color
// suffix that follows a tag name after a newline (e.g. "Invoices\n6").
func Normalize(t string) string {
	if name, _, ok := strings.Cut(t, "\n"); ok {
		t = name
	}

	return strings.TrimSpace(t)
}

// Len returns the number of distinct tags.
func (s Set) Len() int {
	return len(s.tags)
}

// Empty reports whether the set has no tags.
func (s Set) Empty() bool {
	return len(s.tags) == 0
}

// Has reports whether the set contains t. The comparison is case-sensitive.
func (s Set) Has(t string) bool {
	_, ok := s.index[t]

	return ok
}

// Tags returns a copy of the tags in first-seen order.
func (s Set) Tags() []string {
	return append([]string(nil), s.tags...)
}

// Equal reports whether both sets hold exactly the same tags.
func (s Set) Equal(o Set) bool {
	if s.Len() != o.Len() {
		return false
	}

	for _, t := range s.tags {
		if !o.Has(t) {
			return false
		}
	}

	return true
}

func (s Set) String() string {
	return "[" + strings.Join(s.tags, ", ") + "]"
}

// LogValue implements [slog.LogValuer].
func (s Set) LogValue() slog.Value {
	return slog.AnyValue(s.Tags())
}
