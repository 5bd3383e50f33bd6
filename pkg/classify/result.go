package classify

import (
	"log/slog"
	"time"

	"github.com/macropower/charon/pkg/metrics"
	"github.com/macropower/charon/pkg/relocate"
	"github.com/macropower/charon/pkg/rule"
	"github.com/macropower/charon/pkg/tag"
)

// Result describes one classification. It is not persisted.
type Result struct {
	Rule     *rule.Rule
	Outcome  relocate.Outcome
	ID       string
	Path     string
	Stage    string
	Tags     tag.Set
	Duration time.Duration
	// Skipped is set when the path was gone or not a regular file.
	Skipped bool
}

// Matched reports whether a rule matched the file.
func (r Result) Matched() bool {
	return r.Rule != nil
}

// Status summarizes the result with one of the metrics result labels.
func (r Result) Status() string {
	switch {
	case r.Skipped:
		return metrics.ResultSkipped
	case r.Tags.Empty():
		return metrics.ResultNoTags
	case r.Rule == nil:
		return metrics.ResultNoMatch
	case r.Outcome.Succeeded:
		return metrics.ResultMoved
	case r.Outcome.Reason == relocate.ReasonAlreadyExists:
		return metrics.ResultAlreadyExists
	case r.Outcome.Reason == relocate.ReasonIOFailure:
		return metrics.ResultIOFailure
	}

	return metrics.ResultMatched
}

// LogValue implements [slog.LogValuer].
func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", r.ID),
		slog.String("path", r.Path),
		slog.String("status", r.Status()),
		slog.Duration("duration", r.Duration),
	}
	if !r.Tags.Empty() {
		attrs = append(attrs, slog.Any("tags", r.Tags), slog.String("stage", r.Stage))
	}

	if r.Rule != nil {
		attrs = append(attrs, slog.Any("rule", r.Rule))
	}

	return slog.GroupValue(attrs...)
}
