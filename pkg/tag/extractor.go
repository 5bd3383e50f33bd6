package tag

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/charon/pkg/log"
)

// StageNone is reported when no strategy produced a tag.
const StageNone = "none"

// Extractor reads a file's tag attribute and runs it through an ordered
// chain of [Strategy] values.
type Extractor struct {
	tracer     trace.Tracer
	reader     AttrReader
	attribute  string
	strategies []Strategy
}

// ExtractorOpt configures an [Extractor].
type ExtractorOpt func(*Extractor)

// WithAttrReader sets the attribute reader. Defaults to [XattrReader].
func WithAttrReader(r AttrReader) ExtractorOpt {
	return func(e *Extractor) {
		e.reader = r
	}
}

// WithAttribute sets the attribute name. Defaults to [DefaultAttribute].
func WithAttribute(name string) ExtractorOpt {
	return func(e *Extractor) {
		if name != "" {
			e.attribute = name
		}
	}
}

// WithStrategies replaces the strategy chain. Strategies run in the given
// order.
func WithStrategies(strategies ...Strategy) ExtractorOpt {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// NewExtractor creates a new [Extractor]. Without [WithStrategies] only the
// in-process strategies ([PlistStrategy], [HeuristicStrategy]) are used.
func NewExtractor(opts ...ExtractorOpt) *Extractor {
	e := &Extractor{
		tracer:     otel.Tracer("tag-extractor"),
		reader:     NewXattrReader(),
		attribute:  DefaultAttribute,
		strategies: []Strategy{PlistStrategy{}, HeuristicStrategy{}},
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Attribute returns the name of the attribute being read.
func (e *Extractor) Attribute() string {
	return e.attribute
}

// Extract returns the tags of the file at path. It never fails: problems are
// logged and result in an empty [Set].
func (e *Extractor) Extract(ctx context.Context, path string) Set {
	tags, _ := e.ExtractStage(ctx, path)

	return tags
}

// ExtractStage is like [Extractor.Extract] and also returns the name of the
// strategy that produced the tags, or [StageNone].
func (e *Extractor) ExtractStage(ctx context.Context, path string) (Set, string) {
	ctx, span := e.tracer.Start(ctx, "extract", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("path", path))

	in := &Input{Path: path}

	in.Attr, in.AttrErr = e.reader.ReadAttr(path, e.attribute)
	if in.AttrErr != nil && !errors.Is(in.AttrErr, ErrAttrNotFound) {
		logger.WarnContext(ctx, "read tag attribute",
			slog.String("attribute", e.attribute),
			slog.Any("err", in.AttrErr),
		)
	}

	var errs []error

	for _, s := range e.strategies {
		found, err := s.Tags(ctx, in)
		if err != nil {
			errs = append(errs, err)
			logger.DebugContext(ctx, "extraction stage failed",
				slog.String("stage", s.Name()),
				slog.Any("err", err),
			)
		}

		tags := NewSet(found...)
		if tags.Empty() {
			continue
		}

		span.SetAttributes(
			attribute.String("stage", s.Name()),
			attribute.StringSlice("tags", tags.Tags()),
		)
		logger.DebugContext(ctx, "tags extracted",
			slog.String("stage", s.Name()),
			slog.Any("tags", tags),
		)

		return tags, s.Name()
	}

	if len(errs) > 0 {
		logger.InfoContext(ctx, "no readable tags",
			slog.Any("err", errors.Join(append(errs, ErrNoTags)...)),
		)
	}

	return Set{}, StageNone
}
