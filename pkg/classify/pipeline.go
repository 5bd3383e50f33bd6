package classify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/charon/pkg/log"
	"github.com/macropower/charon/pkg/metrics"
	"github.com/macropower/charon/pkg/relocate"
	"github.com/macropower/charon/pkg/rule"
	"github.com/macropower/charon/pkg/tag"
	"github.com/macropower/charon/pkg/watch"
)

// DefaultWorkers is the default number of concurrent classifications.
const DefaultWorkers = 4

// Extractor reads a file's tags and names the stage that produced them.
type Extractor interface {
	ExtractStage(ctx context.Context, path string) (tag.Set, string)
}

// RuleLoader loads the current rule set. It is called once per
// classification and never fails; problems yield an empty set.
type RuleLoader interface {
	LoadRules(ctx context.Context) rule.RuleSet
}

// Relocator moves a file into a directory.
type Relocator interface {
	Relocate(ctx context.Context, source, destinationDir string) relocate.Outcome
}

// Pipeline classifies files.
type Pipeline struct {
	extractor Extractor
	loader    RuleLoader
	relocator Relocator
	fs        afero.Fs
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	workers   int
	dryRun    bool
}

// Opt configures a [Pipeline].
type Opt func(*Pipeline)

// WithWorkers sets the number of concurrent classifications in
// [Pipeline.Run] and [Pipeline.Scan].
func WithWorkers(n int) Opt {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMetrics records every classification in m.
func WithMetrics(m *metrics.Metrics) Opt {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithDryRun matches rules without moving anything.
func WithDryRun(dryRun bool) Opt {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// WithFs sets the filesystem used to list and stat files. Defaults to
// [afero.NewOsFs].
func WithFs(fsys afero.Fs) Opt {
	return func(p *Pipeline) {
		p.fs = fsys
	}
}

// New creates a new [Pipeline].
func New(extractor Extractor, loader RuleLoader, relocator Relocator, opts ...Opt) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		loader:    loader,
		relocator: relocator,
		fs:        afero.NewOsFs(),
		tracer:    otel.Tracer("pipeline"),
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Classify runs the whole pipeline for the file at path. The file is moved
// at most once. Failures are logged and reported in the [Result], never
// returned.
func (p *Pipeline) Classify(ctx context.Context, path string) (res Result) {
	start := time.Now()
	res = Result{ID: uuid.NewString(), Path: path, Stage: tag.StageNone}

	ctx, span := p.tracer.Start(ctx, "classify", trace.WithAttributes(
		attribute.String("id", res.ID),
		attribute.String("path", path),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(
		slog.String("id", res.ID),
		slog.String("path", path),
	)
	ctx = log.NewContext(ctx, logger)

	defer func() {
		res.Duration = time.Since(start)
		span.SetAttributes(attribute.String("result", res.Status()))
		p.metrics.ObserveClassification(res.Status(), res.Duration)
	}()

	info, err := p.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		res.Skipped = true

		logger.DebugContext(ctx, "skipping file", slog.Any("err", err))

		return res
	}

	res.Tags, res.Stage = p.extractor.ExtractStage(ctx, path)
	p.metrics.ObserveExtraction(res.Stage)

	if res.Tags.Empty() {
		logger.DebugContext(ctx, "file has no tags")

		return res
	}

	rules := p.loader.LoadRules(ctx)

	r, ok := rules.Match(res.Tags)
	if !ok {
		logger.InfoContext(ctx, "no matching rule",
			slog.Any("tags", res.Tags),
			slog.Int("rules", len(rules)),
		)

		return res
	}

	res.Rule = r

	if p.dryRun {
		logger.InfoContext(ctx, "file matches rule",
			slog.Any("tags", res.Tags),
			slog.Any("rule", r),
		)

		return res
	}

	res.Outcome = p.relocator.Relocate(ctx, path, r.Destination)

	switch {
	case res.Outcome.Succeeded:
	case res.Outcome.Reason == relocate.ReasonInPlace:
		logger.DebugContext(ctx, "file is already in its destination")
	case res.Outcome.Reason == relocate.ReasonAlreadyExists:
		logger.WarnContext(ctx, "destination already has a file with this name",
			slog.String("destination", res.Outcome.Destination),
		)
	default:
		logger.ErrorContext(ctx, "move file",
			slog.String("destination", res.Outcome.Destination),
			slog.Any("err", res.Outcome.Err),
		)
	}

	return res
}

// Run classifies the file of every event until events is closed or ctx is
// done. At most the configured number of workers run at once; in-flight
// classifications are allowed to finish before Run returns.
func (p *Pipeline) Run(ctx context.Context, events <-chan watch.ChangeEvent) error {
	var g errgroup.Group

	g.SetLimit(p.workers)

	// Work already handed to a worker is not cancelled.
	workCtx := context.WithoutCancel(ctx)

	var err error

loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()

			break loop

		case evt, ok := <-events:
			if !ok {
				break loop
			}

			p.metrics.ObserveEvent()

			g.Go(func() error {
				p.Classify(workCtx, evt.Path)

				return nil
			})
		}
	}

	waitErr := g.Wait()

	return errors.Join(err, waitErr)
}

// Scan classifies every regular file under dir once, descending into
// subdirectories. Results are returned in lexical order.
func (p *Pipeline) Scan(ctx context.Context, dir string) ([]Result, error) {
	var paths []string

	err := afero.Walk(p.fs, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			results[i] = p.Classify(gctx, path)

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, ctx.Err())
	}

	return results, nil
}
