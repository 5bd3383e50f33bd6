package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/charon/api/v1beta1/configs"
	"github.com/macropower/charon/pkg/classify"
	"github.com/macropower/charon/pkg/config"
	"github.com/macropower/charon/pkg/metrics"
	"github.com/macropower/charon/pkg/relocate"
	"github.com/macropower/charon/pkg/tag"
	"github.com/macropower/charon/pkg/telemetry"
	"github.com/macropower/charon/pkg/version"
	"github.com/macropower/charon/pkg/watch"
)

const (
	watchExamples = `  # Watch the configured directory (default ~/Desktop):
  charon

  # Watch another directory:
  charon watch ~/Downloads

  # Log matches without moving anything:
  charon watch --dry-run

  # Expose Prometheus metrics:
  charon --metrics-address 127.0.0.1:9090`
)

type WatchArgs struct {
	*RootArgs

	Path            string
	MetricsAddress  string
	TracingEndpoint string
	Workers         int
	DryRun          bool
}

func NewWatchArgs(rootArgs *RootArgs) *WatchArgs {
	return &WatchArgs{
		RootArgs: rootArgs,
	}
}

func (wa *WatchArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&wa.DryRun, "dry-run", false, "Log matching rules without moving files")
	cmd.Flags().StringVar(&wa.MetricsAddress, "metrics-address", "", "Serve Prometheus metrics at the specified address")
	cmd.Flags().StringVar(&wa.TracingEndpoint, "tracing-endpoint", "", "Export traces to the specified OTLP/gRPC endpoint")
	cmd.Flags().IntVar(&wa.Workers, "workers", 0, workersUsage)
}

func NewWatchCmd(wa *WatchArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "watch [dir]",
		Short:             "Default command, watch a directory and move tagged files",
		Example:           watchExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: dirCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				wa.Path = args[0]
			}

			return runWatch(cmd, wa)
		},
	}
	wa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func dirCompletion(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveFilterDirs
	}

	return nil, cobra.ShellCompDirectiveNoFileComp
}

func runWatch(cmd *cobra.Command, wa *WatchArgs) error {
	cfg, err := loadConfig(wa.RootArgs)
	if err != nil {
		return err
	}

	if wa.Path != "" {
		cfg.Watch.Path = wa.Path
	}

	err = overrideWorkers(cfg, wa.Workers)
	if err != nil {
		return err
	}

	if wa.MetricsAddress != "" {
		cfg.Metrics.Address = wa.MetricsAddress
	}

	if wa.TracingEndpoint != "" {
		cfg.Tracing.Endpoint = wa.TracingEndpoint
	}

	ctx := cmd.Context()

	shutdown, err := telemetry.Setup(ctx, cfg.Tracing.Endpoint, version.GetVersion())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := shutdown(shutdownCtx)
		if err != nil {
			slog.Error("shutdown tracing", slog.Any("err", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(reg)
	rel := relocate.New()

	root, err := rel.ExpandPath(cfg.Watch.Path)
	if err != nil {
		return fmt.Errorf("watch %q: %w", cfg.Watch.Path, err)
	}

	w, err := watch.New(root, cfg.Watch.Options(slog.Default())...)
	if err != nil {
		return fmt.Errorf("watch %q: %w", root, err)
	}

	defer func() {
		err := w.Close()
		if err != nil {
			slog.Error("close watcher", slog.Any("err", err))
		}
	}()

	m.RegisterDropped(w.Dropped)

	p := newPipeline(cfg, m, rel, wa.DryRun)

	slog.Info("watching for tagged files",
		slog.String("path", w.Root()),
		slog.String("rules", expandPath(cfg.RulesPath)),
		slog.Int("workers", cfg.Workers),
		slog.Bool("dry_run", wa.DryRun),
		slog.Any("build", version.Get()),
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Address != "" {
		g.Go(func() error {
			slog.Info("serving metrics", slog.String("address", cfg.Metrics.Address))

			return metrics.Serve(gctx, cfg.Metrics.Address, reg)
		})
	}

	g.Go(func() error {
		return p.Run(gctx, w.Events())
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch %q: %w", w.Root(), err)
	}

	slog.Info("stopped watching", slog.String("path", w.Root()))

	return nil
}

const workersUsage = "Classify at most this many files at once (0 keeps the configured value)"

var errInvalidWorkers = errors.New("--workers must not be negative")

// overrideWorkers replaces the configured worker count with n when n is set.
func overrideWorkers(cfg *configs.Config, n int) error {
	switch {
	case n < 0:
		return fmt.Errorf("%w: %d", errInvalidWorkers, n)
	case n > 0:
		cfg.Workers = n
	}

	return nil
}

// newPipeline wires the extractor, rule loader and relocator described by
// cfg into a [classify.Pipeline].
func newPipeline(cfg *configs.Config, m *metrics.Metrics, rel *relocate.Relocator, dryRun bool) *classify.Pipeline {
	extractor := tag.NewExtractor(cfg.Tags.ExtractorOpts()...)
	loader := config.NewRuleLoader(expandPath(cfg.RulesPath), config.WithRuleMetrics(m))

	return classify.New(extractor, loader, rel,
		classify.WithWorkers(cfg.Workers),
		classify.WithMetrics(m),
		classify.WithDryRun(dryRun),
	)
}

// expandPath expands a leading "~". The path is returned unchanged when the
// home directory is unknown.
func expandPath(path string) string {
	expanded, err := relocate.New().ExpandPath(path)
	if err != nil {
		return path
	}

	return expanded
}
