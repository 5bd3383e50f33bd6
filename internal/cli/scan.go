package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/macropower/charon/pkg/classify"
	"github.com/macropower/charon/pkg/metrics"
	"github.com/macropower/charon/pkg/relocate"
)

const (
	scanExamples = `  # Classify everything already in the watched directory:
  charon scan

  # Show what would move, without moving anything:
  charon scan ~/Downloads --dry-run`
)

type ScanArgs struct {
	*RootArgs

	Path    string
	Workers int
	DryRun  bool
}

func NewScanArgs(rootArgs *RootArgs) *ScanArgs {
	return &ScanArgs{
		RootArgs: rootArgs,
	}
}

func (sa *ScanArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&sa.DryRun, "dry-run", false, "Print matching rules without moving files")
	cmd.Flags().IntVar(&sa.Workers, "workers", 0, workersUsage)
}

func NewScanCmd(rootArgs *RootArgs) *cobra.Command {
	sa := NewScanArgs(rootArgs)
	cmd := &cobra.Command{
		Use:               "scan [dir]",
		Short:             "Classify every file currently under a directory once",
		Example:           scanExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: dirCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				sa.Path = args[0]
			}

			return runScan(cmd, sa)
		},
	}
	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runScan(cmd *cobra.Command, sa *ScanArgs) error {
	cfg, err := loadConfig(sa.RootArgs)
	if err != nil {
		return err
	}

	if sa.Path != "" {
		cfg.Watch.Path = sa.Path
	}

	err = overrideWorkers(cfg, sa.Workers)
	if err != nil {
		return err
	}

	rel := relocate.New()

	dir, err := rel.ExpandPath(cfg.Watch.Path)
	if err != nil {
		return fmt.Errorf("scan %q: %w", cfg.Watch.Path, err)
	}

	p := newPipeline(cfg, metrics.New(prometheus.NewRegistry()), rel, sa.DryRun)

	slog.Debug("scanning directory", slog.String("path", dir), slog.Bool("dry_run", sa.DryRun))

	results, err := p.Scan(cmd.Context(), dir)
	if err != nil {
		return err //nolint:wrapcheck // Scan names the directory.
	}

	printResults(newPrinter(cmd.OutOrStdout()), results)

	return nil
}

func printResults(p *printer, results []classify.Result) {
	for _, res := range results {
		style := p.subtle

		switch res.Status() {
		case metrics.ResultMoved, metrics.ResultMatched:
			style = p.success

		case metrics.ResultAlreadyExists:
			style = p.warning

		case metrics.ResultIOFailure:
			style = p.failure
		}

		dest := "-"
		if res.Rule != nil {
			dest = res.Rule.Destination
		}

		p.Row(style, res.Status(), res.Path, res.Tags.String(), dest)
	}
}
