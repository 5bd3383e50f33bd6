package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/charon/pkg/config"
)

const (
	rulesExamples = `  # List the active rules in evaluation order:
  charon rules

  # Fail if the rules document is malformed:
  charon rules --validate`
)

type RulesArgs struct {
	*RootArgs

	Validate bool
}

func NewRulesCmd(rootArgs *RootArgs) *cobra.Command {
	ra := &RulesArgs{RootArgs: rootArgs}
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "Print the active rules",
		Example: rulesExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd, ra)
		},
	}
	cmd.Flags().BoolVar(&ra.Validate, "validate", false, "Exit with an error if the rules document is invalid")

	bindEnvVars(cmd)

	return cmd
}

func runRules(cmd *cobra.Command, ra *RulesArgs) error {
	cfg, err := loadConfig(ra.RootArgs)
	if err != nil {
		return err
	}

	loader := config.NewRuleLoader(expandPath(cfg.RulesPath))
	p := newPrinter(cmd.OutOrStdout())

	rs, err := loader.Load(cmd.Context())
	if err != nil {
		if ra.Validate {
			return err //nolint:wrapcheck // Already names the document.
		}

		slog.Warn("using empty rule set", slog.Any("err", err))
	}

	p.Line(p.header, fmt.Sprintf("Rules (%s):", loader.Path()))

	if len(rs) == 0 {
		p.Line(p.subtle, "no rules")

		return nil
	}

	for i, r := range rs {
		p.Row(p.subtle, fmt.Sprintf("%d.", i+1), r.String())
	}

	return nil
}
