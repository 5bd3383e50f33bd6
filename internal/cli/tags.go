package cli

import (
	"github.com/spf13/cobra"

	"github.com/macropower/charon/pkg/tag"
)

const (
	tagsExamples = `  # Show the tags charon reads from a file:
  charon tags ~/Desktop/invoice.pdf`
)

func NewTagsCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags <file>...",
		Short:   "Print the tags of files and the stage that extracted them",
		Example: tagsExamples,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootArgs)
			if err != nil {
				return err
			}

			extractor := tag.NewExtractor(cfg.Tags.ExtractorOpts()...)
			p := newPrinter(cmd.OutOrStdout())

			for _, path := range args {
				tags, stage := extractor.ExtractStage(cmd.Context(), expandPath(path))

				style := p.success
				if tags.Empty() {
					style = p.subtle
				}

				p.Row(style, stage, path, tags.String())
			}

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}
