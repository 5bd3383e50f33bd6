package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/charon/api/v1beta1/configs"
	"github.com/macropower/charon/api/v1beta1/rulesets"
	"github.com/macropower/charon/pkg/config"
	"github.com/macropower/charon/pkg/log"
)

const (
	cmdName = "charon"
	cmdDesc = `Move tagged files into the folders their rules name.`
)

type RootArgs struct {
	LogLevel    string
	LogFormat   string
	ConfigPath  string
	WriteConfig bool
	ShowConfig  bool
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the charon configuration file")

	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration files and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	watchArgs := NewWatchArgs(args)

	watchCmd := NewWatchCmd(watchArgs)
	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           watchExamples,
		PersistentPreRunE: setupLogging(args),
		ValidArgsFunction: watchCmd.ValidArgsFunction,
		Args:              watchCmd.Args,
		RunE: func(cmd *cobra.Command, a []string) error {
			if args.WriteConfig || args.ShowConfig {
				return runConfig(cmd, args)
			}

			return watchCmd.RunE(cmd, a)
		},
	}

	args.AddFlags(cmd)
	watchArgs.AddFlags(cmd)
	cmd.AddCommand(
		watchCmd,
		NewScanCmd(args),
		NewTagsCmd(args),
		NewRulesCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.NewHandler(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		return nil
	}
}

func (ra *RootArgs) configPath() string {
	if ra.ConfigPath != "" {
		return ra.ConfigPath
	}

	return configs.GetPath()
}

// loadConfig writes the default documents on first run, then loads the
// configuration. A missing or unreadable file falls back to the defaults; an
// invalid one is an error.
func loadConfig(ra *RootArgs) (*configs.Config, error) {
	configPath := ra.configPath()

	err := configs.WriteDefault(configPath, false)
	if err != nil {
		slog.Error("write default config", slog.Any("err", err))
	}

	cfg := configs.New()

	cl, err := config.NewLoaderFromFile(configPath, configs.New, configs.DefaultValidator)
	if err != nil {
		slog.Warn("could not read config, using defaults", slog.Any("err", err))
	} else {
		cfg, err = cl.ValidateAndLoad()
		if err != nil {
			return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
	}

	err = rulesets.WriteDefault(expandPath(cfg.RulesPath), false)
	if err != nil {
		slog.Error("write default rules", slog.Any("err", err))
	}

	return cfg, nil
}

func runConfig(cmd *cobra.Command, ra *RootArgs) error {
	if ra.WriteConfig {
		// Unlike in loadConfig, write errors are fatal here.
		err := configs.WriteDefault(ra.configPath(), false)
		if err != nil {
			return err //nolint:wrapcheck // Already wrapped.
		}
	}

	cfg, err := loadConfig(ra)
	if err != nil {
		return err
	}

	if ra.WriteConfig {
		return rulesets.WriteDefault(expandPath(cfg.RulesPath), false) //nolint:wrapcheck // Already wrapped.
	}

	slog.Info("active configuration", slog.String("path", ra.configPath()))

	b, err := cfg.MarshalYAML()
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	return newPrinter(cmd.OutOrStdout()).YAML(string(b))
}
