package cmd

import (
	"fmt"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kubev2v/priority-scheduler/internal/config"
)

// EnvPrefix prefixes the environment variable of every flag:
// --http-port is read from PRIORITY_SCHEDULER_HTTP_PORT.
const EnvPrefix = "PRIORITY_SCHEDULER"

func NewRootCommand() *cobra.Command {
	cfg := config.NewConfigurationWithOptionsAndDefaults()
	var configFile string

	root := &cobra.Command{
		Use:          "priority-scheduler",
		Short:        "Priority task scheduler with websocket echo and chat endpoints",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cobrautil.SyncViperPreRunE(EnvPrefix)(cmd, args); err != nil {
				return err
			}
			if err := readConfigFile(cmd.Flags(), configFile); err != nil {
				return err
			}
			return initLogger(cfg.LogFormat, cfg.LogLevel)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zap.L().Sync()
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (yaml, json or toml) keyed by flag name")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	root.AddCommand(
		NewRunCommand(cfg),
		NewDemoCommand(),
	)

	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

// readConfigFile fills every flag that was set neither on the command line nor
// through the environment from the config file at path.
func readConfigFile(flags *pflag.FlagSet, path string) error {
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var errs error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := flags.Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid value for %q in %s: %w", f.Name, path, err))
		}
	})
	return errs
}
