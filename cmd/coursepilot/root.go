package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/relay"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	natsURL    string
	natsPrefix string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "coursepilot",
		Short: "Drive JKO courses to their completion target",
		Long: `coursepilot opens a JKO course in a browser and keeps it moving: it starts
or resumes the course, retries lessons the menu does not mark complete,
advances to the next lesson and exits once the reported progress reaches
the configured threshold.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "settings file (default ~/.coursepilot/config.json, or $"+config.EnvConfigPath+")")
	flags.StringVar(&opts.natsURL, "nats-url", "", "NATS server for events and remote control (or $"+config.EnvNATSURL+")")
	flags.StringVar(&opts.natsPrefix, "nats-prefix", relay.DefaultNATSPrefix, "NATS subject prefix")
	flags.StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(
		newTUICmd(opts),
		newRunCmd(opts),
		newInspectCmd(),
		newCtlCmd(opts),
		newVersionCmd(),
	)
	return root
}

// resolve loads the dotenv file and fills unset flags from the environment.
func (o *globalOptions) resolve(cmd *cobra.Command) error {
	if err := config.LoadEnv(o.envFile); err != nil {
		return err
	}
	if !cmd.Flags().Changed("config") {
		o.configPath = os.Getenv(config.EnvConfigPath)
	}
	if !cmd.Flags().Changed("nats-url") {
		o.natsURL = os.Getenv(config.EnvNATSURL)
	}
	return nil
}

// loadSettings initializes the global settings manager and applies the
// environment overrides to the browser section.
func (o *globalOptions) loadSettings() (*config.Manager, error) {
	if err := config.Initialize(o.configPath); err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}
	config.ApplyEnv(config.GetBrowser())
	return config.Global(), nil
}

// newLogger opens the session log file, falling back to stderr.
func newLogger(component string) *logging.Logger {
	logger, err := logging.NewLogger(component)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coursepilot v%s\n", version)
		},
	}
}
