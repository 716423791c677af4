// Package main is the entry point for the scaffold state tool.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/scaffold/internal/config"
	"github.com/dshills/scaffold/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds the state shared by every command.
type cli struct {
	dir      string
	logLevel string
	envFiles []string
	lenient  bool

	settings config.Settings
	logger   *logging.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "scaffold",
		Short: "Inspect and edit application state files",
		Long: `scaffold manages the YAML-like state files of the application shell:
ui.yml, theme.yml and input.yml in the configuration directory.

Settings come from built-in defaults, <dir>/settings.toml, .env files and
SCAFFOLD_ environment variables, with flags taking precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.dir, "dir", "d", "", "Configuration directory (default $XDG_CONFIG_HOME/scaffold)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringSliceVar(&c.envFiles, "env-file", []string{".env"}, ".env files read before the environment")
	flags.BoolVar(&c.lenient, "lenient", false, "Skip malformed lines instead of failing")

	root.AddCommand(
		newRunCmd(c),
		newInitCmd(c),
		newSectionsCmd(c),
		newCheckCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newGetCmd(c),
		newSetCmd(c),
		newVersionCmd(),
	)
	return root
}

// load resolves settings and the logger. Flags override every other source.
func (c *cli) load(cmd *cobra.Command) error {
	s, err := config.LoadSettings(config.SettingsSource{Dir: c.dir, DotEnv: c.envFiles})
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		s.ConfigDir = c.dir
	}
	if flags.Changed("log-level") {
		switch c.logLevel {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", c.logLevel)
		}
		s.LogLevel = logging.ParseLevel(c.logLevel)
	}
	if flags.Changed("lenient") {
		s.Lenient = c.lenient
	}
	c.settings = s

	c.logger = logging.New(logging.Config{
		Level:  s.LogLevel,
		Output: cmd.ErrOrStderr(),
		Prefix: "scaffold",
	})
	logging.SetDefault(c.logger)
	return nil
}

// manager opens the configuration directory. Only the interactive shell
// watches files.
func (c *cli) manager(watch bool) *config.Manager {
	opts := append(c.settings.Options(),
		config.WithWatcher(watch && c.settings.Watch),
		config.WithLogger(c.logger),
	)
	return config.New(opts...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scaffold %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}
