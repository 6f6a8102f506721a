// Package cli provides the command-line interface for gdexport
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gdexport/gdexport/pkg/config"
	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/types"
)

// CLI holds the command tree and everything commands share, so that commands can
// be run from tests without global state
type CLI struct {
	config   *Config
	viper    *viper.Viper
	rootCmd  *cobra.Command
	logger   logger.Logger
	output   io.Writer
	errorOut io.Writer
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(cfg *Config) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}

	c := &CLI{
		config:   cfg,
		viper:    viper.New(),
		logger:   logger.NewNopLogger(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}
	c.setupCommands()
	return c
}

// NewCLIWithOutput creates a CLI with custom output writers
func NewCLIWithOutput(cfg *Config, output, errorOut io.Writer) *CLI {
	c := NewCLI(cfg)
	c.output = output
	c.errorOut = errorOut
	c.rootCmd.SetOut(output)
	c.rootCmd.SetErr(errorOut)
	return c
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "gdexport",
		Short: "Export game projects into standalone distributables",
		Long: `gdexport compiles the scenes of a game project, gathers its resources into a
single encrypted archive and packages the result with the runtime of each
selected platform.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initializeConfig,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: gdexport.config.json in the project root)")
	flags.StringVar(&c.config.ProjectRoot, "root", c.config.ProjectRoot, "project root directory")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", c.config.Verbosity, "log level (debug, info, warn, error)")
	flags.StringVar(&c.config.LogFile, "log-file", "", "also write logs to this file")

	c.viper.BindPFlag("config", flags.Lookup("config"))
	c.viper.BindPFlag("root", flags.Lookup("root"))
	c.viper.BindPFlag("verbosity", flags.Lookup("verbosity"))
	c.viper.BindPFlag("log-file", flags.Lookup("log-file"))

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("gdexport v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newExportCmd())
	c.rootCmd.AddCommand(c.newInspectCmd())
	c.rootCmd.AddCommand(c.newStatusCmd())
	c.rootCmd.AddCommand(c.newValidateCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

// initializeConfig lets GDEXPORT_* environment variables fill flags the user left unset
func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	c.viper.SetEnvPrefix("GDEXPORT")
	c.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.viper.AutomaticEnv()

	c.config.ConfigFile = c.viper.GetString("config")
	c.config.ProjectRoot = c.viper.GetString("root")
	c.config.Verbosity = c.viper.GetString("verbosity")
	c.config.LogFile = c.viper.GetString("log-file")

	c.logger = logger.CreateLoggerWithOutput(c.config.LogFile, c.config.Verbosity, c.errorOut)
	return nil
}

// loadConfig reads the configuration file, falling back to the defaults when the
// project root has none and no file was named explicitly
func (c *CLI) loadConfig() (*types.ExportConfig, string, error) {
	manager := config.NewManager()

	path := c.config.ConfigFile
	if path == "" {
		found, err := manager.FindConfig(c.config.ProjectRoot)
		if err != nil {
			c.logger.Debug("No configuration file, using defaults")
			cfg := manager.GetDefaultConfig()
			return cfg, "", nil
		}
		path = found
	}

	cfg, err := manager.LoadConfig(path)
	if err != nil {
		return nil, path, err
	}
	c.logger.Debug("Using config file", logger.WithField("file", path))
	return cfg, path, nil
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gdexport",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.output, "gdexport v%s\n", c.config.Version)
		},
	}
}

// Helper methods for terminal output

func (c *CLI) printSuccess(message string) {
	fmt.Fprintf(c.output, "%s %s\n", color.GreenString("[gdexport]"), message)
}

func (c *CLI) printError(message string) {
	fmt.Fprintf(c.errorOut, "%s %s\n", color.RedString("[gdexport]"), message)
}

func (c *CLI) printInfo(message string) {
	fmt.Fprintf(c.output, "%s %s\n", color.CyanString("[gdexport]"), message)
}

func (c *CLI) printWarning(message string) {
	fmt.Fprintf(c.output, "%s %s\n", color.YellowString("[gdexport]"), message)
}

// ExecuteWithVersion runs the CLI on the process arguments
func ExecuteWithVersion(version string) error {
	cfg := NewConfig()
	cfg.Version = version
	return NewCLI(cfg).Execute(os.Args[1:])
}
