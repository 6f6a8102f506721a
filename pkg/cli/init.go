package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gdexport/gdexport/pkg/config"
	"github.com/gdexport/gdexport/pkg/types"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var format string
	var force bool
	var platforms []string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a gdexport configuration",
		Long: `Create a gdexport configuration file in the project root with the default
compiler, runtime layout and export settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(format, platforms, force)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "configuration format (json, yaml)")
	cmd.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "default target platforms")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing configuration")

	return cmd
}

func (c *CLI) runInit(format string, platforms []string, force bool) error {
	var name string
	switch format {
	case "json":
		name = config.FileNames[0]
	case "yaml", "yml":
		name = config.FileNames[1]
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}

	manager := config.NewManager()
	if existing, err := manager.FindConfig(c.config.ProjectRoot); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", existing)
	}

	cfg := manager.GetDefaultConfig()
	if len(platforms) > 0 {
		cfg.Export.Platforms = nil
		for _, p := range platforms {
			platform, err := types.ParsePlatform(p)
			if err != nil {
				return err
			}
			cfg.Export.Platforms = append(cfg.Export.Platforms, platform)
		}
	}

	if err := os.MkdirAll(c.config.ProjectRoot, 0755); err != nil {
		return err
	}
	path := filepath.Join(c.config.ProjectRoot, name)
	if err := manager.SaveConfig(path, cfg); err != nil {
		return err
	}

	c.printSuccess(fmt.Sprintf("Created configuration at %s", path))
	c.printInfo("Edit the compiler and runtime sections to match your installation")
	return nil
}
