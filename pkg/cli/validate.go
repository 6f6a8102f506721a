package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdexport/gdexport/pkg/project"
	"github.com/gdexport/gdexport/pkg/resources"
	"github.com/gdexport/gdexport/pkg/utils"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-file]",
		Short: "Validate the configuration and, optionally, a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runValidate(path)
		},
	}
}

func (c *CLI) runValidate(projectPath string) error {
	cfg, path, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	if path == "" {
		c.printInfo("No configuration file found, the defaults are valid")
	} else {
		c.printSuccess(fmt.Sprintf("Configuration %s is valid", path))
	}
	c.printInfo(fmt.Sprintf("Compiler: %s, %d extension(s)", cfg.Compiler.Command, len(cfg.Extensions)))

	if projectPath == "" {
		return nil
	}

	p, err := project.Load(projectPath)
	if err != nil {
		return fmt.Errorf("project is invalid: %w", err)
	}

	// A missing resource is only an error during export, so report them as warnings
	missing := 0
	resources.VisitPaths(p, func(file *string) {
		if *file == "" {
			return
		}
		if !utils.FileExists(*file) {
			missing++
			c.printWarning(fmt.Sprintf("Missing resource file: %s", *file))
		}
	})

	c.printSuccess(fmt.Sprintf("Project %q is valid: %d scene(s), %d resource(s), %d missing file(s)",
		p.Name, len(p.Scenes), len(p.Resources), missing))
	return nil
}
