package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gdexport/gdexport/pkg/state"
	"github.com/gdexport/gdexport/pkg/types"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	var jsonOutput, clear bool

	cmd := &cobra.Command{
		Use:   "status [project]",
		Short: "Show the outcome of recent exports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := ""
			if len(args) == 1 {
				project = args[0]
			}
			return c.runStatus(project, jsonOutput, clear)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output records as JSON")
	cmd.Flags().BoolVar(&clear, "clear", false, "forget the recorded state")

	return cmd
}

func (c *CLI) runStatus(project string, jsonOutput, clear bool) error {
	states := state.NewManager(c.config.ProjectRoot, c.logger)

	records, err := states.Discover()
	if err != nil {
		return err
	}
	if project != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Project == project {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	if clear {
		for _, r := range records {
			if err := states.Remove(r.Project); err != nil {
				return err
			}
		}
		c.printSuccess(fmt.Sprintf("Cleared %d record(s)", len(records)))
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(c.output)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		c.printInfo("No exports recorded")
		return nil
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tSTATUS\tPHASE\tPLATFORMS\tDURATION\tEXPORTS\tFAILURES\tSTARTED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Project,
			colorStatus(r.Status),
			r.Phase,
			joinPlatforms(r.Platforms),
			r.Duration.Round(time.Millisecond),
			r.ExportCount,
			r.FailureCount,
			r.StartedAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, r := range records {
		if r.Status != types.ExportStatusFailed || len(r.Errors) == 0 {
			continue
		}
		fmt.Fprintf(c.output, "\n%s:\n", r.Project)
		for _, e := range r.Errors {
			fmt.Fprintf(c.output, "  %s\n", e)
		}
	}
	return nil
}

func colorStatus(status types.ExportStatus) string {
	switch status {
	case types.ExportStatusSucceeded:
		return color.GreenString(string(status))
	case types.ExportStatusFailed:
		return color.RedString(string(status))
	case types.ExportStatusPending:
		return color.YellowString(string(status))
	}
	return string(status)
}

func joinPlatforms(platforms []types.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
