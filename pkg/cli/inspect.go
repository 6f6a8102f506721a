package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gdexport/gdexport/pkg/archive"
	"github.com/gdexport/gdexport/pkg/container"
	"github.com/gdexport/gdexport/pkg/utils"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	var showProject, showLoading bool
	var extract string

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the content of an exported data archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], showProject, showLoading, extract)
		},
	}

	cmd.Flags().BoolVar(&showProject, "project", false, "decrypt and summarize the serialized project")
	cmd.Flags().BoolVar(&showLoading, "loading-screen", false, "show the loading screen settings")
	cmd.Flags().StringVar(&extract, "extract", "", "extract every entry into this directory")

	return cmd
}

func (c *CLI) runInspect(path string, showProject, showLoading bool, extract string) error {
	r, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	version, err := r.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "Archive %s (format %s, %d entries)\n\n", path, version, len(r.Entries()))

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tOFFSET")
	var total int64
	for _, e := range r.Entries() {
		fmt.Fprintf(w, "%s\t%d\t%d\n", e.Name, e.Size, e.Offset)
		total += int64(e.Size)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.output, "\nTotal: %s\n", utils.FormatBytes(total))

	if showProject {
		if err := c.showProject(r); err != nil {
			return err
		}
	}
	if showLoading {
		if err := c.showLoadingScreen(r); err != nil {
			return err
		}
	}
	if extract != "" {
		return c.extract(r, extract)
	}
	return nil
}

func (c *CLI) showProject(r *archive.Reader) error {
	data, err := r.ReadFile(container.ProjectFile)
	if err != nil {
		return err
	}
	key, err := container.FixedKey{}.Key()
	if err != nil {
		return err
	}
	plain, err := container.Decrypt(data, key)
	if err != nil {
		return err
	}
	p, err := container.Decode(plain)
	if err != nil {
		return fmt.Errorf("failed to decode project: %w", err)
	}

	fmt.Fprintf(c.output, "\nProject %q by %s\n", p.Name, p.Author)
	fmt.Fprintf(c.output, "  Window: %dx%d\n", p.WindowWidth, p.WindowHeight)
	fmt.Fprintf(c.output, "  Scenes: %d\n", len(p.Scenes))
	for _, s := range p.Scenes {
		fmt.Fprintf(c.output, "    - %s\n", s.Name)
	}
	fmt.Fprintf(c.output, "  Resources: %d\n", len(p.Resources))
	fmt.Fprintf(c.output, "  Extensions: %v\n", p.UsedExtensions)
	return nil
}

func (c *CLI) showLoadingScreen(r *archive.Reader) error {
	data, err := r.ReadFile(container.LoadingScreenFile)
	if err != nil {
		return err
	}
	ls, err := container.DecodeLoadingScreen(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "\nLoading screen: enabled=%t size=%dx%d image=%q text=%q\n", ls.Enabled, ls.Width, ls.Height, ls.ImageFile, ls.Text)
	return nil
}

func (c *CLI) extract(r *archive.Reader, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range r.Names() {
		data, err := r.ReadFile(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0644); err != nil {
			return err
		}
	}
	c.printSuccess(fmt.Sprintf("Extracted %d entries to %s", len(r.Names()), dir))
	return nil
}
