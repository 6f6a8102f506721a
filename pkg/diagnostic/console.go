package diagnostic

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ConsoleReporter prints every call as soon as it happens
type ConsoleReporter struct {
	*State
	out io.Writer
}

// NewConsoleReporter creates a reporter printing to stdout
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterWithOutput(os.Stdout)
}

// NewConsoleReporterWithOutput creates a reporter printing to w
func NewConsoleReporterWithOutput(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{State: NewState(), out: w}
}

// OnMessage prints the message and its optional detail
func (c *ConsoleReporter) OnMessage(text, detail string) {
	if detail == "" {
		fmt.Fprintln(c.out, text)
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", text, detail)
}

// OnPercentUpdate prints the progress
func (c *ConsoleReporter) OnPercentUpdate(percent float64) {
	c.State.OnPercentUpdate(percent)
	fmt.Fprintf(c.out, "Progress: %.0f%%\n", percent)
}

// AddError records and prints an error
func (c *ConsoleReporter) AddError(text string) {
	c.State.AddError(text)
	fmt.Fprintln(c.out, color.RedString("Error: %s", text))
}

// OnCompilationFailed prints the accumulated errors
func (c *ConsoleReporter) OnCompilationFailed() {
	c.State.OnCompilationFailed()
	fmt.Fprintln(c.out, color.RedString("Export failed with these errors:"))
	fmt.Fprint(c.out, c.GetErrors())
}

// OnCompilationSucceeded prints the completion message
func (c *ConsoleReporter) OnCompilationSucceeded() {
	c.State.OnCompilationSucceeded()
	if errs := c.Errors(); len(errs) > 0 {
		fmt.Fprintln(c.out, color.YellowString("Export completed with %d error(s):", len(errs)))
		fmt.Fprint(c.out, c.GetErrors())
		return
	}
	fmt.Fprintln(c.out, color.GreenString("Export completed without errors."))
}
