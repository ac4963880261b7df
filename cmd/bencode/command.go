package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is a node of the command tree.
type command struct {
	Name string

	// one line description shown in the parent's help listing
	Summary string

	// Usage line, synthesized from the command path if empty
	Usage string

	// Flags returns the flag set of the command. Called lazily on first use.
	Flags func() *pflag.FlagSet

	Subcommands []*command

	// Run executes the command with the positional arguments left after flag
	// parsing.
	Run func(args []string) error

	parent *command
}

// exitError signals a non-zero exit code. The command has already written its own
// output, main prints nothing more.
type exitError struct {
	Code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *exitError) ExitCode() int {
	return e.Code
}

// execute parses args and dispatches to a subcommand or the Run function.
func (c *command) execute(args []string, stderr io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.printHelp(stderr)
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) == 0 || strings.HasPrefix(args[0], "-") {
			c.printHelp(stderr)
			return fmt.Errorf("command required")
		}

		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.execute(args[1:], stderr)
			}
		}

		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", args[0], c.fullName())
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			if err == pflag.ErrHelp {
				c.printHelp(stderr)
				return nil
			}

			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, c.fullName())
		}

		args = flagSet.Args()
	}

	return c.Run(args)
}

func (c *command) printHelp(w io.Writer) {
	name := c.fullName()

	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var flagHelp strings.Builder

		flagSet := c.Flags()
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()

		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *command) fullName() string {
	if c.parent == nil {
		return c.Name
	}

	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
