// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the shardstore command tree. A command with
// Commands dispatches on its first argument; a command with Run is a
// leaf that parses its own flags.
type Command struct {
	Name string

	// Summary is the one-line description in the parent's listing.
	Summary string

	// Description replaces Summary at the top of the command's own
	// help.
	Description string

	// Usage names the positional arguments, e.g. "<dataset> <split>".
	// The command path and "[flags]" are added around it.
	Usage string

	Examples []Example

	// Flags builds the command's flag set. It is called once per
	// execution, so bound params start from their defaults each run.
	Flags func() *pflag.FlagSet

	Commands []*Command

	Run func(ctx context.Context, args []string) error

	// HelpOutput receives help text. Commands without one use their
	// parent's; nil everywhere means help is discarded.
	HelpOutput io.Writer

	parent *Command
}

// Example is one entry of a command's Examples help section.
type Example struct {
	Description string
	Command     string
}

// Execute runs the command tree against args, which exclude the
// program name.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(c.Commands) > 0 {
		return c.dispatch(ctx, args)
	}
	return c.run(ctx, args)
}

func (c *Command) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintHelp(c.helpOutput())
		return &UsageError{Command: c.path(), Message: "a command is required"}
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		c.PrintHelp(c.helpOutput())
		return nil
	}
	for _, sub := range c.Commands {
		if sub.Name == name {
			sub.parent = c
			return sub.Execute(ctx, args[1:])
		}
	}

	usage := &UsageError{Command: c.path(), Message: fmt.Sprintf("unknown command %q", name)}
	if suggestion := closest(name, commandNames(c.Commands)); suggestion != "" {
		usage.Suggestion = strconv.Quote(suggestion)
	}
	return usage
}

func (c *Command) run(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet(c.Name, pflag.ContinueOnError)
	if c.Flags != nil {
		flagSet = c.Flags()
	}
	flagSet.SetOutput(io.Discard)

	// pflag reports -h and --help as ErrHelp when the command does not
	// define them itself.
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.PrintHelp(c.helpOutput())
			return nil
		}
		usage := &UsageError{Command: c.path(), Message: err.Error()}
		if name := unknownLongFlag(args, flagSet); name != "" {
			if suggestion := closest(name, flagNames(flagSet)); suggestion != "" {
				usage.Suggestion = "--" + suggestion
			}
		}
		return usage
	}

	if c.Run == nil {
		return fmt.Errorf("%s has no action", c.path())
	}
	return c.Run(ctx, flagSet.Args())
}

// PrintHelp writes the command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}
	fmt.Fprintf(w, "Usage: %s\n", c.synopsis())

	if len(c.Commands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, sub := range c.Commands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		if usage := c.Flags().FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for i, example := range c.Examples {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
		}
	}

	if len(c.Commands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for a command's flags.\n", c.path())
	}
}

// synopsis renders the usage line: path, "<command>" for a
// dispatcher, the positional arguments, and "[flags]".
func (c *Command) synopsis() string {
	parts := []string{c.path()}
	if len(c.Commands) > 0 {
		parts = append(parts, "<command>")
	}
	if c.Usage != "" {
		parts = append(parts, c.Usage)
	}
	if c.Flags != nil {
		parts = append(parts, "[flags]")
	}
	return strings.Join(parts, " ")
}

// path returns the command as typed, e.g. "shardstore iterate".
func (c *Command) path() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.path() + " " + c.Name
}

func (c *Command) helpOutput() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.HelpOutput != nil {
			return command.HelpOutput
		}
	}
	return io.Discard
}
