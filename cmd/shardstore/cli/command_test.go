// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_Dispatches(t *testing.T) {
	var called string

	root := &Command{
		Name: "shardstore",
		Commands: []*Command{
			{
				Name: "info",
				Run: func(_ context.Context, args []string) error {
					called = "info"
					return nil
				},
			},
			{
				Name: "check",
				Run: func(_ context.Context, args []string) error {
					called = "check"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"check"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "check" {
		t.Errorf("dispatched to %q, want %q", called, "check")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var compression string
	var receivedArgs []string

	command := &Command{
		Name: "create",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringVar(&compression, "compression", "zstd", "codec")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			receivedArgs = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--compression", "lz4", "traces"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if compression != "lz4" {
		t.Errorf("compression = %q, want lz4", compression)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "traces" {
		t.Errorf("args = %v, want [traces]", receivedArgs)
	}
}

func TestCommand_Execute_UnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "shardstore",
		Commands: []*Command{
			{Name: "iterate", Run: func(context.Context, []string) error { return nil }},
			{Name: "import", Run: func(context.Context, []string) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"iterat"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("error = %v, want *UsageError", err)
	}
	if usage.Command != "shardstore" || usage.Suggestion != `"iterate"` {
		t.Errorf("UsageError = %+v, want suggestion \"iterate\" from shardstore", usage)
	}
	if !strings.Contains(err.Error(), `did you mean "iterate"?`) || !strings.Contains(err.Error(), "Run 'shardstore --help'") {
		t.Errorf("error text = %q", err.Error())
	}

	err = root.Execute(context.Background(), []string{"completely-different"})
	if !errors.As(err, &usage) || usage.Suggestion != "" {
		t.Errorf("error = %v, want unknown command without suggestion", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	var params struct {
		Shuffle int `flag:"shuffle" desc:"reservoir size"`
	}
	root := &Command{
		Name: "shardstore",
		Commands: []*Command{{
			Name:  "iterate",
			Flags: func() *pflag.FlagSet { return FlagsFromParams("iterate", &params) },
			Run:   func(context.Context, []string) error { return nil },
		}},
	}

	err := root.Execute(context.Background(), []string{"iterate", "--shufle=8"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("error = %v, want *UsageError", err)
	}
	if usage.Command != "shardstore iterate" || usage.Suggestion != "--shuffle" {
		t.Errorf("UsageError = %+v, want --shuffle from shardstore iterate", usage)
	}
	if !strings.Contains(err.Error(), "did you mean --shuffle?") {
		t.Errorf("error text = %q", err.Error())
	}

	err = root.Execute(context.Background(), []string{"iterate", "--shuffle", "many"})
	if !errors.As(err, &usage) || usage.Suggestion != "" {
		t.Errorf("bad value error = %v, want a usage error without suggestion", err)
	}
}

func TestCommand_Execute_CommandRequired(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:       "shardstore",
		HelpOutput: &help,
		Commands: []*Command{
			{Name: "info", Summary: "Describe a dataset"},
		},
	}

	err := root.Execute(context.Background(), nil)
	var usage *UsageError
	if !errors.As(err, &usage) || usage.Message != "a command is required" {
		t.Errorf("error = %v, want a command is required", err)
	}
	if !strings.Contains(help.String(), "Describe a dataset") {
		t.Errorf("help output missing command summary:\n%s", help.String())
	}

	help.Reset()
	if err := root.Execute(context.Background(), []string{"help"}); err != nil {
		t.Fatalf("Execute(help) error: %v", err)
	}
	if !strings.Contains(help.String(), "Usage: shardstore <command>\n") {
		t.Errorf("root help:\n%s", help.String())
	}
}

func TestCommand_Execute_Help(t *testing.T) {
	var help bytes.Buffer
	var ran bool
	var params struct {
		Seed uint64 `flag:"seed" desc:"shuffle seed"`
	}
	root := &Command{
		Name:       "shardstore",
		HelpOutput: &help,
		Commands: []*Command{
			{
				Name:        "iterate",
				Summary:     "Stream examples from a split",
				Description: "Stream the examples of one split as JSON lines.",
				Usage:       "<dataset> <split>",
				Flags:       func() *pflag.FlagSet { return FlagsFromParams("iterate", &params) },
				Examples: []Example{
					{Description: "Shuffle with a fixed seed", Command: "shardstore iterate traces train --seed 7"},
				},
				Run: func(context.Context, []string) error {
					ran = true
					return nil
				},
			},
		},
	}

	for _, args := range [][]string{{"iterate", "--help"}, {"iterate", "-h"}} {
		help.Reset()
		if err := root.Execute(context.Background(), args); err != nil {
			t.Fatalf("Execute(%v) error: %v", args, err)
		}
		output := help.String()
		for _, want := range []string{
			"Stream the examples of one split",
			"Usage: shardstore iterate <dataset> <split> [flags]",
			"--seed",
			"# Shuffle with a fixed seed",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("help for %v missing %q:\n%s", args, want, output)
			}
		}
	}
	if ran {
		t.Error("Run called for a help request")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"check", "check", 0},
		{"chekc", "check", 2},
		{"imprt", "import", 1},
		{"info", "iterate", 6},
		{"iterate", "info", 6},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClosest(t *testing.T) {
	candidates := []string{"create", "import", "info", "check", "iterate"}
	tests := []struct {
		name string
		want string
	}{
		{"chek", "check"},
		{"improt", "import"},
		{"inf", "info"},
		{"validate", ""},
	}
	for _, tt := range tests {
		if got := closest(tt.name, candidates); got != tt.want {
			t.Errorf("closest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 3}
	var coder interface{ ExitCode() int }
	if !errors.As(err, &coder) || coder.ExitCode() != 3 {
		t.Fatalf("ExitError does not report its code: %v", err)
	}
	if err.Error() != "exit code 3" {
		t.Errorf("Error() = %q", err.Error())
	}
}
