// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"
)

// UsageError reports a command line that could not be dispatched or
// parsed: an unknown command, an unknown flag, or a bad flag value.
type UsageError struct {
	// Command is the path of the command that rejected the input.
	Command string
	Message string
	// Suggestion is the closest valid spelling, formatted as it
	// should be typed, or "".
	Suggestion string
}

func (e *UsageError) Error() string {
	var text strings.Builder
	text.WriteString(e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&text, " (did you mean %s?)", e.Suggestion)
	}
	fmt.Fprintf(&text, "\n\nRun '%s --help' for usage.", e.Command)
	return text.String()
}

// ExitError ends the process with Code after a command has already
// reported the failure itself; check returns one when it finds issues.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is the interface main looks for to exit without printing
// the error.
func (e *ExitError) ExitCode() int {
	return e.Code
}
