// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the shardstore
// binary: a tree of [Command] values with pflag-parsed flags,
// struct-tag flag binding via [FlagsFromParams], typo suggestions for
// unknown commands and flags, and the shared output helpers
// ([NewLogger], [WriteJSON]).
//
// The root command only dispatches; each leaf parses its own flags.
// Bad command lines come back as [UsageError], and a command that has
// already printed its failure returns [ExitError] so main exits
// without repeating it.
package cli
