// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Shardstore is the command-line interface to sharded example
// datasets: create a dataset, import examples into a split, inspect
// and verify it, and stream examples back out.
//
// Usage:
//
//	shardstore <command> [flags]
//
// Configuration is read from the file named by --config or
// SHARDSTORE_CONFIG; see lib/config. Run "shardstore --help" for the
// command list.
package main
