// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/version"
)

func versionCommand(streams Streams) *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(_ context.Context, args []string) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			if done, err := params.EmitJSON(streams.Stdout, version.Current()); done {
				return err
			}
			fmt.Fprintf(streams.Stdout, "shardstore %s\n", version.Full())
			return nil
		},
	}
}
