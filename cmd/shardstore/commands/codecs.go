// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/compress"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

type listParams struct {
	cli.JSONOutput
}

type codecsResult struct {
	Compressions []compress.Kind  `json:"compressions"`
	Encodings    []shard.Encoding `json:"encodings"`
}

func codecsCommand(streams Streams) *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "codecs",
		Summary: "List supported shard codecs and record encodings",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("codecs", &params)
		},
		Run: func(_ context.Context, args []string) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			result := codecsResult{
				Compressions: compress.Supported(),
				Encodings:    []shard.Encoding{shard.EncodingRaw, shard.EncodingCBOR},
			}
			if done, err := params.EmitJSON(streams.Stdout, result); done {
				return err
			}
			fmt.Fprintln(streams.Stdout, "compression:")
			for _, kind := range result.Compressions {
				fmt.Fprintf(streams.Stdout, "  %s\n", kind)
			}
			fmt.Fprintln(streams.Stdout, "encoding:")
			for _, encoding := range result.Encodings {
				fmt.Fprintf(streams.Stdout, "  %s\n", encoding)
			}
			return nil
		},
	}
}
