// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/dataset"
)

type iterateParams struct {
	globalParams
	Shuffle  int    `flag:"shuffle" desc:"shuffle reservoir size, 0 for write order (default: read.shuffle_buffer)" default:"-1"`
	Seed     uint64 `flag:"seed" desc:"shuffle seed (default: read.seed, else random)"`
	Prefetch int    `flag:"prefetch" desc:"shard reads kept in flight (default: read.prefetch)" default:"-1"`
	Repeat   bool   `flag:"repeat" desc:"start a new pass at the end of the split"`
	Limit    int    `flag:"limit,n" desc:"stop after this many examples (0: no limit)"`
	Format   string `flag:"format,f" desc:"output format: jsonl, raw, or count" default:"jsonl"`
}

func iterateCommand(streams Streams) *cli.Command {
	var params iterateParams
	return &cli.Command{
		Name:    "iterate",
		Summary: "Stream the examples of a split",
		Description: `Stream the examples of one split to stdout.

With a shuffle reservoir, shard order is shuffled per pass and each
example is drawn uniformly from a buffer of at most that many
examples. With --repeat the stream restarts at the end of the split
and only --limit or an interrupt ends it.

Formats:
  jsonl  one JSON object per example (the import format)
  raw    each example's attribute bytes, concatenated
  count  only the number of examples read`,
		Usage: "<dataset> <split>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("iterate", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Count the examples of a split",
				Command:     "shardstore iterate traces train --format count",
			},
			{
				Description: "Two shuffled passes of a 1024-example split",
				Command:     "shardstore iterate traces train --shuffle 256 --seed 7 --repeat --limit 2048",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, "dataset", "split"); err != nil {
				return err
			}
			session, err := params.open(streams, "iterate")
			if err != nil {
				return err
			}
			return session.finish(runIterate(ctx, session, streams, &params, args[0], args[1]))
		},
	}
}

func (p *iterateParams) options(session *session) dataset.IterateOptions {
	read := session.config.Read
	options := dataset.IterateOptions{
		ShuffleBuffer: p.Shuffle,
		Repeat:        p.Repeat,
		Seed:          p.Seed,
		Prefetch:      p.Prefetch,
	}
	if options.ShuffleBuffer < 0 {
		options.ShuffleBuffer = read.ShuffleBuffer
	}
	if options.Seed == 0 {
		options.Seed = read.Seed
	}
	if options.Prefetch < 0 {
		options.Prefetch = read.Prefetch
	}
	return options
}

func runIterate(ctx context.Context, session *session, streams Streams, params *iterateParams, name, split string) error {
	switch params.Format {
	case "jsonl", "raw", "count":
	default:
		return fmt.Errorf("unknown output format %q (want jsonl, raw, or count)", params.Format)
	}
	if params.Limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", params.Limit)
	}

	ds, err := session.openDataset(name)
	if err != nil {
		return err
	}
	schema := ds.Structure().Schema

	iterator, err := ds.Iterate(ctx, split, params.options(session))
	if err != nil {
		return err
	}
	defer iterator.Close()

	output := bufio.NewWriter(streams.Stdout)
	var line []byte
	count := 0
	for example, err := range iterator.All(ctx) {
		if err != nil {
			return err
		}
		count++
		switch params.Format {
		case "jsonl":
			line = appendExampleJSON(line[:0], schema, example)
			if _, err := output.Write(line); err != nil {
				return err
			}
		case "raw":
			for _, value := range example {
				if _, err := output.Write(value); err != nil {
					return err
				}
			}
		}
		if count == params.Limit {
			break
		}
	}
	if params.Format == "count" {
		fmt.Fprintln(output, count)
	}

	session.logger.Debug("iteration finished", "split", split, "examples", count)
	return output.Flush()
}
