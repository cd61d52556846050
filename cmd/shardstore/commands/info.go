// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/dataset"
)

type infoParams struct {
	globalParams
	cli.JSONOutput
}

type splitSummary struct {
	Name     string `json:"name"`
	Shards   int    `json:"shards"`
	Examples int    `json:"examples"`
	Bytes    int64  `json:"bytes"`
}

type infoResult struct {
	Path      string             `json:"path"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Structure dataset.Descriptor `json:"structure"`
	Splits    []splitSummary     `json:"splits"`
}

func infoCommand(streams Streams) *cli.Command {
	var params infoParams
	return &cli.Command{
		Name:    "info",
		Summary: "Describe a dataset",
		Description: `Print a dataset's structure and, per split, its shard count,
example count, and size on disk, as recorded in the index.`,
		Usage: "<dataset>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, "dataset"); err != nil {
				return err
			}
			session, err := params.open(streams, "info")
			if err != nil {
				return err
			}
			return session.finish(runInfo(session, streams, &params, args[0]))
		},
	}
}

func runInfo(session *session, streams Streams, params *infoParams, name string) error {
	ds, err := session.openDataset(name)
	if err != nil {
		return err
	}
	index := ds.Index()

	result := infoResult{
		Path:      ds.Root(),
		CreatedAt: index.CreatedAt,
		UpdatedAt: index.UpdatedAt,
		Structure: index.Structure,
		Splits:    make([]splitSummary, 0, len(index.Splits)),
	}
	for _, split := range index.SplitNames() {
		summary := splitSummary{Name: split}
		for _, entry := range index.Shards(split) {
			summary.Shards++
			summary.Examples += entry.Examples
			summary.Bytes += entry.Size
		}
		result.Splits = append(result.Splits, summary)
	}

	if done, err := params.EmitJSON(streams.Stdout, result); done {
		return err
	}

	structure := ds.Structure()
	fmt.Fprintf(streams.Stdout, "dataset:   %s\n", result.Path)
	fmt.Fprintf(streams.Stdout, "schema:    %s\n", structure.Schema)
	fmt.Fprintf(streams.Stdout, "codec:     %s\n", structure.Compression)
	fmt.Fprintf(streams.Stdout, "encoding:  %s\n", structure.Encoding)
	fmt.Fprintf(streams.Stdout, "per shard: %d\n", structure.ExamplesPerShard)
	fmt.Fprintf(streams.Stdout, "created:   %s\n", result.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(streams.Stdout, "updated:   %s\n", result.UpdatedAt.Format(time.RFC3339))
	if len(result.Splits) == 0 {
		fmt.Fprintln(streams.Stdout, "\nno splits")
		return nil
	}

	fmt.Fprintln(streams.Stdout)
	writer := tabwriter.NewWriter(streams.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "SPLIT\tSHARDS\tEXAMPLES\tBYTES\n")
	for _, split := range result.Splits {
		fmt.Fprintf(writer, "%s\t%d\t%d\t%d\n", split.Name, split.Shards, split.Examples, split.Bytes)
	}
	return writer.Flush()
}
