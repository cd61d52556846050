// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/dataset"
)

type checkParams struct {
	globalParams
	cli.JSONOutput
	Concurrency int `flag:"concurrency" desc:"parallel shard checks (default: read.validate_concurrency, else one per CPU)"`
}

type issueResult struct {
	Split string            `json:"split"`
	Shard string            `json:"shard"`
	Kind  dataset.IssueKind `json:"kind"`
	Error string            `json:"error"`
}

func checkCommand(streams Streams) *cli.Command {
	var params checkParams
	return &cli.Command{
		Name:    "check",
		Summary: "Verify every shard of a dataset",
		Description: `Read and verify every shard the index lists: the file exists, its
header agrees with the index, its checksum verifies, and every record
decodes against the schema. Shard files the index does not reference
are reported as orphans.

Exits with status 1 when any issue is found.`,
		Usage: "<dataset>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("check", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, "dataset"); err != nil {
				return err
			}
			session, err := params.open(streams, "check")
			if err != nil {
				return err
			}
			return session.finish(runCheck(ctx, session, streams, &params, args[0]))
		},
	}
}

func runCheck(ctx context.Context, session *session, streams Streams, params *checkParams, name string) error {
	ds, err := session.openDataset(name)
	if err != nil {
		return err
	}

	concurrency := params.Concurrency
	if concurrency == 0 {
		concurrency = session.config.Read.ValidateConcurrency
	}
	issues, err := ds.ValidateWithOptions(ctx, dataset.ValidateOptions{Concurrency: concurrency})
	if err != nil {
		return err
	}

	results := make([]issueResult, len(issues))
	for i, issue := range issues {
		results[i] = issueResult{Split: issue.Split, Shard: issue.Shard, Kind: issue.Kind, Error: issue.Err.Error()}
	}
	if done, err := params.EmitJSON(streams.Stdout, results); done {
		if err == nil && len(issues) > 0 {
			err = &cli.ExitError{Code: 1}
		}
		return err
	}

	if len(issues) == 0 {
		index := ds.Index()
		shards := 0
		for _, split := range index.SplitNames() {
			shards += len(index.Splits[split])
		}
		fmt.Fprintf(streams.Stdout, "ok: %d shards in %d splits\n", shards, len(index.SplitNames()))
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintln(streams.Stdout, issue)
	}
	fmt.Fprintf(streams.Stdout, "%d issues\n", len(issues))
	return &cli.ExitError{Code: 1}
}
