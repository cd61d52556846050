// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/shardstore/lib/shard"
)

// IssueKind classifies a problem found by Validate.
type IssueKind string

const (
	// IssueMissing is an indexed shard with no file.
	IssueMissing IssueKind = "missing"
	// IssueCorrupt is a shard whose header or framing is malformed.
	IssueCorrupt IssueKind = "corrupt"
	// IssueChecksum is a shard whose payload fails verification.
	IssueChecksum IssueKind = "checksum"
	// IssueSchema is a shard whose records disagree with the schema.
	IssueSchema IssueKind = "schema"
	// IssueIndexMismatch is a shard whose header or size disagrees
	// with its index entry.
	IssueIndexMismatch IssueKind = "index_mismatch"
	// IssueOrphan is a shard file the index does not reference.
	IssueOrphan IssueKind = "orphan"
	// IssueIO is any other failure to read a shard.
	IssueIO IssueKind = "io"
)

// Issue is one problem found by Validate.
type Issue struct {
	Split string
	Shard string
	Kind  IssueKind
	Err   error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s/%s: %s: %v", i.Split, i.Shard, i.Kind, i.Err)
}

// classifyError maps a shard read error to its issue kind.
func classifyError(err error) IssueKind {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return IssueMissing
	case errors.Is(err, shard.ErrChecksumMismatch):
		return IssueChecksum
	case errors.Is(err, shard.ErrSchemaMismatch):
		return IssueSchema
	case errors.Is(err, ErrIndexMismatch):
		return IssueIndexMismatch
	case errors.Is(err, shard.ErrCorruptShard), errors.Is(err, shard.ErrUnsupportedEncoding):
		return IssueCorrupt
	default:
		return IssueIO
	}
}

// ValidateOptions tunes Validate.
type ValidateOptions struct {
	// Concurrency bounds parallel shard checks. Zero means GOMAXPROCS.
	Concurrency int
}

// Validate reloads the index and checks every shard of every split:
// the file exists, its header parses and agrees with the index, its
// checksum verifies, and every record decodes against the schema.
// Shard files on disk that the index does not reference are reported
// as orphans. The returned error is non-nil only when the sweep itself
// could not run; problems with shards are issues.
func (d *Dataset) Validate(ctx context.Context) ([]Issue, error) {
	return d.ValidateWithOptions(ctx, ValidateOptions{})
}

// ValidateWithOptions is Validate with explicit options.
func (d *Dataset) ValidateWithOptions(ctx context.Context, options ValidateOptions) ([]Issue, error) {
	if err := d.Refresh(); err != nil {
		return nil, err
	}
	idx := d.Index()

	type target struct {
		split string
		entry ShardEntry
	}
	var targets []target
	for _, split := range idx.SplitNames() {
		for _, entry := range idx.Splits[split] {
			targets = append(targets, target{split: split, entry: entry})
		}
	}

	limit := options.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]*Issue, len(targets))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, t := range targets {
		group.Go(func() error {
			if err := groupContext.Err(); err != nil {
				return err
			}
			if _, err := d.loadShard(t.split, t.entry); err != nil {
				results[i] = &Issue{Split: t.split, Shard: t.entry.File, Kind: classifyError(err), Err: err}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var issues []Issue
	for _, issue := range results {
		if issue != nil {
			issues = append(issues, *issue)
			d.metrics.shardError(issue.Split, issue.Kind)
		}
	}

	orphans, err := d.findOrphans(idx)
	if err != nil {
		return nil, err
	}
	issues = append(issues, orphans...)

	d.logger.Info("validation finished",
		"shards", len(targets),
		"issues", len(issues),
	)
	return issues, nil
}

// findOrphans lists shard files in split directories that the index
// does not reference.
func (d *Dataset) findOrphans(idx *Index) ([]Issue, error) {
	splitEntries, err := os.ReadDir(d.splitDir(""))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing splits: %w", err)
	}

	var orphans []Issue
	for _, splitEntry := range splitEntries {
		if !splitEntry.IsDir() {
			continue
		}
		split := splitEntry.Name()
		indexed := make(map[string]bool)
		for _, entry := range idx.Splits[split] {
			indexed[entry.File] = true
		}
		files, err := os.ReadDir(d.splitDir(split))
		if err != nil {
			return nil, fmt.Errorf("listing split %q: %w", split, err)
		}
		for _, file := range files {
			if _, ok := parseShardFileName(file.Name()); !ok || indexed[file.Name()] {
				continue
			}
			orphans = append(orphans, Issue{
				Split: split,
				Shard: file.Name(),
				Kind:  IssueOrphan,
				Err:   fmt.Errorf("shard file %s is not in the index", d.shardPath(split, file.Name())),
			})
		}
	}
	sort.Slice(orphans, func(a, b int) bool {
		if orphans[a].Split != orphans[b].Split {
			return orphans[a].Split < orphans[b].Split
		}
		return orphans[a].Shard < orphans[b].Shard
	})
	return orphans, nil
}
