// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset stores fixed-schema examples as sharded, compressed
// files on local disk and iterates them back.
//
// A dataset is a directory:
//
//	<root>/index.cbor                       the index artifact
//	<root>/.index.lock                      serializes index updates
//	<root>/tmp/                             in-progress shard files
//	<root>/splits/<split>/shard-NNNNNN.shard
//	<root>/splits/<split>/.lock             held by the split's writer
//
// The [Structure] (schema, compression, record encoding, and examples
// per shard) is fixed by [Create] and recorded in the index. Every
// split is an ordered list of shards; the index is the source of truth
// for which shard files belong to the dataset. A shard is visible only
// once it is fully written, renamed into its split directory, and
// registered in the index, so a crash mid-shard leaves nothing behind
// but a temporary file.
//
// Writing is single-writer per split, enforced with an advisory file
// lock ([Dataset.OpenWriter] fails with [ErrSplitBusy] while another
// writer holds the split). Different splits can be written
// concurrently, from one process or several.
//
// Reading goes through [Dataset.Iterate], which walks a split's shards
// in index order or, with a shuffle buffer, through a bounded
// reservoir shuffle, optionally repeating forever. [Dataset.Validate]
// sweeps every shard and reports corruption and index disagreements.
package dataset
