// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"

	"github.com/bureau-foundation/shardstore/lib/attribute"
)

var (
	// ErrExists is returned by Create when the root already holds a
	// dataset index.
	ErrExists = errors.New("dataset: already exists")

	// ErrNotDataset is returned by Open when the root has no index.
	ErrNotDataset = errors.New("dataset: no index found")

	// ErrInvalidStructure reports a structure or index that cannot
	// describe a dataset.
	ErrInvalidStructure = errors.New("dataset: invalid structure")

	// ErrInvalidSchema is attribute.ErrInvalidSchema. OpenWriterWithSchema
	// returns it for a schema that differs from the dataset's.
	ErrInvalidSchema = attribute.ErrInvalidSchema

	// ErrInvalidSplit reports a split name outside [A-Za-z0-9._-].
	ErrInvalidSplit = errors.New("dataset: invalid split name")

	// ErrSplitBusy is returned by OpenWriter while another writer
	// holds the split.
	ErrSplitBusy = errors.New("dataset: split is locked by another writer")

	// ErrWriterClosed is returned when writing to a closed Writer or
	// Filler.
	ErrWriterClosed = errors.New("dataset: writer closed")

	// ErrIteratorClosed is returned by Next after Close.
	ErrIteratorClosed = errors.New("dataset: iterator closed")

	// ErrIndexMismatch reports a shard file whose header disagrees
	// with its index entry.
	ErrIndexMismatch = errors.New("dataset: shard disagrees with index")
)
