// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/shardstore/lib/attribute"
)

var (
	// ErrCorruptShard reports a shard whose header or record framing
	// cannot be parsed.
	ErrCorruptShard = errors.New("shard: corrupt shard")

	// ErrChecksumMismatch reports a payload that does not reproduce
	// the checksum recorded in the header. A payload that no longer
	// decompresses is reported the same way: its checksum cannot match.
	ErrChecksumMismatch = errors.New("shard: checksum mismatch")

	// ErrUnsupportedEncoding reports a record encoding outside the
	// known set.
	ErrUnsupportedEncoding = errors.New("shard: unsupported record encoding")

	// ErrFinalized is returned when adding to or finalizing a builder
	// that has already been finalized.
	ErrFinalized = errors.New("shard: builder already finalized")

	// ErrEmpty is returned when finalizing a builder with no examples.
	ErrEmpty = errors.New("shard: no examples to finalize")

	// ErrSchemaMismatch is attribute.ErrSchemaMismatch, re-exported so
	// callers matching shard errors need only this package.
	ErrSchemaMismatch = attribute.ErrSchemaMismatch
)

// Error locates a failure inside a shard file. Offset is a byte
// offset into the file for header failures and into the uncompressed
// record stream for record failures; -1 when no position applies.
type Error struct {
	Path   string
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	name := e.Path
	if name == "" {
		name = "<memory>"
	}
	if e.Offset < 0 {
		return fmt.Sprintf("shard %s: %v", name, e.Err)
	}
	return fmt.Sprintf("shard %s at offset %d: %v", name, e.Offset, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
