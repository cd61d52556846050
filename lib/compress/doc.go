// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress is the codec registry for shard payloads.
//
// Codecs form a closed set identified by [Kind], a one-byte tag that
// is written into every shard header. A shard is therefore
// self-describing: the reader never needs out-of-band configuration
// to know how a payload was compressed. Adding a codec means adding a
// tag; existing tag values never change meaning.
//
// Every codec is a pure, stateless transform over a complete byte
// slice: Decompress(Compress(x), len(x)) == x for all inputs including
// the empty slice. Decompress is told the expected size and fails with
// [ErrSizeMismatch] rather than produce more, so a hostile payload
// cannot inflate past its declared length. Unknown tags fail with [ErrUnsupportedCodec] on both
// paths; there is no fallback to a different codec.
package compress
