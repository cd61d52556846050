// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shard implements the shard file format: one immutable file
// holding a bounded, ordered batch of examples for one split.
//
// A shard is a fixed 96-byte header followed by the compressed record
// stream:
//
//	offset size field
//	0      8    magic "BSHARD", format version, reserved zero
//	8      1    record encoding (Encoding)
//	9      1    compression (compress.Kind)
//	10     2    reserved, zero
//	12     4    example count
//	16     8    uncompressed record stream length
//	24     8    compressed payload length
//	32     32   BLAKE3 keyed checksum of the uncompressed record stream
//	64     32   BLAKE3 keyed checksum of the stored payload
//	96     ...  compressed record stream
//
// The record stream is a sequence of [uint32 length][record bytes]
// pairs, one per example, in write order. All integers are
// little-endian.
//
// [Builder] accumulates examples and writes a finished shard (Empty,
// Accumulating, Finalized). [Reader] parses the header, and
// [Reader.ReadAll] verifies the payload checksum, decompresses into a
// buffer of exactly the declared size, verifies the record stream
// checksum, and only then decodes the examples in write order. Any
// change to the stored payload bytes, including codec framing that
// would decompress to the same stream, is a checksum mismatch.
//
// The header makes a shard self-describing: encoding and compression
// are read from the file itself, so a reader needs only the dataset
// schema.
package shard
