// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration used by shardstore.
//
// Two things are encoded with it: the dataset index artifact
// (index.cbor) and, for shards written with the cbor record encoding,
// each individual example record. Both need byte-for-byte
// reproducibility so that the same logical content always produces
// the same checksum. Encoding therefore uses RFC 8949 Core
// Deterministic Encoding; decoding ignores unknown fields so older
// readers can open indexes written by newer versions.
//
// Struct types use json tags. fxamacker/cbor falls back to json tags
// when no cbor tag is present, so the same types serve the CLI's JSON
// output and the on-disk CBOR form. Types implementing
// encoding.TextMarshaler are encoded as CBOR text strings, so codec,
// record encoding, and dtype fields carry their names.
package codec
