// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/compress"
)

// Reader decodes one finalized shard. The header is parsed when the
// reader is created; the payload is verified and decoded by ReadAll.
type Reader struct {
	path    string
	schema  *attribute.Schema
	header  Header
	payload []byte
}

// Open reads the shard at path into memory and parses its header.
func Open(path string, schema *attribute.Schema) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shard %s: %w", path, err)
	}
	reader, err := NewReader(data, schema)
	if err != nil {
		setPath(err, path)
		return nil, err
	}
	reader.path = path
	return reader, nil
}

// NewReader parses a shard held in memory. The reader retains data;
// decoded examples alias the decompressed stream, never data itself
// unless the shard is uncompressed.
func NewReader(data []byte, schema *attribute.Schema) (*Reader, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", attribute.ErrInvalidSchema)
	}
	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	payload := data[HeaderSize:]
	if uint64(len(payload)) != header.CompressedSize {
		return nil, &Error{Offset: HeaderSize, Err: fmt.Errorf("%w: payload is %d bytes, header declares %d",
			ErrCorruptShard, len(payload), header.CompressedSize)}
	}
	return &Reader{schema: schema, header: header, payload: payload}, nil
}

// Header returns the parsed shard header.
func (r *Reader) Header() Header { return r.header }

// Path returns the file the reader was opened from, or "" for an
// in-memory shard.
func (r *Reader) Path() string { return r.path }

// ReadAll verifies the stored payload, decompresses it, verifies the
// checksum over the uncompressed stream, and decodes every record in
// write order. No record is decoded before both checksums have been
// verified.
func (r *Reader) ReadAll() ([]attribute.Example, error) {
	if computed := ComputePayloadChecksum(r.payload); computed != r.header.PayloadChecksum {
		return nil, r.fail(64, fmt.Errorf("%w: stored payload checksum %s, computed %s",
			ErrChecksumMismatch, r.header.PayloadChecksum, computed))
	}
	if r.header.UncompressedSize > math.MaxInt {
		return nil, r.fail(16, fmt.Errorf("%w: record stream of %d bytes cannot be held in memory",
			ErrCorruptShard, r.header.UncompressedSize))
	}
	stream, err := compress.Decompress(r.payload, r.header.Compression, int(r.header.UncompressedSize))
	if err != nil {
		return nil, r.fail(HeaderSize, fmt.Errorf("%w: decompressing %s payload: %w",
			ErrChecksumMismatch, r.header.Compression, err))
	}
	if computed := ComputeChecksum(stream); computed != r.header.Checksum {
		return nil, r.fail(32, fmt.Errorf("%w: stored %s, computed %s",
			ErrChecksumMismatch, r.header.Checksum, computed))
	}

	examples := make([]attribute.Example, 0, r.header.ExampleCount)
	offset := 0
	for offset < len(stream) {
		if len(stream)-offset < lengthPrefixSize {
			return nil, r.fail(int64(offset), fmt.Errorf("%w: truncated record length prefix", ErrCorruptShard))
		}
		recordLength := int(binary.LittleEndian.Uint32(stream[offset:]))
		start := offset + lengthPrefixSize
		if recordLength > len(stream)-start {
			return nil, r.fail(int64(offset), fmt.Errorf("%w: record of %d bytes runs past the end of the stream",
				ErrCorruptShard, recordLength))
		}
		end := start + recordLength
		example, err := r.header.Encoding.decodeRecord(stream[start:end:end], r.schema)
		if err != nil {
			return nil, r.fail(int64(offset), fmt.Errorf("record %d: %w", len(examples), err))
		}
		examples = append(examples, example)
		offset = end
	}
	if len(examples) != int(r.header.ExampleCount) {
		return nil, r.fail(-1, fmt.Errorf("%w: decoded %d records, header declares %d",
			ErrCorruptShard, len(examples), r.header.ExampleCount))
	}
	return examples, nil
}

func (r *Reader) fail(offset int64, err error) error {
	return &Error{Path: r.path, Offset: offset, Err: err}
}

// setPath fills in the path of a *Error produced while parsing a
// file's bytes.
func setPath(err error, path string) {
	if shardErr, ok := err.(*Error); ok && shardErr.Path == "" {
		shardErr.Path = path
	}
}
