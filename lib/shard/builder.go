// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/compress"
)

// State is the lifecycle position of a Builder.
type State int

const (
	// StateEmpty is a builder that holds no examples yet.
	StateEmpty State = iota
	// StateAccumulating is a builder holding at least one example.
	StateAccumulating
	// StateFinalized is a builder whose shard has been written. It
	// accepts no further examples.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Info describes a shard written by Builder.Finalize.
type Info struct {
	Encoding         Encoding
	Compression      compress.Kind
	ExampleCount     int
	Checksum         Checksum
	UncompressedSize int64
	CompressedSize   int64

	// Size is the number of bytes written: header plus payload.
	Size int64
}

// Builder accumulates the records of one shard in memory and writes
// the finished shard in one call to Finalize. Builders are not safe
// for concurrent use; the single writer of a split owns its builder.
type Builder struct {
	schema      *attribute.Schema
	encoding    Encoding
	compression compress.Kind

	stream []byte
	count  int
	state  State
}

// NewBuilder starts an empty shard. Encoding and compression are
// checked here so a misconfigured writer fails before accepting data.
func NewBuilder(schema *attribute.Schema, encoding Encoding, compression compress.Kind) (*Builder, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", attribute.ErrInvalidSchema)
	}
	if !encoding.Valid() {
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedEncoding, uint8(encoding))
	}
	if !compression.Valid() {
		return nil, fmt.Errorf("%w: tag %d", compress.ErrUnsupportedCodec, uint8(compression))
	}
	return &Builder{
		schema:      schema,
		encoding:    encoding,
		compression: compression,
	}, nil
}

// Add validates example against the schema, serializes it, and
// appends it to the record stream.
func (b *Builder) Add(example attribute.Example) error {
	if b.state == StateFinalized {
		return ErrFinalized
	}
	if err := b.schema.Validate(example); err != nil {
		return err
	}
	if b.count == math.MaxUint32 {
		return fmt.Errorf("shard already holds the maximum of %d examples", uint32(math.MaxUint32))
	}

	prefixAt := len(b.stream)
	b.stream = append(b.stream, 0, 0, 0, 0)
	stream, err := b.encoding.appendRecord(b.stream, example)
	if err != nil {
		b.stream = b.stream[:prefixAt]
		return err
	}
	recordLength := len(stream) - prefixAt - lengthPrefixSize
	if recordLength > math.MaxUint32 {
		b.stream = stream[:prefixAt]
		return fmt.Errorf("record of %d bytes exceeds the 4 GiB record limit", recordLength)
	}
	binary.LittleEndian.PutUint32(stream[prefixAt:], uint32(recordLength))
	b.stream = stream

	b.count++
	b.state = StateAccumulating
	return nil
}

// Len returns the number of examples added so far.
func (b *Builder) Len() int { return b.count }

// StreamSize returns the current uncompressed record stream length.
func (b *Builder) StreamSize() int { return len(b.stream) }

// State returns the builder's lifecycle state.
func (b *Builder) State() State { return b.state }

// Full reports whether the builder holds at least capacity examples
// and should be rotated. A non-positive capacity never fills.
func (b *Builder) Full(capacity int) bool {
	return capacity > 0 && b.count >= capacity
}

// Finalize compresses the record stream, checksums both the
// uncompressed stream and the compressed payload, and writes header
// and payload to w. The builder is
// Finalized only when the write succeeds; on error it keeps its
// records and the caller decides whether the shard is lost.
func (b *Builder) Finalize(w io.Writer) (Info, error) {
	switch b.state {
	case StateFinalized:
		return Info{}, ErrFinalized
	case StateEmpty:
		return Info{}, ErrEmpty
	}

	payload, err := compress.Compress(b.stream, b.compression)
	if err != nil {
		return Info{}, fmt.Errorf("compressing record stream with %s: %w", b.compression, err)
	}

	header := Header{
		Encoding:         b.encoding,
		Compression:      b.compression,
		ExampleCount:     uint32(b.count),
		UncompressedSize: uint64(len(b.stream)),
		CompressedSize:   uint64(len(payload)),
		Checksum:         ComputeChecksum(b.stream),
		PayloadChecksum:  ComputePayloadChecksum(payload),
	}
	encoded := header.marshal()
	if _, err := w.Write(encoded[:]); err != nil {
		return Info{}, fmt.Errorf("writing shard header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return Info{}, fmt.Errorf("writing shard payload (%d bytes): %w", len(payload), err)
	}

	info := Info{
		Encoding:         b.encoding,
		Compression:      b.compression,
		ExampleCount:     b.count,
		Checksum:         header.Checksum,
		UncompressedSize: int64(len(b.stream)),
		CompressedSize:   int64(len(payload)),
		Size:             HeaderSize + int64(len(payload)),
	}

	b.state = StateFinalized
	b.stream = nil
	return info, nil
}
