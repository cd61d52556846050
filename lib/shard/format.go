// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bureau-foundation/shardstore/lib/compress"
)

const (
	formatVersion = 2

	// HeaderSize is the fixed length of the shard header in bytes.
	HeaderSize = 96

	// lengthPrefixSize is the width of a record length prefix.
	lengthPrefixSize = 4
)

// magic is the 8-byte shard file signature: "BSHARD", the format
// version, and a reserved zero byte.
var magic = [8]byte{'B', 'S', 'H', 'A', 'R', 'D', formatVersion, 0}

// Header is the decoded fixed-size shard header.
type Header struct {
	Encoding         Encoding
	Compression      compress.Kind
	ExampleCount     uint32
	UncompressedSize uint64
	CompressedSize   uint64
	// Checksum covers the uncompressed record stream.
	Checksum Checksum
	// PayloadChecksum covers the payload bytes exactly as stored, so
	// a change to codec framing that decompresses to the same stream
	// is still detected.
	PayloadChecksum Checksum
}

// marshal encodes the header into its fixed wire form.
func (h *Header) marshal() [HeaderSize]byte {
	var buffer [HeaderSize]byte
	copy(buffer[0:8], magic[:])
	buffer[8] = byte(h.Encoding)
	buffer[9] = byte(h.Compression)
	// buffer[10:12] reserved.
	binary.LittleEndian.PutUint32(buffer[12:16], h.ExampleCount)
	binary.LittleEndian.PutUint64(buffer[16:24], h.UncompressedSize)
	binary.LittleEndian.PutUint64(buffer[24:32], h.CompressedSize)
	copy(buffer[32:64], h.Checksum[:])
	copy(buffer[64:96], h.PayloadChecksum[:])
	return buffer
}

// ReadHeader reads and validates a shard header from r. Every
// failure, including a short read, wraps ErrCorruptShard.
func ReadHeader(r io.Reader) (Header, error) {
	var buffer [HeaderSize]byte
	if _, err := io.ReadFull(r, buffer[:]); err != nil {
		return Header{}, &Error{Offset: 0, Err: fmt.Errorf("%w: reading header: %v", ErrCorruptShard, err)}
	}
	return parseHeader(buffer[:])
}

func parseHeader(buffer []byte) (Header, error) {
	if len(buffer) < HeaderSize {
		return Header{}, &Error{Offset: 0, Err: fmt.Errorf("%w: file is %d bytes, shorter than the %d-byte header",
			ErrCorruptShard, len(buffer), HeaderSize)}
	}

	if [8]byte(buffer[0:8]) != magic {
		if string(buffer[0:6]) == "BSHARD" {
			return Header{}, &Error{Offset: 6, Err: fmt.Errorf("%w: format version %d is not supported (this code reads version %d)",
				ErrCorruptShard, buffer[6], formatVersion)}
		}
		return Header{}, &Error{Offset: 0, Err: fmt.Errorf("%w: not a shard file (invalid magic bytes)", ErrCorruptShard)}
	}

	header := Header{
		Encoding:         Encoding(buffer[8]),
		Compression:      compress.Kind(buffer[9]),
		ExampleCount:     binary.LittleEndian.Uint32(buffer[12:16]),
		UncompressedSize: binary.LittleEndian.Uint64(buffer[16:24]),
		CompressedSize:   binary.LittleEndian.Uint64(buffer[24:32]),
	}
	copy(header.Checksum[:], buffer[32:64])
	copy(header.PayloadChecksum[:], buffer[64:96])

	if !header.Encoding.Valid() {
		return Header{}, &Error{Offset: 8, Err: fmt.Errorf("%w: unknown record encoding %d", ErrCorruptShard, buffer[8])}
	}
	if !header.Compression.Valid() {
		return Header{}, &Error{Offset: 9, Err: fmt.Errorf("%w: unknown compression %d", ErrCorruptShard, buffer[9])}
	}
	if buffer[10] != 0 || buffer[11] != 0 {
		return Header{}, &Error{Offset: 10, Err: fmt.Errorf("%w: non-zero reserved bytes %x", ErrCorruptShard, buffer[10:12])}
	}
	if header.ExampleCount == 0 {
		return Header{}, &Error{Offset: 12, Err: fmt.Errorf("%w: shard declares zero examples", ErrCorruptShard)}
	}
	if minimum := uint64(header.ExampleCount) * lengthPrefixSize; header.UncompressedSize < minimum {
		return Header{}, &Error{Offset: 16, Err: fmt.Errorf("%w: record stream of %d bytes cannot hold %d records",
			ErrCorruptShard, header.UncompressedSize, header.ExampleCount)}
	}
	return header, nil
}
