// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies the compression algorithm of a shard payload.
// Values are stored in shard headers and are protocol constants.
type Kind uint8

const (
	// None stores the record stream as-is. Always supported.
	None Kind = 0

	// Gzip is DEFLATE with the gzip container (RFC 1952).
	Gzip Kind = 1

	// Zlib is DEFLATE with the zlib container (RFC 1950).
	Zlib Kind = 2

	// LZ4 is the LZ4 frame format. Fast to decode, moderate ratio.
	LZ4 Kind = 3

	// Zstd is Zstandard at the default level.
	Zstd Kind = 4

	// Snappy is the snappy block format.
	Snappy Kind = 5

	// BG4LZ4 transposes the payload in 4-byte groups before LZ4.
	// Grouping byte positions together puts the similar exponent
	// bytes of neighbouring float32 values next to each other, which
	// LZ4 then compresses well.
	BG4LZ4 Kind = 6
)

// ErrUnsupportedCodec is returned for a Kind (or name) outside the
// registry.
var ErrUnsupportedCodec = errors.New("compress: unsupported codec")

var kindNames = [...]string{
	None:   "none",
	Gzip:   "gzip",
	Zlib:   "zlib",
	LZ4:    "lz4",
	Zstd:   "zstd",
	Snappy: "snappy",
	BG4LZ4: "bg4_lz4",
}

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Valid reports whether k is a registered codec.
func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

// MarshalText implements encoding.TextMarshaler so a Kind is stored
// by name in YAML, JSON, and CBOR documents.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedCodec, uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a codec name. Matching is case-insensitive and
// the empty string selects None.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return None, nil
	}
	for tag, candidate := range kindNames {
		if candidate == normalized {
			return Kind(tag), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
}

// Supported returns every registered codec in tag order.
func Supported() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

// Compress encodes data with the given codec. For None the input
// slice is returned unchanged (no copy).
func Compress(data []byte, kind Kind) ([]byte, error) {
	switch kind {
	case None:
		return data, nil
	case Gzip:
		return compressStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, gzip.DefaultCompression)
		})
	case Zlib:
		return compressStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return zlib.NewWriterLevel(w, zlib.DefaultCompression)
		})
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case Snappy:
		return snappy.Encode(nil, data), nil
	case BG4LZ4:
		return compressLZ4(bg4Transpose(data))
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedCodec, uint8(kind))
	}
}

// ErrSizeMismatch is returned by Decompress when the payload does
// not expand to exactly the declared size.
var ErrSizeMismatch = errors.New("compress: decompressed size mismatch")

// Decompress reverses Compress. The payload must expand to exactly
// size bytes: output is never allowed to grow past size, so a crafted
// payload cannot allocate more than the declared length. Malformed
// input is reported as an error, never as silently truncated output.
func Decompress(data []byte, kind Kind, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrSizeMismatch, size)
	}
	var (
		result []byte
		err    error
	)
	switch kind {
	case None:
		result = data
	case Gzip:
		result, err = decompressStream(data, size, "gzip", func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		})
	case Zlib:
		result, err = decompressStream(data, size, "zlib", zlib.NewReader)
	case LZ4:
		result, err = decompressLZ4(data, size)
	case Zstd:
		result, err = decompressZstd(data, size)
	case Snappy:
		result, err = decompressSnappy(data, size)
	case BG4LZ4:
		result, err = decompressLZ4(data, size)
		if err == nil {
			result = bg4Untranspose(result)
		}
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedCodec, uint8(kind))
	}
	if err != nil {
		return nil, err
	}
	if len(result) != size {
		return nil, fmt.Errorf("%w: %s payload expands to %d bytes, expected %d",
			ErrSizeMismatch, kind, len(result), size)
	}
	return result, nil
}

// compressStream runs data through a streaming compressor and
// returns the complete output.
func compressStream(data []byte, newWriter func(io.Writer) (io.WriteCloser, error)) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := newWriter(&buffer)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// readBounded reads exactly size bytes from reader and then requires
// the stream to end. Nothing past size is buffered.
func readBounded(reader io.Reader, size int, name string) ([]byte, error) {
	result := make([]byte, size)
	if _, err := io.ReadFull(reader, result); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: %s payload ends before %d bytes", ErrSizeMismatch, name, size)
		}
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
	var extra [1]byte
	switch _, err := io.ReadFull(reader, extra[:]); err {
	case io.EOF:
		return result, nil
	case nil:
		return nil, fmt.Errorf("%w: %s payload expands past %d bytes", ErrSizeMismatch, name, size)
	default:
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
}

func decompressStream(data []byte, size int, name string, newReader func(io.Reader) (io.ReadCloser, error)) ([]byte, error) {
	reader, err := newReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
	result, err := readBounded(reader, size, name)
	if err != nil {
		reader.Close()
		return nil, err
	}
	if err := reader.Close(); err != nil {
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
	return result, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func decompressLZ4(data []byte, size int) ([]byte, error) {
	return readBounded(lz4.NewReader(bytes.NewReader(data)), size, "lz4")
}

func decompressZstd(data []byte, size int) ([]byte, error) {
	// The frame header usually declares its content size; reject a
	// frame claiming more than expected before decoding any block.
	var frame zstd.Header
	if err := frame.Decode(data); err == nil && frame.HasFCS && frame.FrameContentSize > uint64(size) {
		return nil, fmt.Errorf("%w: zstd frame declares %d bytes, expected %d",
			ErrSizeMismatch, frame.FrameContentSize, size)
	}
	decoder, err := zstd.NewReader(bytes.NewReader(data),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(max(uint64(size), 1<<20)),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	defer decoder.Close()
	return readBounded(decoder, size, "zstd")
}

func decompressSnappy(data []byte, size int) ([]byte, error) {
	decodedLength, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}
	if decodedLength != size {
		return nil, fmt.Errorf("%w: snappy block declares %d bytes, expected %d", ErrSizeMismatch, decodedLength, size)
	}
	result, err := snappy.Decode(make([]byte, size), data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}
	return result, nil
}

// zstd.Encoder is safe for concurrent use through EncodeAll, so one
// serves the whole process. Decoding uses a streaming reader per call
// so output can be bounded.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	// Zero frames keep an empty record stream a decodable frame
	// rather than zero bytes.
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
}

// bg4Transpose places byte 0 of every 4-byte group first, then byte
// 1, and so on. Trailing bytes that do not fill a group are copied
// unchanged after the transposed region.
func bg4Transpose(data []byte) []byte {
	groupCount := len(data) / 4
	output := make([]byte, len(data))
	for i := 0; i < groupCount; i++ {
		output[i] = data[i*4]
		output[groupCount+i] = data[i*4+1]
		output[groupCount*2+i] = data[i*4+2]
		output[groupCount*3+i] = data[i*4+3]
	}
	copy(output[groupCount*4:], data[groupCount*4:])
	return output
}

func bg4Untranspose(data []byte) []byte {
	groupCount := len(data) / 4
	output := make([]byte, len(data))
	for i := 0; i < groupCount; i++ {
		output[i*4] = data[i]
		output[i*4+1] = data[groupCount+i]
		output[i*4+2] = data[groupCount*2+i]
		output[i*4+3] = data[groupCount*3+i]
	}
	copy(output[groupCount*4:], data[groupCount*4:])
	return output
}
