// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/codec"
)

// Encoding selects how one example is serialized into a record.
// Values are stored in shard headers and are protocol constants.
type Encoding uint8

const (
	// EncodingRaw concatenates the attribute values in schema order.
	// The record length is always Schema.ExampleSize.
	EncodingRaw Encoding = 0

	// EncodingCBOR writes a CBOR array holding one byte string per
	// attribute.
	EncodingCBOR Encoding = 1
)

var encodingNames = [...]string{
	EncodingRaw:  "raw",
	EncodingCBOR: "cbor",
}

// Valid reports whether e is a known encoding.
func (e Encoding) Valid() bool { return int(e) < len(encodingNames) }

func (e Encoding) String() string {
	if e.Valid() {
		return encodingNames[e]
	}
	return fmt.Sprintf("unknown(%d)", uint8(e))
}

// ParseEncoding resolves an encoding name. The empty string selects
// EncodingRaw.
func ParseEncoding(name string) (Encoding, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return EncodingRaw, nil
	}
	for value, candidate := range encodingNames {
		if candidate == normalized {
			return Encoding(value), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
}

// MarshalText stores an Encoding by name.
func (e Encoding) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedEncoding, uint8(e))
	}
	return []byte(encodingNames[e]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Encoding) UnmarshalText(text []byte) error {
	parsed, err := ParseEncoding(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// appendRecord serializes a validated example and appends it to dst.
func (e Encoding) appendRecord(dst []byte, example attribute.Example) ([]byte, error) {
	switch e {
	case EncodingRaw:
		for _, value := range example {
			dst = append(dst, value...)
		}
		return dst, nil
	case EncodingCBOR:
		encoded, err := codec.Marshal([][]byte(example))
		if err != nil {
			return nil, fmt.Errorf("encoding cbor record: %w", err)
		}
		return append(dst, encoded...), nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedEncoding, uint8(e))
	}
}

// decodeRecord turns one record back into an example. Values alias
// record; the caller owns record for the example's lifetime.
func (e Encoding) decodeRecord(record []byte, schema *attribute.Schema) (attribute.Example, error) {
	switch e {
	case EncodingRaw:
		if len(record) != schema.ExampleSize() {
			return nil, fmt.Errorf("%w: record is %d bytes, schema needs %d",
				ErrSchemaMismatch, len(record), schema.ExampleSize())
		}
		example := make(attribute.Example, schema.Len())
		for i := range example {
			start := schema.Offset(i)
			end := start + schema.Attribute(i).ByteSize()
			example[i] = record[start:end:end]
		}
		return example, nil
	case EncodingCBOR:
		var values [][]byte
		if err := codec.Unmarshal(record, &values); err != nil {
			return nil, fmt.Errorf("%w: decoding cbor record: %v", ErrCorruptShard, err)
		}
		example := attribute.Example(values)
		if err := schema.Validate(example); err != nil {
			return nil, err
		}
		return example, nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedEncoding, uint8(e))
	}
}
