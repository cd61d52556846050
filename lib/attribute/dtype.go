// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"fmt"
	"strings"
)

// DType is the scalar element type of an attribute. The numeric
// values are persisted in dataset indexes and must not be reordered.
type DType uint8

const (
	Invalid DType = iota
	Bool
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float16
	Float32
	Float64
)

var dtypeInfo = [...]struct {
	name string
	size int
}{
	Invalid: {"invalid", 0},
	Bool:    {"bool", 1},
	Int8:    {"int8", 1},
	Uint8:   {"uint8", 1},
	Int16:   {"int16", 2},
	Uint16:  {"uint16", 2},
	Int32:   {"int32", 4},
	Uint32:  {"uint32", 4},
	Int64:   {"int64", 8},
	Uint64:  {"uint64", 8},
	Float16: {"float16", 2},
	Float32: {"float32", 4},
	Float64: {"float64", 8},
}

// Valid reports whether d is a concrete element type.
func (d DType) Valid() bool {
	return d != Invalid && int(d) < len(dtypeInfo)
}

// Size returns the width of one element in bytes, or 0 for an
// invalid type.
func (d DType) Size() int {
	if !d.Valid() {
		return 0
	}
	return dtypeInfo[d].size
}

// String returns the numpy-style name ("float32", "uint8", ...).
func (d DType) String() string {
	if int(d) < len(dtypeInfo) {
		return dtypeInfo[d].name
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

// ParseDType resolves a numpy-style type name, case-insensitively.
func ParseDType(name string) (DType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for value, info := range dtypeInfo {
		if DType(value) != Invalid && info.name == normalized {
			return DType(value), nil
		}
	}
	return Invalid, fmt.Errorf("%w: unknown dtype %q", ErrInvalidSchema, name)
}

// MarshalText stores a DType by name in JSON, YAML, and CBOR.
func (d DType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: cannot encode dtype %d", ErrInvalidSchema, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DType) UnmarshalText(text []byte) error {
	parsed, err := ParseDType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
