// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/x448/float16"
)

// ParseElements encodes decimal element texts as little-endian values
// of type d. Integers must fit the type's width; bool accepts the
// forms strconv.ParseBool does.
func (d DType) ParseElements(texts []string) ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: dtype %s", ErrInvalidSchema, d)
	}
	data := make([]byte, 0, len(texts)*d.Size())
	for i, text := range texts {
		var err error
		data, err = d.appendElement(data, text)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return data, nil
}

func (d DType) appendElement(dst []byte, text string) ([]byte, error) {
	switch d {
	case Bool:
		value, err := strconv.ParseBool(text)
		if err != nil {
			return nil, err
		}
		if value {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case Int8, Int16, Int32, Int64:
		value, err := strconv.ParseInt(text, 10, d.Size()*8)
		if err != nil {
			return nil, err
		}
		return appendLittleEndian(dst, uint64(value), d.Size()), nil
	case Uint8, Uint16, Uint32, Uint64:
		value, err := strconv.ParseUint(text, 10, d.Size()*8)
		if err != nil {
			return nil, err
		}
		return appendLittleEndian(dst, value, d.Size()), nil
	case Float16:
		value, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint16(dst, float16.Fromfloat32(float32(value)).Bits()), nil
	case Float32:
		value, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(value))), nil
	case Float64:
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(value)), nil
	}
	return nil, fmt.Errorf("%w: dtype %s", ErrInvalidSchema, d)
}

// FormatElements renders each element of data as decimal text, the
// inverse of ParseElements. Bool elements render as 0 or 1. A
// trailing partial element is ignored.
func (d DType) FormatElements(data []byte) []string {
	size := d.Size()
	if size == 0 {
		return nil
	}
	texts := make([]string, 0, len(data)/size)
	for offset := 0; offset+size <= len(data); offset += size {
		texts = append(texts, d.formatElement(data[offset:offset+size]))
	}
	return texts
}

func (d DType) formatElement(element []byte) string {
	bits := readLittleEndian(element)
	switch d {
	case Bool:
		if bits != 0 {
			return "1"
		}
		return "0"
	case Int8, Int16, Int32, Int64:
		shift := 64 - 8*len(element)
		return strconv.FormatInt(int64(bits<<shift)>>shift, 10)
	case Uint8, Uint16, Uint32, Uint64:
		return strconv.FormatUint(bits, 10)
	case Float16:
		return strconv.FormatFloat(float64(float16.Frombits(uint16(bits)).Float32()), 'g', -1, 32)
	case Float32:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(bits))), 'g', -1, 32)
	default:
		return strconv.FormatFloat(math.Float64frombits(bits), 'g', -1, 64)
	}
}

func appendLittleEndian(dst []byte, value uint64, size int) []byte {
	for i := range size {
		dst = append(dst, byte(value>>(8*i)))
	}
	return dst
}

func readLittleEndian(element []byte) uint64 {
	var value uint64
	for i, b := range element {
		value |= uint64(b) << (8 * i)
	}
	return value
}
