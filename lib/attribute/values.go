// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// Helpers converting between typed Go slices and the little-endian
// byte layout used inside examples. Decoding functions ignore a
// trailing partial element.

// Float32Bytes encodes values as little-endian IEEE 754 binary32.
func Float32Bytes(values []float32) []byte {
	data := make([]byte, len(values)*4)
	for i, value := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(value))
	}
	return data
}

// Float32s decodes little-endian binary32 values.
func Float32s(data []byte) []float32 {
	values := make([]float32, len(data)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values
}

// Float64Bytes encodes values as little-endian IEEE 754 binary64.
func Float64Bytes(values []float64) []byte {
	data := make([]byte, len(values)*8)
	for i, value := range values {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(value))
	}
	return data
}

// Float64s decodes little-endian binary64 values.
func Float64s(data []byte) []float64 {
	values := make([]float64, len(data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return values
}

// Float16Bytes rounds values to IEEE 754 binary16 (round to nearest
// even) and encodes them little-endian.
func Float16Bytes(values []float32) []byte {
	data := make([]byte, len(values)*2)
	for i, value := range values {
		binary.LittleEndian.PutUint16(data[i*2:], float16.Fromfloat32(value).Bits())
	}
	return data
}

// Float16s decodes little-endian binary16 values, widened to float32.
func Float16s(data []byte) []float32 {
	values := make([]float32, len(data)/2)
	for i := range values {
		values[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
	}
	return values
}

// Int32Bytes encodes values as little-endian int32.
func Int32Bytes(values []int32) []byte {
	data := make([]byte, len(values)*4)
	for i, value := range values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(value))
	}
	return data
}

// Int32s decodes little-endian int32 values.
func Int32s(data []byte) []int32 {
	values := make([]int32, len(data)/4)
	for i := range values {
		values[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values
}

// Int64Bytes encodes values as little-endian int64.
func Int64Bytes(values []int64) []byte {
	data := make([]byte, len(values)*8)
	for i, value := range values {
		binary.LittleEndian.PutUint64(data[i*8:], uint64(value))
	}
	return data
}

// Int64s decodes little-endian int64 values.
func Int64s(data []byte) []int64 {
	values := make([]int64, len(data)/8)
	for i := range values {
		values[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return values
}
