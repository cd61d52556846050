// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"errors"
	"slices"
	"testing"
)

func TestElementTextRoundtrip(t *testing.T) {
	tests := []struct {
		dtype DType
		texts []string
	}{
		{Bool, []string{"0", "1", "1"}},
		{Int8, []string{"-128", "0", "127"}},
		{Uint8, []string{"0", "255"}},
		{Int16, []string{"-32768", "-1", "32767"}},
		{Uint16, []string{"65535"}},
		{Int32, []string{"-2147483648", "42"}},
		{Uint32, []string{"4294967295"}},
		{Int64, []string{"-9223372036854775808", "9223372036854775807"}},
		{Uint64, []string{"18446744073709551615"}},
		{Float16, []string{"0.5", "-2", "65504"}},
		{Float32, []string{"0.1", "-3.5", "1e+30"}},
		{Float64, []string{"0.1", "-3.5", "1e+300"}},
	}
	for _, tt := range tests {
		t.Run(tt.dtype.String(), func(t *testing.T) {
			data, err := tt.dtype.ParseElements(tt.texts)
			if err != nil {
				t.Fatalf("ParseElements: %v", err)
			}
			if len(data) != len(tt.texts)*tt.dtype.Size() {
				t.Fatalf("encoded %d bytes, want %d", len(data), len(tt.texts)*tt.dtype.Size())
			}
			if got := tt.dtype.FormatElements(data); !slices.Equal(got, tt.texts) {
				t.Errorf("FormatElements = %v, want %v", got, tt.texts)
			}
		})
	}
}

func TestParseElementsMatchesTypedHelpers(t *testing.T) {
	data, err := Float32.ParseElements([]string{"1.5", "-2.25"})
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}
	if !slices.Equal(data, Float32Bytes([]float32{1.5, -2.25})) {
		t.Errorf("float32 bytes differ from Float32Bytes")
	}

	data, err = Int32.ParseElements([]string{"-7"})
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}
	if got := Int32s(data); len(got) != 1 || got[0] != -7 {
		t.Errorf("Int32s = %v, want [-7]", got)
	}
}

func TestParseElementsRejects(t *testing.T) {
	tests := []struct {
		name  string
		dtype DType
		text  string
	}{
		{"int8 overflow", Int8, "128"},
		{"uint8 negative", Uint8, "-1"},
		{"int fraction", Int32, "1.5"},
		{"bool word", Bool, "maybe"},
		{"float garbage", Float32, "one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.dtype.ParseElements([]string{tt.text}); err == nil {
				t.Errorf("ParseElements(%q) as %s succeeded", tt.text, tt.dtype)
			}
		})
	}

	if _, err := Invalid.ParseElements([]string{"1"}); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("invalid dtype error = %v, want ErrInvalidSchema", err)
	}
}

func TestFormatElementsIgnoresPartialElement(t *testing.T) {
	data := append(Int32Bytes([]int32{5}), 0xff, 0xff)
	if got := Int32.FormatElements(data); !slices.Equal(got, []string{"5"}) {
		t.Errorf("FormatElements = %v, want [5]", got)
	}
	if got := Invalid.FormatElements(data); got != nil {
		t.Errorf("invalid dtype formatted %v", got)
	}
}
