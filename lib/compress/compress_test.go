// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{None, "none"},
		{Gzip, "gzip"},
		{Zlib, "zlib"},
		{LZ4, "lz4"},
		{Zstd, "zstd"},
		{Snappy, "snappy"},
		{BG4LZ4, "bg4_lz4"},
		{Kind(99), "unknown(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Supported() {
		t.Run(kind.String(), func(t *testing.T) {
			parsed, err := ParseKind(kind.String())
			if err != nil {
				t.Fatalf("ParseKind(%q): %v", kind.String(), err)
			}
			if parsed != kind {
				t.Errorf("ParseKind(%q) = %v, want %v", kind.String(), parsed, kind)
			}
		})
	}

	t.Run("case insensitive", func(t *testing.T) {
		parsed, err := ParseKind("ZSTD")
		if err != nil || parsed != Zstd {
			t.Errorf("ParseKind(\"ZSTD\") = %v, %v", parsed, err)
		}
	})

	t.Run("empty is none", func(t *testing.T) {
		parsed, err := ParseKind("")
		if err != nil || parsed != None {
			t.Errorf("ParseKind(\"\") = %v, %v", parsed, err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseKind("bz2")
		if !errors.Is(err, ErrUnsupportedCodec) {
			t.Errorf("ParseKind(\"bz2\") error = %v, want ErrUnsupportedCodec", err)
		}
	})
}

func TestSupportedIncludesNone(t *testing.T) {
	kinds := Supported()
	if len(kinds) == 0 || kinds[0] != None {
		t.Fatalf("Supported() = %v, want None first", kinds)
	}
	for i, kind := range kinds {
		if int(kind) != i {
			t.Errorf("Supported()[%d] = %v, want tag order", i, kind)
		}
	}
}

func TestRoundtripAllKinds(t *testing.T) {
	random := make([]byte, 10_000)
	if _, err := rand.Read(random); err != nil {
		t.Fatal(err)
	}
	repetitive := bytes.Repeat([]byte("shard record "), 4096)
	floats := make([]byte, 4*4096)
	for i := 0; i < 4096; i++ {
		binary.LittleEndian.PutUint32(floats[i*4:], math.Float32bits(float32(i)*0.25))
	}

	payloads := map[string][]byte{
		"empty":      {},
		"nil":        nil,
		"one byte":   {0x42},
		"unaligned":  {1, 2, 3, 4, 5, 6, 7},
		"random":     random,
		"repetitive": repetitive,
		"float32":    floats,
	}

	for _, kind := range Supported() {
		for name, payload := range payloads {
			t.Run(kind.String()+"/"+name, func(t *testing.T) {
				compressed, err := Compress(payload, kind)
				if err != nil {
					t.Fatalf("Compress: %v", err)
				}
				decompressed, err := Decompress(compressed, kind, len(payload))
				if err != nil {
					t.Fatalf("Decompress: %v", err)
				}
				if !bytes.Equal(decompressed, payload) {
					t.Fatalf("roundtrip mismatch: got %d bytes, want %d", len(decompressed), len(payload))
				}
			})
		}
	}
}

func TestNoneIsIdentity(t *testing.T) {
	data := []byte("passes through unchanged")
	compressed, err := Compress(data, None)
	if err != nil {
		t.Fatal(err)
	}
	if &compressed[0] != &data[0] {
		t.Error("None should return the input slice, not a copy")
	}
}

func TestCompressorsShrinkRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 8192)
	for _, kind := range Supported() {
		if kind == None {
			continue
		}
		compressed, err := Compress(data, kind)
		if err != nil {
			t.Fatalf("%v: %v", kind, err)
		}
		if len(compressed) >= len(data) {
			t.Errorf("%v did not compress: %d -> %d bytes", kind, len(data), len(compressed))
		}
	}
}

func TestUnsupportedKind(t *testing.T) {
	if _, err := Compress([]byte("x"), Kind(200)); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Compress with unknown kind: %v, want ErrUnsupportedCodec", err)
	}
	if _, err := Decompress([]byte("x"), Kind(200), 1); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Decompress with unknown kind: %v, want ErrUnsupportedCodec", err)
	}
}

func TestDecompressGarbage(t *testing.T) {
	garbage := []byte("this is not a compressed stream at all")
	for _, kind := range []Kind{Gzip, Zlib, LZ4, Zstd, Snappy, BG4LZ4} {
		if _, err := Decompress(garbage, kind, 4*len(garbage)); err == nil {
			t.Errorf("Decompress(garbage, %v) should fail", kind)
		}
	}
}

func TestDecompressEnforcesSize(t *testing.T) {
	// 4 MiB of zeros compresses to a few KiB under every codec.
	zeros := make([]byte, 4<<20)
	for _, kind := range Supported() {
		t.Run(kind.String(), func(t *testing.T) {
			compressed, err := Compress(zeros, kind)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			for _, size := range []int{0, 564, len(zeros) - 1, len(zeros) + 1} {
				result, err := Decompress(compressed, kind, size)
				if !errors.Is(err, ErrSizeMismatch) {
					t.Fatalf("Decompress(size %d) = %d bytes, error %v; want ErrSizeMismatch", size, len(result), err)
				}
			}
			if _, err := Decompress(compressed, kind, -1); !errors.Is(err, ErrSizeMismatch) {
				t.Errorf("Decompress(size -1) error = %v, want ErrSizeMismatch", err)
			}
		})
	}
}

func TestDecompressOversizeAllocatesBoundedMemory(t *testing.T) {
	zeros := make([]byte, 64<<20)
	for _, kind := range []Kind{Gzip, Zlib, LZ4, Zstd, BG4LZ4} {
		t.Run(kind.String(), func(t *testing.T) {
			compressed, err := Compress(zeros, kind)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			var before, after runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&before)
			if _, err := Decompress(compressed, kind, 564); !errors.Is(err, ErrSizeMismatch) {
				t.Fatalf("error = %v, want ErrSizeMismatch", err)
			}
			runtime.ReadMemStats(&after)
			if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 32<<20 {
				t.Errorf("rejecting a %d-byte expansion allocated %d bytes", len(zeros), allocated)
			}
		})
	}
}

func TestBG4TransposeRoundtrip(t *testing.T) {
	for _, length := range []int{0, 1, 3, 4, 5, 8, 13, 1024} {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i*31 + 7)
		}
		transposed := bg4Transpose(data)
		if length >= 8 && bytes.Equal(transposed, data) {
			t.Errorf("length %d: transpose did not reorder", length)
		}
		if got := bg4Untranspose(transposed); !bytes.Equal(got, data) {
			t.Errorf("length %d: untranspose mismatch", length)
		}
	}
}

func TestKindTextRoundtrip(t *testing.T) {
	text, err := Zstd.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var kind Kind
	if err := kind.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if kind != Zstd {
		t.Errorf("got %v, want zstd", kind)
	}
	if _, err := Kind(77).MarshalText(); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("MarshalText of unknown kind: %v", err)
	}
}
