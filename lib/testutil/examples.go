// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/bureau-foundation/shardstore/lib/attribute"
)

// TraceSchema returns a schema with one float32 attribute "trace" of
// shape (length,).
func TraceSchema(t testing.TB, length int) *attribute.Schema {
	t.Helper()
	schema, err := attribute.NewSchema([]attribute.Spec{
		{Name: "trace", DType: attribute.Float32, Shape: []int{length}},
	})
	if err != nil {
		t.Fatalf("building trace schema: %v", err)
	}
	return schema
}

// TraceExamples returns count examples for TraceSchema(length). Values
// are uniform in [0, 1) and fully determined by seed; the first
// element of example i is float32(i), so examples are distinct and a
// decoded example identifies its write position.
func TraceExamples(t testing.TB, count, length int, seed uint64) []attribute.Example {
	t.Helper()
	if length < 1 {
		t.Fatalf("trace length must be positive, got %d", length)
	}
	random := rand.New(rand.NewPCG(seed, seed))
	examples := make([]attribute.Example, count)
	for i := range examples {
		trace := make([]float32, length)
		trace[0] = float32(i)
		for j := 1; j < length; j++ {
			trace[j] = random.Float32()
		}
		examples[i] = attribute.Example{attribute.Float32Bytes(trace)}
	}
	return examples
}

// TraceID returns the write position encoded in an example built by
// TraceExamples.
func TraceID(t testing.TB, example attribute.Example) int {
	t.Helper()
	if len(example) != 1 || len(example[0]) < 4 {
		t.Fatalf("not a trace example: %d values", len(example))
	}
	return int(attribute.Float32s(example[0][:4])[0])
}
