// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/shardstore/lib/compress"
	"github.com/bureau-foundation/shardstore/lib/shard"
	shardtest "github.com/bureau-foundation/shardstore/lib/testutil"
)

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ShardsWritten.WithLabelValues("train").Add(0)
	m.ShardErrors.WithLabelValues("train", string(IssueChecksum)).Add(0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var names []string
	for _, family := range families {
		names = append(names, family.GetName())
	}
	for _, want := range []string{"shardstore_shards_written_total", "shardstore_shard_errors_total"} {
		if !strings.Contains(strings.Join(names, " "), want) {
			t.Errorf("registry is missing %s (has %v)", want, names)
		}
	}
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.shardWritten("train", 1, 1)
	m.shardRead("train", 1)
	m.shardError("train", IssueIO)
}

func TestWriteAndReadMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	d := createDataset(t, traceStructure(t, compress.Zstd, shard.EncodingRaw, 4), Options{Metrics: m})
	writeSplit(t, d, "train", shardtest.TraceExamples(t, 10, traceLength, 30))

	if got := testutil.ToFloat64(m.ShardsWritten.WithLabelValues("train")); got != 3 {
		t.Errorf("shards written = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ExamplesWritten.WithLabelValues("train")); got != 10 {
		t.Errorf("examples written = %v, want 10", got)
	}
	var size int64
	for _, entry := range d.Index().Shards("train") {
		size += entry.Size
	}
	if got := testutil.ToFloat64(m.BytesWritten.WithLabelValues("train")); got != float64(size) {
		t.Errorf("bytes written = %v, want %d", got, size)
	}

	collect(t, d, "train", IterateOptions{})
	if got := testutil.ToFloat64(m.ShardsRead.WithLabelValues("train")); got != 3 {
		t.Errorf("shards read = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ExamplesRead.WithLabelValues("train")); got != 10 {
		t.Errorf("examples read = %v, want 10", got)
	}

	mutateFile(t, d.shardPath("train", shardFileName(0)), func(data []byte) []byte {
		data[shard.HeaderSize+3] ^= 0xff
		return data
	})
	it, err := d.Iterate(t.Context(), "train", IterateOptions{Prefetch: 1})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer it.Close()
	if _, err := it.Next(t.Context()); !errors.Is(err, shard.ErrChecksumMismatch) {
		t.Fatalf("Next = %v, want ErrChecksumMismatch", err)
	}
	if got := testutil.ToFloat64(m.ShardErrors.WithLabelValues("train", string(IssueChecksum))); got != 1 {
		t.Errorf("checksum errors = %v, want 1", got)
	}

	if err := os.Remove(d.shardPath("train", shardFileName(1))); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Validate(t.Context()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := testutil.ToFloat64(m.ShardErrors.WithLabelValues("train", string(IssueMissing))); got != 1 {
		t.Errorf("missing errors = %v, want 1", got)
	}
}
