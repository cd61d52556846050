// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters a Dataset updates. A nil
// *Metrics records nothing.
type Metrics struct {
	ShardsWritten   *prometheus.CounterVec
	ExamplesWritten *prometheus.CounterVec
	BytesWritten    *prometheus.CounterVec
	ShardsRead      *prometheus.CounterVec
	ExamplesRead    *prometheus.CounterVec
	ShardErrors     *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	shardsWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardstore_shards_written_total",
		Help: "Shards finalized and registered in the index",
	}, []string{"split"})

	examplesWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardstore_examples_written_total",
		Help: "Examples in registered shards",
	}, []string{"split"})

	bytesWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardstore_bytes_written_total",
		Help: "Shard file bytes written, header included",
	}, []string{"split"})

	shardsRead := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardstore_shards_read_total",
		Help: "Shards read and verified by iterators",
	}, []string{"split"})

	examplesRead := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardstore_examples_read_total",
		Help: "Examples decoded from verified shards",
	}, []string{"split"})

	shardErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardstore_shard_errors_total",
		Help: "Shard read and finalize failures by kind",
	}, []string{"split", "kind"})

	reg.MustRegister(shardsWritten, examplesWritten, bytesWritten, shardsRead, examplesRead, shardErrors)

	return &Metrics{
		ShardsWritten:   shardsWritten,
		ExamplesWritten: examplesWritten,
		BytesWritten:    bytesWritten,
		ShardsRead:      shardsRead,
		ExamplesRead:    examplesRead,
		ShardErrors:     shardErrors,
	}
}

func (m *Metrics) shardWritten(split string, examples int, bytes int64) {
	if m == nil {
		return
	}
	m.ShardsWritten.WithLabelValues(split).Inc()
	m.ExamplesWritten.WithLabelValues(split).Add(float64(examples))
	m.BytesWritten.WithLabelValues(split).Add(float64(bytes))
}

func (m *Metrics) shardRead(split string, examples int) {
	if m == nil {
		return
	}
	m.ShardsRead.WithLabelValues(split).Inc()
	m.ExamplesRead.WithLabelValues(split).Add(float64(examples))
}

func (m *Metrics) shardError(split string, kind IssueKind) {
	if m == nil {
		return
	}
	m.ShardErrors.WithLabelValues(split, string(kind)).Inc()
}
