// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for shardstore
// packages.
//
// [TraceSchema] and [TraceExamples] build the float32 trace datasets
// the dataset tests write: a schema with one "trace"
// attribute and deterministic pseudo-random examples, so a failing
// test reproduces exactly.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with a timer fallback) for tests that wait
// on goroutines, such as iterator prefetch.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
