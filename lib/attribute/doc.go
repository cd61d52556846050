// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attribute defines the fixed per-example structure of a
// dataset.
//
// A [Schema] is an ordered list of attribute [Spec]s, each a name, a
// scalar element type ([DType]) and a fixed shape. The schema is
// decided once when a dataset is created and never changes, so every
// example in every shard has exactly the same byte layout: attribute
// i occupies product(shape_i) * size(dtype_i) bytes, row-major,
// little-endian.
//
// An [Example] is one value per attribute in schema order. Name
// lookups are resolved to positions once, when the schema is built;
// the write and read paths then work purely by index.
package attribute
