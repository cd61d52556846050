// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/compress"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

// Structure is everything fixed at dataset creation.
type Structure struct {
	Schema           *attribute.Schema
	Compression      compress.Kind
	Encoding         shard.Encoding
	ExamplesPerShard int
}

// Validate checks that every field is usable.
func (s Structure) Validate() error {
	if s.Schema == nil {
		return fmt.Errorf("%w: no schema", ErrInvalidStructure)
	}
	if !s.Compression.Valid() {
		return fmt.Errorf("%w: compression tag %d", compress.ErrUnsupportedCodec, uint8(s.Compression))
	}
	if !s.Encoding.Valid() {
		return fmt.Errorf("%w: encoding tag %d", shard.ErrUnsupportedEncoding, uint8(s.Encoding))
	}
	if s.ExamplesPerShard <= 0 {
		return fmt.Errorf("%w: examples per shard must be positive, got %d", ErrInvalidStructure, s.ExamplesPerShard)
	}
	return nil
}

// Descriptor returns the serializable form of the structure.
func (s Structure) Descriptor() Descriptor {
	return Descriptor{
		Attributes:       s.Schema.Specs(),
		Compression:      s.Compression,
		Encoding:         s.Encoding,
		ExamplesPerShard: s.ExamplesPerShard,
	}
}

// Descriptor is the on-disk and human-edited form of a Structure. In
// JSON the kinds are written by name:
//
//	{
//	  // one entry per attribute, in record order
//	  "attributes": [
//	    {"name": "trace", "dtype": "float32", "shape": [138]},
//	  ],
//	  "compression": "zstd",
//	  "encoding": "raw",
//	  "examples_per_shard": 256,
//	}
type Descriptor struct {
	Attributes       []attribute.Spec `json:"attributes"`
	Compression      compress.Kind    `json:"compression"`
	Encoding         shard.Encoding   `json:"encoding"`
	ExamplesPerShard int              `json:"examples_per_shard"`
}

// Structure builds and validates the structure the descriptor names.
func (d Descriptor) Structure() (Structure, error) {
	schema, err := attribute.NewSchema(d.Attributes)
	if err != nil {
		return Structure{}, err
	}
	structure := Structure{
		Schema:           schema,
		Compression:      d.Compression,
		Encoding:         d.Encoding,
		ExamplesPerShard: d.ExamplesPerShard,
	}
	if err := structure.Validate(); err != nil {
		return Structure{}, err
	}
	return structure, nil
}

// ParseStructure parses a JSONC structure descriptor. Comments and
// trailing commas are allowed; unknown fields are not.
func ParseStructure(data []byte) (Structure, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	var descriptor Descriptor
	if err := decoder.Decode(&descriptor); err != nil {
		return Structure{}, fmt.Errorf("%w: parsing descriptor: %v", ErrInvalidStructure, err)
	}
	return descriptor.Structure()
}

// LoadStructure reads and parses a JSONC structure descriptor file.
func LoadStructure(path string) (Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Structure{}, fmt.Errorf("reading structure descriptor: %w", err)
	}
	structure, err := ParseStructure(data)
	if err != nil {
		return Structure{}, fmt.Errorf("%s: %w", path, err)
	}
	return structure, nil
}
