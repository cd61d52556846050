// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/bureau-foundation/shardstore/lib/codec"
	"github.com/bureau-foundation/shardstore/lib/compress"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

const (
	indexVersion  = 1
	indexFileName = "index.cbor"
)

// Index is the dataset index artifact: the structure and, per split,
// the ordered list of shards that belong to the dataset.
type Index struct {
	Version   int                     `json:"version"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Structure Descriptor              `json:"structure"`
	Splits    map[string][]ShardEntry `json:"splits"`
}

// ShardEntry records one finalized shard.
type ShardEntry struct {
	// File is the shard's file name within its split directory.
	File        string         `json:"file"`
	Examples    int            `json:"examples"`
	Encoding    shard.Encoding `json:"encoding"`
	Compression compress.Kind  `json:"compression"`
	// Checksum is the hex BLAKE3 checksum from the shard header.
	Checksum string `json:"checksum"`
	// Size is the shard file size in bytes.
	Size int64 `json:"size"`
}

// SplitNames returns the names of splits with at least one shard,
// sorted.
func (idx *Index) SplitNames() []string {
	names := make([]string, 0, len(idx.Splits))
	for name, shards := range idx.Splits {
		if len(shards) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Shards returns a copy of the split's shard list. An unknown split
// has no shards.
func (idx *Index) Shards(split string) []ShardEntry {
	return slices.Clone(idx.Splits[split])
}

// Examples returns the total example count of a split.
func (idx *Index) Examples(split string) int {
	total := 0
	for _, entry := range idx.Splits[split] {
		total += entry.Examples
	}
	return total
}

// Validate checks the index for internal consistency: a known
// version, a valid structure, valid split names, and shard entries
// that agree with the structure.
func (idx *Index) Validate() error {
	if idx.Version != indexVersion {
		return fmt.Errorf("%w: index version %d is not supported (this code reads version %d)",
			ErrInvalidStructure, idx.Version, indexVersion)
	}
	structure, err := idx.Structure.Structure()
	if err != nil {
		return fmt.Errorf("index structure: %w", err)
	}
	for split, shards := range idx.Splits {
		if err := ValidateSplitName(split); err != nil {
			return err
		}
		seen := make(map[string]bool, len(shards))
		for position, entry := range shards {
			if err := entry.validate(structure); err != nil {
				return fmt.Errorf("%w: split %q shard %d (%s): %v", ErrInvalidStructure, split, position, entry.File, err)
			}
			if seen[entry.File] {
				return fmt.Errorf("%w: split %q lists %s twice", ErrInvalidStructure, split, entry.File)
			}
			seen[entry.File] = true
		}
	}
	return nil
}

func (e ShardEntry) validate(structure Structure) error {
	if _, ok := parseShardFileName(e.File); !ok {
		return fmt.Errorf("malformed shard file name %q", e.File)
	}
	if e.Examples <= 0 || e.Examples > structure.ExamplesPerShard {
		return fmt.Errorf("example count %d outside 1..%d", e.Examples, structure.ExamplesPerShard)
	}
	if e.Encoding != structure.Encoding {
		return fmt.Errorf("encoding %s, dataset uses %s", e.Encoding, structure.Encoding)
	}
	if e.Compression != structure.Compression {
		return fmt.Errorf("compression %s, dataset uses %s", e.Compression, structure.Compression)
	}
	if _, err := shard.ParseChecksum(e.Checksum); err != nil {
		return err
	}
	if e.Size < shard.HeaderSize {
		return fmt.Errorf("size %d is smaller than a shard header", e.Size)
	}
	return nil
}

// matches reports how a shard header disagrees with its entry, or
// nil when it agrees.
func (e ShardEntry) matches(header shard.Header) error {
	switch {
	case int(header.ExampleCount) != e.Examples:
		return fmt.Errorf("%w: header declares %d examples, index records %d",
			ErrIndexMismatch, header.ExampleCount, e.Examples)
	case header.Encoding != e.Encoding:
		return fmt.Errorf("%w: header encoding %s, index records %s", ErrIndexMismatch, header.Encoding, e.Encoding)
	case header.Compression != e.Compression:
		return fmt.Errorf("%w: header compression %s, index records %s", ErrIndexMismatch, header.Compression, e.Compression)
	case header.Checksum.String() != e.Checksum:
		return fmt.Errorf("%w: header checksum %s, index records %s", ErrIndexMismatch, header.Checksum, e.Checksum)
	}
	return nil
}

func (idx *Index) clone() *Index {
	clone := *idx
	clone.Splits = make(map[string][]ShardEntry, len(idx.Splits))
	for split, shards := range idx.Splits {
		clone.Splits[split] = slices.Clone(shards)
	}
	return &clone
}

// readIndex loads and validates the index under root.
func readIndex(root string) (*Index, error) {
	path := filepath.Join(root, indexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotDataset, root)
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}
	var idx Index
	if err := codec.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidStructure, path, err)
	}
	if idx.Splits == nil {
		idx.Splits = make(map[string][]ShardEntry)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &idx, nil
}

// writeIndex atomically replaces the index under root via a temp
// file in <root>/tmp.
func writeIndex(root string, idx *Index) error {
	tmpFile, err := os.CreateTemp(filepath.Join(root, tmpDir), "index-*.cbor")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	buffered := bufio.NewWriter(tmpFile)
	if err := codec.NewEncoder(buffered).Encode(idx); err != nil {
		tmpFile.Close()
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing index data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing index data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp index file: %w", err)
	}

	finalPath := filepath.Join(root, indexFileName)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming index to %s: %w", finalPath, err)
	}

	success = true
	return nil
}
