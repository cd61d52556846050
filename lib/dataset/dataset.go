// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bureau-foundation/shardstore/lib/clock"
)

// Directory and file names within a dataset root.
const (
	tmpDir        = "tmp"
	splitsDir     = "splits"
	indexLockName = ".index.lock"
	splitLockName = ".lock"

	shardPrefix = "shard-"
	shardSuffix = ".shard"
)

// Options configures a Dataset handle. The zero value discards logs,
// records no metrics, and uses the real clock.
type Options struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Clock   clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	return o
}

// Dataset is an open handle on a dataset directory. It is safe for
// concurrent use: writers on different splits and any number of
// iterators may share one handle.
type Dataset struct {
	root      string
	structure Structure
	logger    *slog.Logger
	metrics   *Metrics
	clock     clock.Clock

	mu    sync.Mutex
	index *Index
}

// Create initializes a new dataset at root with a fixed structure.
// The directory may exist but must not already hold an index.
func Create(root string, structure Structure, options Options) (*Dataset, error) {
	if err := structure.Validate(); err != nil {
		return nil, err
	}
	options = options.withDefaults()

	for _, dir := range []string{
		root,
		filepath.Join(root, tmpDir),
		filepath.Join(root, splitsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating dataset directory %s: %w", dir, err)
		}
	}

	lock, err := lockFile(filepath.Join(root, indexLockName), true)
	if err != nil {
		return nil, fmt.Errorf("locking index: %w", err)
	}
	defer lock.Unlock()

	if _, err := os.Stat(filepath.Join(root, indexFileName)); err == nil {
		return nil, fmt.Errorf("%w at %s", ErrExists, root)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking for existing index: %w", err)
	}

	now := options.Clock.Now().UTC()
	idx := &Index{
		Version:   indexVersion,
		CreatedAt: now,
		UpdatedAt: now,
		Structure: structure.Descriptor(),
		Splits:    make(map[string][]ShardEntry),
	}
	if err := writeIndex(root, idx); err != nil {
		return nil, err
	}

	options.Logger.Info("dataset created",
		"root", root,
		"schema", structure.Schema.String(),
		"compression", structure.Compression.String(),
		"encoding", structure.Encoding.String(),
		"examples_per_shard", structure.ExamplesPerShard,
	)
	return newDataset(root, structure, idx, options), nil
}

// Open loads the dataset at root and validates its index.
func Open(root string, options Options) (*Dataset, error) {
	options = options.withDefaults()
	idx, err := readIndex(root)
	if err != nil {
		return nil, err
	}
	structure, err := idx.Structure.Structure()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, tmpDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	return newDataset(root, structure, idx, options), nil
}

func newDataset(root string, structure Structure, idx *Index, options Options) *Dataset {
	return &Dataset{
		root:      root,
		structure: structure,
		logger:    options.Logger,
		metrics:   options.Metrics,
		clock:     options.Clock,
		index:     idx,
	}
}

// Root returns the dataset directory.
func (d *Dataset) Root() string { return d.root }

// Structure returns the structure fixed at creation.
func (d *Dataset) Structure() Structure { return d.structure }

// Index returns a snapshot of the handle's view of the index.
func (d *Dataset) Index() *Index {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index.clone()
}

// Refresh reloads the index from disk, picking up shards registered
// by other handles or processes.
func (d *Dataset) Refresh() error {
	idx, err := readIndex(d.root)
	if err != nil {
		return err
	}
	d.setIndex(idx)
	return nil
}

func (d *Dataset) setIndex(idx *Index) {
	d.mu.Lock()
	d.index = idx
	d.mu.Unlock()
}

func (d *Dataset) splitDir(split string) string {
	return filepath.Join(d.root, splitsDir, split)
}

func (d *Dataset) shardPath(split, file string) string {
	return filepath.Join(d.root, splitsDir, split, file)
}

// ValidateSplitName checks that a split name is non-empty, uses only
// [A-Za-z0-9._-], and is not "." or "..".
func ValidateSplitName(split string) error {
	if split == "" || split == "." || split == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSplit, split)
	}
	for _, r := range split {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSplit, split, r)
		}
	}
	return nil
}

func shardFileName(number int) string {
	return fmt.Sprintf("%s%06d%s", shardPrefix, number, shardSuffix)
}

// parseShardFileName returns the number of a shard-NNNNNN.shard name.
func parseShardFileName(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, shardPrefix)
	if !ok {
		return 0, false
	}
	digits, ok = strings.CutSuffix(digits, shardSuffix)
	if !ok || len(digits) < 6 {
		return 0, false
	}
	number, err := strconv.Atoi(digits)
	if err != nil || number < 0 || shardFileName(number) != name {
		return 0, false
	}
	return number, true
}
