// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/clock"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

// Writer appends examples to one split, rotating to a new shard every
// ExamplesPerShard examples. A Writer holds the split's lock until
// Close. It is not safe for concurrent use.
type Writer struct {
	dataset *Dataset
	split   string
	lock    *fileLock
	logger  *slog.Logger

	builder *shard.Builder
	next    int

	shards   int
	examples int

	// err is the first finalize failure. The writer refuses further
	// examples once set: the failed shard is lost and continuing
	// would silently leave a hole in the split.
	err    error
	closed bool
}

// OpenWriter opens the split for appending. New shards are numbered
// after every shard already in the index or on disk. Returns
// ErrSplitBusy while another writer holds the split.
func (d *Dataset) OpenWriter(split string) (*Writer, error) {
	if err := ValidateSplitName(split); err != nil {
		return nil, err
	}
	dir := d.splitDir(split)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating split directory: %w", err)
	}

	lock, err := lockFile(filepath.Join(dir, splitLockName), false)
	if errors.Is(err, errLocked) {
		return nil, fmt.Errorf("%w: %q", ErrSplitBusy, split)
	}
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", split, err)
	}

	if err := d.Refresh(); err != nil {
		lock.Unlock()
		return nil, err
	}
	next, err := d.nextShardNumber(split)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	d.logger.Debug("writer opened", "split", split, "next_shard", shardFileName(next))
	return &Writer{
		dataset: d,
		split:   split,
		lock:    lock,
		logger:  d.logger.With("split", split),
		next:    next,
	}, nil
}

// OpenWriterWithSchema is OpenWriter for callers that carry their own
// schema. It fails with ErrInvalidSchema unless schema equals the
// dataset's schema.
func (d *Dataset) OpenWriterWithSchema(split string, schema *attribute.Schema) (*Writer, error) {
	if !d.structure.Schema.Equal(schema) {
		return nil, fmt.Errorf("%w: writer schema %s, dataset schema %s", ErrInvalidSchema, schema, d.structure.Schema)
	}
	return d.OpenWriter(split)
}

// nextShardNumber returns one past the highest shard number in the
// index or in the split directory, so orphaned files are never
// overwritten.
func (d *Dataset) nextShardNumber(split string) (int, error) {
	next := 0
	for _, entry := range d.Index().Splits[split] {
		if number, ok := parseShardFileName(entry.File); ok && number >= next {
			next = number + 1
		}
	}
	entries, err := os.ReadDir(d.splitDir(split))
	if err != nil {
		return 0, fmt.Errorf("listing split %q: %w", split, err)
	}
	for _, entry := range entries {
		if number, ok := parseShardFileName(entry.Name()); ok && number >= next {
			next = number + 1
		}
	}
	return next, nil
}

// Split returns the split this writer appends to.
func (w *Writer) Split() string { return w.split }

// Shards returns the number of shards this writer has registered.
func (w *Writer) Shards() int { return w.shards }

// Examples returns the number of examples in registered shards.
func (w *Writer) Examples() int { return w.examples }

// Pending returns the number of examples buffered in the open shard.
func (w *Writer) Pending() int {
	if w.builder == nil {
		return 0
	}
	return w.builder.Len()
}

// WriteExample validates and buffers one example, finalizing the
// current shard when it reaches ExamplesPerShard. An example rejected
// with ErrSchemaMismatch leaves the writer usable; a finalize failure
// does not.
func (w *Writer) WriteExample(example attribute.Example) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}
	structure := w.dataset.structure
	if w.builder == nil {
		builder, err := shard.NewBuilder(structure.Schema, structure.Encoding, structure.Compression)
		if err != nil {
			return err
		}
		w.builder = builder
	}
	if err := w.builder.Add(example); err != nil {
		return fmt.Errorf("split %q: %w", w.split, err)
	}
	if w.builder.Full(structure.ExamplesPerShard) {
		if err := w.finalize(); err != nil {
			w.err = err
			return err
		}
	}
	return nil
}

// Close finalizes the trailing partial shard, if any, and releases
// the split lock. Close is idempotent; it returns the writer's first
// finalize failure if one occurred.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.err
	if err == nil && w.builder != nil && w.builder.Len() > 0 {
		err = w.finalize()
	}
	w.builder = nil
	if unlockErr := w.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	w.logger.Debug("writer closed", "shards", w.shards, "examples", w.examples)
	return err
}

func (w *Writer) finalize() error {
	builder := w.builder
	w.builder = nil
	file := shardFileName(w.next)
	w.next++
	start := w.dataset.clock.Now()

	entry, err := w.dataset.commitShard(w.split, file, builder)
	if err != nil {
		w.dataset.metrics.shardError(w.split, classifyError(err))
		w.logger.Error("shard lost", "shard", file, "examples", builder.Len(), "error", err)
		return fmt.Errorf("split %q: finalizing %s: %w", w.split, file, err)
	}

	w.shards++
	w.examples += entry.Examples
	w.dataset.metrics.shardWritten(w.split, entry.Examples, entry.Size)
	w.logger.Info("shard finalized",
		"shard", entry.File,
		"examples", entry.Examples,
		"bytes", entry.Size,
		"checksum", entry.Checksum,
		"duration", clock.Since(w.dataset.clock, start),
	)
	return nil
}

// commitShard writes the builder's shard to a temp file, syncs it,
// renames it into the split directory, and registers it in the
// index. On any failure nothing is left in the split directory and
// the index is unchanged.
func (d *Dataset) commitShard(split, file string, builder *shard.Builder) (ShardEntry, error) {
	tmpFile, err := os.CreateTemp(filepath.Join(d.root, tmpDir), split+"-*.shard")
	if err != nil {
		return ShardEntry{}, fmt.Errorf("creating temp shard file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	info, err := builder.Finalize(tmpFile)
	if err != nil {
		tmpFile.Close()
		return ShardEntry{}, err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return ShardEntry{}, fmt.Errorf("syncing temp shard file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return ShardEntry{}, fmt.Errorf("closing temp shard file: %w", err)
	}

	finalPath := d.shardPath(split, file)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return ShardEntry{}, fmt.Errorf("renaming shard to %s: %w", finalPath, err)
	}

	entry := ShardEntry{
		File:        file,
		Examples:    info.ExampleCount,
		Encoding:    info.Encoding,
		Compression: info.Compression,
		Checksum:    info.Checksum.String(),
		Size:        info.Size,
	}
	if err := d.register(split, entry); err != nil {
		os.Remove(finalPath)
		return ShardEntry{}, err
	}

	success = true
	return entry, nil
}

// register appends entry to the split under the dataset-wide index
// lock, starting from the on-disk index so that registrations by
// writers on other splits are preserved.
func (d *Dataset) register(split string, entry ShardEntry) error {
	lock, err := lockFile(filepath.Join(d.root, indexLockName), true)
	if err != nil {
		return fmt.Errorf("locking index: %w", err)
	}
	defer lock.Unlock()

	idx, err := readIndex(d.root)
	if err != nil {
		return err
	}
	for _, existing := range idx.Splits[split] {
		if existing.File == entry.File {
			return fmt.Errorf("%w: split %q already lists %s", ErrInvalidStructure, split, entry.File)
		}
	}
	idx.Splits[split] = append(idx.Splits[split], entry)
	idx.UpdatedAt = d.clock.Now().UTC()
	if err := writeIndex(d.root, idx); err != nil {
		return err
	}
	d.setIndex(idx)
	return nil
}

// Filler writes examples to any number of splits, opening one Writer
// per split on first use. It is not safe for concurrent use.
type Filler struct {
	dataset *Dataset
	writers map[string]*Writer
	closed  bool
}

// Filler returns a multi-split writer on the dataset.
func (d *Dataset) Filler() *Filler {
	return &Filler{dataset: d, writers: make(map[string]*Writer)}
}

// WriteExample appends example to split.
func (f *Filler) WriteExample(split string, example attribute.Example) error {
	if f.closed {
		return ErrWriterClosed
	}
	writer, ok := f.writers[split]
	if !ok {
		var err error
		writer, err = f.dataset.OpenWriter(split)
		if err != nil {
			return err
		}
		f.writers[split] = writer
	}
	return writer.WriteExample(example)
}

// Close closes every writer in split-name order and joins their
// errors.
func (f *Filler) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	splits := make([]string, 0, len(f.writers))
	for split := range f.writers {
		splits = append(splits, split)
	}
	sort.Strings(splits)
	var errs []error
	for _, split := range splits {
		if err := f.writers[split].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
