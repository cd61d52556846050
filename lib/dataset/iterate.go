// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

// errPassEnd separates passes inside the iterator; it never escapes
// Next.
var errPassEnd = errors.New("end of pass")

// DefaultPrefetch is the number of shard reads an Iterator keeps in
// flight when IterateOptions.Prefetch is zero.
const DefaultPrefetch = 2

// IterateOptions controls traversal order.
type IterateOptions struct {
	// ShuffleBuffer is the reservoir size. Zero reads shards in index
	// order and examples in write order. A positive value shuffles the
	// shard order of every pass and draws examples uniformly at random
	// from a reservoir of at most this many examples.
	ShuffleBuffer int

	// Repeat starts a new pass whenever the split is exhausted, so the
	// iterator never ends. A split with no shards still ends at once.
	Repeat bool

	// Seed seeds the shuffle. Zero picks a random seed.
	Seed uint64

	// Prefetch is the number of shard reads kept in flight ahead of
	// consumption.
	Prefetch int
}

// Iterator is a single-pass pull iterator over one split. Next must
// not be called concurrently. Close releases the prefetch goroutines.
type Iterator struct {
	dataset *Dataset
	split   string
	shards  []ShardEntry
	options IterateOptions
	random  *rand.Rand

	ctx     context.Context
	cancel  context.CancelFunc
	loaders sync.WaitGroup

	// order and position track scheduling, which runs ahead of
	// consumption by up to Prefetch shards and so may already be in a
	// later pass than pass, the pass being consumed.
	order         []int
	position      int
	scheduledPass int
	exhausted     bool
	inflight      []*shardLoad
	pass          int
	drained       bool

	current []attribute.Example
	cursor  int

	reservoir []attribute.Example

	err    error
	closed bool
}

// shardLoad is one scheduled shard read. done is closed once examples
// or err is set.
type shardLoad struct {
	entry    ShardEntry
	pass     int
	done     chan struct{}
	examples []attribute.Example
	err      error
}

// Iterate starts an iteration over split using the handle's current
// index. Shards registered after this call are not seen; call Refresh
// first to pick up shards written by other handles. A split with no
// shards iterates as empty.
func (d *Dataset) Iterate(ctx context.Context, split string, options IterateOptions) (*Iterator, error) {
	if err := ValidateSplitName(split); err != nil {
		return nil, err
	}
	if options.ShuffleBuffer < 0 {
		return nil, fmt.Errorf("shuffle buffer must not be negative, got %d", options.ShuffleBuffer)
	}
	if options.Prefetch < 0 {
		return nil, fmt.Errorf("prefetch must not be negative, got %d", options.Prefetch)
	}
	if options.Prefetch == 0 {
		options.Prefetch = DefaultPrefetch
	}
	seed := options.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	iterContext, cancel := context.WithCancel(ctx)
	it := &Iterator{
		dataset: d,
		split:   split,
		shards:  d.Index().Shards(split),
		options: options,
		random:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ctx:     iterContext,
		cancel:  cancel,
	}
	if options.ShuffleBuffer > 0 {
		it.reservoir = make([]attribute.Example, 0, options.ShuffleBuffer)
	}
	it.startPass()
	it.schedule()

	d.logger.Debug("iteration started",
		"split", split,
		"shards", len(it.shards),
		"shuffle_buffer", options.ShuffleBuffer,
		"repeat", options.Repeat,
	)
	return it, nil
}

// Next returns the next example. Without Repeat the end of the split
// is reported as io.EOF. A shard that fails to read or verify ends
// the iteration: the same error is returned by every later call.
// Cancelling ctx interrupts a wait for a shard without ending the
// iteration.
func (it *Iterator) Next(ctx context.Context) (attribute.Example, error) {
	if it.closed {
		return nil, ErrIteratorClosed
	}
	if it.err != nil {
		return nil, it.err
	}
	example, err := it.next(ctx)
	if err != nil && err != io.EOF && ctx.Err() == nil {
		it.err = err
	}
	return example, err
}

// All returns a range-over-func view of the remaining examples. The
// sequence ends at io.EOF; any other error is yielded once with a nil
// example and ends the sequence. All does not close the iterator.
func (it *Iterator) All(ctx context.Context) iter.Seq2[attribute.Example, error] {
	return func(yield func(attribute.Example, error) bool) {
		for {
			example, err := it.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(example, nil) {
				return
			}
		}
	}
}

// Buffered returns the number of examples held in the shuffle
// reservoir.
func (it *Iterator) Buffered() int { return len(it.reservoir) }

// Close stops prefetching and waits for in-flight reads to return.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.cancel()
	it.loaders.Wait()
	it.inflight = nil
	it.current = nil
	it.reservoir = nil
	return nil
}

func (it *Iterator) next(ctx context.Context) (attribute.Example, error) {
	for {
		if it.options.ShuffleBuffer == 0 {
			example, err := it.upstream(ctx)
			if err == errPassEnd {
				it.pass++
				continue
			}
			return example, err
		}

		for !it.drained && len(it.reservoir) < it.options.ShuffleBuffer {
			example, err := it.upstream(ctx)
			if err == errPassEnd || err == io.EOF {
				it.drained = true
				break
			}
			if err != nil {
				return nil, err
			}
			it.reservoir = append(it.reservoir, example)
		}
		if len(it.reservoir) > 0 {
			pick := it.random.IntN(len(it.reservoir))
			example := it.reservoir[pick]
			last := len(it.reservoir) - 1
			it.reservoir[pick] = it.reservoir[last]
			it.reservoir[last] = nil
			it.reservoir = it.reservoir[:last]
			return example, nil
		}
		if len(it.inflight) == 0 {
			return nil, io.EOF
		}
		// The reservoir drained at a pass boundary; start the next
		// pass so every pass is a permutation of the split.
		it.pass++
		it.drained = false
	}
}

// upstream returns the current pass's examples in shard schedule
// order, each shard in write order. It returns errPassEnd once the
// pass is consumed and the next scheduled shard belongs to a later
// pass, and io.EOF when nothing more is scheduled.
func (it *Iterator) upstream(ctx context.Context) (attribute.Example, error) {
	for it.cursor >= len(it.current) {
		if len(it.inflight) == 0 {
			return nil, io.EOF
		}
		load := it.inflight[0]
		if load.pass != it.pass {
			return nil, errPassEnd
		}
		select {
		case <-load.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-it.ctx.Done():
			return nil, it.ctx.Err()
		}
		it.inflight[0] = nil
		it.inflight = it.inflight[1:]
		if load.err != nil {
			return nil, load.err
		}
		it.current = load.examples
		it.cursor = 0
		it.schedule()
	}
	example := it.current[it.cursor]
	it.current[it.cursor] = nil
	it.cursor++
	return example, nil
}

// startPass sets the shard order for the next pass.
func (it *Iterator) startPass() {
	if it.order == nil {
		it.order = make([]int, len(it.shards))
	}
	for i := range it.order {
		it.order[i] = i
	}
	if it.options.ShuffleBuffer > 0 {
		it.random.Shuffle(len(it.order), func(i, j int) {
			it.order[i], it.order[j] = it.order[j], it.order[i]
		})
	}
	it.position = 0
}

// schedule starts shard reads until Prefetch are in flight or the
// schedule is exhausted.
func (it *Iterator) schedule() {
	for !it.exhausted && len(it.inflight) < it.options.Prefetch {
		if it.position == len(it.order) {
			if !it.options.Repeat || len(it.order) == 0 {
				it.exhausted = true
				return
			}
			it.startPass()
			it.scheduledPass++
		}
		entry := it.shards[it.order[it.position]]
		it.position++

		load := &shardLoad{entry: entry, pass: it.scheduledPass, done: make(chan struct{})}
		it.inflight = append(it.inflight, load)
		it.loaders.Add(1)
		go func() {
			defer it.loaders.Done()
			defer close(load.done)
			load.examples, load.err = it.dataset.readShard(it.ctx, it.split, entry)
		}()
	}
}

// readShard reads, verifies, and decodes one indexed shard.
func (d *Dataset) readShard(ctx context.Context, split string, entry ShardEntry) ([]attribute.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	examples, err := d.loadShard(split, entry)
	if err != nil {
		d.metrics.shardError(split, classifyError(err))
		d.logger.Error("shard read failed", "split", split, "shard", entry.File, "error", err)
		return nil, fmt.Errorf("split %q shard %s: %w", split, entry.File, err)
	}
	d.metrics.shardRead(split, len(examples))
	return examples, nil
}

func (d *Dataset) loadShard(split string, entry ShardEntry) ([]attribute.Example, error) {
	path := d.shardPath(split, entry.File)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != entry.Size {
		return nil, fmt.Errorf("%w: file is %d bytes, index records %d", ErrIndexMismatch, len(data), entry.Size)
	}
	reader, err := shard.NewReader(data, d.structure.Schema)
	if err != nil {
		return nil, withPath(err, path)
	}
	if err := entry.matches(reader.Header()); err != nil {
		return nil, err
	}
	examples, err := reader.ReadAll()
	if err != nil {
		return nil, withPath(err, path)
	}
	return examples, nil
}

// withPath fills in the file path of a *shard.Error from an
// in-memory read.
func withPath(err error, path string) error {
	if shardErr, ok := err.(*shard.Error); ok && shardErr.Path == "" {
		shardErr.Path = path
	}
	return err
}
