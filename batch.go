package tensorpack

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/tensorpack/tensor"
)

// BatchLoader reads a finalized container in fixed-size batches, the unit
// a training loop consumes. Records within a batch are loaded
// concurrently with bounded parallelism.
//
// With a stride of n, only every n-th record participates (record
// indices 0, n, 2n, ...) — a cheap way to down-sample a dataset without
// rewriting it.
type BatchLoader struct {
	r           *Reader
	batchSize   int
	stride      int
	parallelism int
}

// BatchOption configures a BatchLoader.
type BatchOption func(*BatchLoader)

// WithStride makes the loader take every n-th record instead of every
// record. n must be at least 1.
func WithStride(n int) BatchOption {
	return func(b *BatchLoader) {
		b.stride = n
	}
}

// WithParallelism bounds the number of concurrent record loads per batch.
// The default is GOMAXPROCS.
func WithParallelism(n int) BatchOption {
	return func(b *BatchLoader) {
		b.parallelism = n
	}
}

// NewBatchLoader wraps an open Reader. The BatchLoader does not own the
// Reader; closing is still the caller's job.
func NewBatchLoader(r *Reader, batchSize int, opts ...BatchOption) (*BatchLoader, error) {
	b := &BatchLoader{
		r:           r,
		batchSize:   batchSize,
		stride:      1,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, fn := range opts {
		fn(b)
	}
	if b.batchSize <= 0 {
		return nil, fmt.Errorf("tensorpack: batch size must be positive, got %d", b.batchSize)
	}
	if b.stride <= 0 {
		return nil, fmt.Errorf("tensorpack: stride must be positive, got %d", b.stride)
	}
	if b.parallelism <= 0 {
		return nil, fmt.Errorf("tensorpack: parallelism must be positive, got %d", b.parallelism)
	}
	return b, nil
}

// sampleCount returns how many records participate after striding.
func (b *BatchLoader) sampleCount() int {
	return (b.r.Count() + b.stride - 1) / b.stride
}

// Len returns the number of batches, including a final partial batch.
func (b *BatchLoader) Len() int {
	return (b.sampleCount() + b.batchSize - 1) / b.batchSize
}

// Batch loads the i-th batch. The returned slices hold up to batchSize
// pairs; only the final batch may be shorter. Records are loaded
// concurrently; ctx cancels in-flight loads.
func (b *BatchLoader) Batch(ctx context.Context, i int) (inputs, targets []*tensor.Dense, err error) {
	if i < 0 || i >= b.Len() {
		return nil, nil, &IndexOutOfRangeError{Index: i, Count: b.Len()}
	}

	first := i * b.batchSize
	n := min(b.batchSize, b.sampleCount()-first)
	inputs = make([]*tensor.Dense, n)
	targets = make([]*tensor.Dense, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)
	for k := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in, tgt, err := b.r.Load((first + k) * b.stride)
			if err != nil {
				return err
			}
			inputs[k], targets[k] = in, tgt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return inputs, targets, nil
}

// Batches iterates all batches in order, invoking fn for each. Iteration
// stops at the first error, which is returned.
func (b *BatchLoader) Batches(ctx context.Context, fn func(i int, inputs, targets []*tensor.Dense) error) error {
	for i := range b.Len() {
		inputs, targets, err := b.Batch(ctx, i)
		if err != nil {
			return err
		}
		if err := fn(i, inputs, targets); err != nil {
			return err
		}
	}
	return nil
}
