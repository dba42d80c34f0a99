// Package tensorpack packs pairs of fixed-shape numeric arrays — an input
// sample and its target — into a single append-only binary container, and
// retrieves any pair by index with one seek instead of loading the whole
// file. It exists for training datasets that are too large for memory and
// too numerous for per-sample files.
//
// # Quick Start
//
// Packing:
//
//	first, _ := tensor.FromFloat32(tensor.Shape{28, 28}, pixels)
//	label := tensor.ScalarInt32(7)
//
//	w, _ := tensorpack.Create("mnist.tpk", first, label)
//	defer w.Close() // finalizes the container on every exit path
//
//	w.Pack(first, label) // the first pair is the contract, not auto-packed
//	for _, s := range samples {
//	    w.Pack(s.Input, s.Target)
//	}
//
// Loading:
//
//	r, _ := tensorpack.Open("mnist.tpk")
//	defer r.Close()
//
//	input, target, _ := r.Load(42)
//
// Batched loading with bounded parallelism:
//
//	bl, _ := tensorpack.NewBatchLoader(r, 64)
//	inputs, targets, _ := bl.Batch(ctx, 0)
//
// # Contract
//
// The first sample pair handed to Create fixes the contract — input shape
// and dtype, target shape and dtype — for the container's lifetime. Every
// subsequent Pack is validated against it; a mismatch is rejected with the
// expected and actual shape/dtype and leaves the file untouched. Because
// the contract fixes both shapes, every record has the same byte length
// and Load(i) is pure offset arithmetic.
//
// # Concurrency
//
// A Writer is single-owner: exactly one Writer per path, no readers on a
// file that is still being written. A finalized container may be opened by
// any number of independent Readers, and a single Reader's Load is safe
// for concurrent use.
package tensorpack
