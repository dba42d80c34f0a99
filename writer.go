package tensorpack

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hupe1980/tensorpack/format"
	"github.com/hupe1980/tensorpack/tensor"
)

// Writer builds a container file record by record. It owns the output
// file exclusively for its lifetime; see the package documentation for
// the sharing rules.
//
// A Writer must be finalized (or closed, which finalizes) before the file
// is readable. Use defer w.Close() right after Create so the container is
// finalized on every exit path.
//
// Writer is not safe for concurrent use.
type Writer struct {
	path string
	f    *os.File
	bw   *bufio.Writer
	hdr  *format.Header

	recBuf []byte // reused per-record encode buffer

	logger         *Logger
	syncOnFinalize bool

	closed bool
	err    error // sticky I/O failure; poisons all further operations
}

// Create creates (or truncates) the container at path and derives the
// shape/dtype contract from the first sample pair. The pair is only the
// contract source — it is not packed; call Pack for every pair including
// the first.
func Create(path string, firstInput, firstTarget tensor.Array, opts ...Option) (*Writer, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	hdr, err := format.NewHeader(firstInput, firstTarget)
	if err != nil {
		return nil, fmt.Errorf("tensorpack: derive contract: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("tensorpack: create %s: %w", path, err)
	}

	// Provisional header with count zero; the trailer is patched at
	// finalize. The stored checksum is inverted so a never-finalized
	// file is rejected at open time instead of reading as an empty
	// container. Written unbuffered so the header is on disk before any
	// record bytes.
	provisional := format.EncodeHeader(hdr)
	for i := len(provisional) - 4; i < len(provisional); i++ {
		provisional[i] ^= 0xFF
	}
	if _, err := f.Write(provisional); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("tensorpack: write header: %w", err)
	}

	w := &Writer{
		path:           path,
		f:              f,
		bw:             bufio.NewWriterSize(f, o.bufferSize),
		hdr:            hdr,
		logger:         o.logger,
		syncOnFinalize: o.syncOnFinalize,
	}
	w.logger.LogCreate(path, hdr.Input.String(), hdr.Target.String())
	return w, nil
}

// Pack validates the pair against the contract, encodes it, and appends
// it as the next record. On a contract violation the error carries the
// expected and actual shape/dtype and the file is left in its prior
// state; the record count is unchanged.
func (w *Writer) Pack(input, target tensor.Array) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}

	// Encode the whole record first so a contract violation touches
	// nothing, then hand it to the buffer in one write.
	buf, err := format.AppendRecord(w.recBuf[:0], w.hdr, input, target)
	if err != nil {
		w.logger.LogPack(int(w.hdr.Count), err)
		return fmt.Errorf("tensorpack: pack record %d: %w", w.hdr.Count, err)
	}
	w.recBuf = buf

	if _, err := w.bw.Write(buf); err != nil {
		w.err = fmt.Errorf("tensorpack: write record %d: %w", w.hdr.Count, err)
		w.logger.LogPack(int(w.hdr.Count), w.err)
		return w.err
	}

	w.hdr.Count++
	w.logger.LogPack(int(w.hdr.Count), nil)
	return nil
}

// Count returns the number of records packed so far.
func (w *Writer) Count() int {
	return int(w.hdr.Count)
}

// InputSpec returns the input side of the container contract.
func (w *Writer) InputSpec() format.ArraySpec {
	return format.ArraySpec{DType: w.hdr.Input.DType, Shape: w.hdr.Input.Shape.Clone()}
}

// TargetSpec returns the target side of the container contract.
func (w *Writer) TargetSpec() format.ArraySpec {
	return format.ArraySpec{DType: w.hdr.Target.DType, Shape: w.hdr.Target.Shape.Clone()}
}

// Finalize flushes buffered records, patches the final record count and
// header checksum, syncs, and closes the file. After Finalize the
// container is readable and the Writer is closed: further Pack or
// Finalize calls return ErrWriterClosed.
//
// The file handle is released even when finalization fails; the error is
// returned, never swallowed.
func (w *Writer) Finalize() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	err := w.err
	if err == nil {
		err = w.finalize()
	}
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("tensorpack: close %s: %w", w.path, cerr)
	}
	w.logger.LogFinalize(w.path, int(w.hdr.Count), err)
	return err
}

func (w *Writer) finalize() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("tensorpack: flush records: %w", err)
	}

	// Re-encode the header with the final count and patch its trailer
	// (count + checksum) in place.
	full := format.EncodeHeader(w.hdr)
	if _, err := w.f.WriteAt(full[w.hdr.CountOffset():], w.hdr.CountOffset()); err != nil {
		return fmt.Errorf("tensorpack: patch record count: %w", err)
	}

	if w.syncOnFinalize {
		if err := w.f.Sync(); err != nil {
			return fmt.Errorf("tensorpack: sync %s: %w", w.path, err)
		}
	}
	return nil
}

// Close finalizes the container if that has not happened yet. Unlike
// Finalize it is idempotent, which makes it safe to defer unconditionally
// alongside an explicit Finalize call.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	return w.Finalize()
}
