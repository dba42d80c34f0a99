package tensorpack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/hupe1980/tensorpack/format"
	"github.com/hupe1980/tensorpack/tensor"
)

// Reader serves random-access reads from a finalized container. The
// header is parsed once at open time; every Load is a bounds check, one
// positioned read, and a decode.
//
// Load is safe for concurrent use. Multiple independent Readers may open
// the same finalized file; they share no state.
type Reader struct {
	path      string
	hdr       *format.Header
	headerLen int
	recordLen int

	src    readerSource
	logger *Logger

	closed atomic.Bool
}

// readerSource is the storage backend behind a Reader: positioned reads
// plus release of the underlying handle.
type readerSource interface {
	io.ReaderAt
	io.Closer
}

// mmapSource serves positioned reads from a read-only memory mapping.
type mmapSource struct {
	f *os.File
	m mmap.MMap
}

func (s *mmapSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(s.m)) {
		return 0, io.EOF
	}
	n := copy(p, s.m[off:])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (s *mmapSource) Close() error {
	if err := s.m.Unmap(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// Open opens a finalized container, parses and validates its header, and
// verifies that the file size matches the header exactly. The default
// backend issues pread calls; WithMmap switches to a read-only memory
// mapping.
func Open(path string, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tensorpack: open %s: %w", path, err)
	}

	r, err := newReader(f, path, o)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(f *os.File, path string, o options) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("tensorpack: stat %s: %w", path, err)
	}
	size := info.Size()

	head := make([]byte, min(size, format.MaxHeaderLen))
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, fmt.Errorf("tensorpack: read header of %s: %w", path, err)
	}

	hdr, headerLen, err := format.DecodeHeader(head)
	if err != nil {
		return nil, fmt.Errorf("tensorpack: %s: %w", path, err)
	}

	// A finalized container is exactly header + count records; anything
	// else means truncation, trailing garbage, or a writer that never
	// finalized.
	if want := hdr.FileSize(); size != want {
		return nil, fmt.Errorf("%w: %s is %d bytes, header promises %d (%d records of %d bytes)",
			ErrCorruptFile, path, size, want, hdr.Count, hdr.RecordLen())
	}

	var src readerSource = f
	if o.useMmap {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("tensorpack: mmap %s: %w", path, err)
		}
		src = &mmapSource{f: f, m: m}
	}

	r := &Reader{
		path:      path,
		hdr:       hdr,
		headerLen: headerLen,
		recordLen: hdr.RecordLen(),
		src:       src,
		logger:    o.logger,
	}
	r.logger.LogOpen(path, int(hdr.Count), o.useMmap)
	return r, nil
}

// Count returns the number of records in the container.
func (r *Reader) Count() int {
	return int(r.hdr.Count)
}

// InputSpec returns the input side of the container contract.
func (r *Reader) InputSpec() format.ArraySpec {
	return format.ArraySpec{DType: r.hdr.Input.DType, Shape: r.hdr.Input.Shape.Clone()}
}

// TargetSpec returns the target side of the container contract.
func (r *Reader) TargetSpec() format.ArraySpec {
	return format.ArraySpec{DType: r.hdr.Target.DType, Shape: r.hdr.Target.Shape.Clone()}
}

// RecordLen returns the fixed byte length of one encoded record.
func (r *Reader) RecordLen() int {
	return r.recordLen
}

// Load returns the index-th (input, target) pair. Loads are independent:
// any order, any repetition, and a failed load does not affect later
// loads on valid indices.
func (r *Reader) Load(index int) (input, target *tensor.Dense, err error) {
	if r.closed.Load() {
		return nil, nil, ErrReaderClosed
	}
	if index < 0 || index >= int(r.hdr.Count) {
		err := &IndexOutOfRangeError{Index: index, Count: int(r.hdr.Count)}
		r.logger.LogLoad(index, err)
		return nil, nil, err
	}

	buf := make([]byte, r.recordLen)
	off := int64(r.headerLen) + int64(index)*int64(r.recordLen)
	if _, err := r.src.ReadAt(buf, off); err != nil {
		// A short read here means the file shrank underneath us.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("tensorpack: record %d: %w", index, format.ErrTruncatedRecord)
		} else {
			err = fmt.Errorf("tensorpack: read record %d: %w", index, err)
		}
		r.logger.LogLoad(index, err)
		return nil, nil, err
	}

	input, target, err = format.DecodeRecord(buf, r.hdr)
	if err != nil {
		r.logger.LogLoad(index, err)
		return nil, nil, err
	}
	return input, target, nil
}

// Close releases the underlying file handle (and mapping, for mmap-backed
// readers). Close is idempotent; Load after Close returns ErrReaderClosed.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("tensorpack: close %s: %w", r.path, err)
	}
	return nil
}
