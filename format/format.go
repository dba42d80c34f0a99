// Package format implements the tensorpack container wire format: the
// self-describing header that fixes the shape/dtype contract and the
// fixed-length record codec used by the Writer and Reader.
//
// All multi-byte fields are little-endian. Arrays are stored row-major
// (C order) as raw element bytes with no per-record framing; because the
// contract fixes both shapes, every record has the same byte length and
// record offsets are pure arithmetic.
package format

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tensorpack/tensor"
)

// Magic identifies tensorpack container files.
var Magic = [4]byte{'T', 'P', 'K', '0'}

const (
	// Version is the current wire format version.
	Version uint16 = 1

	// MaxDims bounds the number of dimensions a stored shape may have.
	// Generous for real datasets while keeping headers small.
	MaxDims = 32

	// maxSideBytes bounds the encoded byte length of one array so that
	// record offset arithmetic cannot overflow int64.
	maxSideBytes = 1 << 40
)

var (
	// ErrInvalidMagic is returned when a file does not start with the
	// tensorpack magic bytes.
	ErrInvalidMagic = errors.New("format: invalid magic bytes")

	// ErrInvalidVersion is returned when the file declares an unsupported
	// format version.
	ErrInvalidVersion = errors.New("format: unsupported version")

	// ErrCorruptHeader is returned when the header cannot be trusted:
	// short read, checksum mismatch, or nonsense contract values.
	ErrCorruptHeader = errors.New("format: corrupt header")

	// ErrTruncatedRecord is returned when a record buffer is shorter than
	// the contract requires.
	ErrTruncatedRecord = errors.New("format: truncated record")
)

// ArraySpec is one side of the container contract: the dtype and shape
// every packed array must match exactly.
type ArraySpec struct {
	DType tensor.DType
	Shape tensor.Shape
}

// SpecOf derives the spec an array satisfies.
func SpecOf(a tensor.Array) ArraySpec {
	return ArraySpec{DType: a.DType(), Shape: a.Shape().Clone()}
}

// ByteLen returns the encoded byte length of one array under this spec.
func (s ArraySpec) ByteLen() int {
	return s.Shape.NumElements() * s.DType.Size()
}

// Matches validates an array against the spec. It returns a
// *tensor.DTypeError or *tensor.ShapeError describing the mismatch, so
// callers can report expected vs actual.
func (s ArraySpec) Matches(a tensor.Array) error {
	if a.DType() != s.DType {
		return &tensor.DTypeError{Expected: s.DType, Actual: a.DType()}
	}
	if !a.Shape().Equal(s.Shape) {
		return &tensor.ShapeError{Expected: s.Shape, Actual: a.Shape()}
	}
	return nil
}

func (s ArraySpec) validate() error {
	if !s.DType.Valid() {
		return fmt.Errorf("%w: unknown dtype %d", ErrCorruptHeader, uint16(s.DType))
	}
	if len(s.Shape) > MaxDims {
		return fmt.Errorf("%w: %d dimensions exceeds limit %d", ErrCorruptHeader, len(s.Shape), MaxDims)
	}
	if err := s.Shape.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptHeader, err)
	}
	// Overflow-safe byte length check; dims come off the wire.
	n := int64(s.DType.Size())
	for _, dim := range s.Shape {
		if n > maxSideBytes/int64(dim) {
			return fmt.Errorf("%w: array %s exceeds %d bytes", ErrCorruptHeader, s.Shape, int64(maxSideBytes))
		}
		n *= int64(dim)
	}
	return nil
}

// String renders the spec as "float32[2 3]".
func (s ArraySpec) String() string {
	return fmt.Sprintf("%s%s", s.DType, s.Shape)
}

// Header is the container contract plus the finalized record count.
type Header struct {
	Input  ArraySpec
	Target ArraySpec
	Count  uint64
}

// NewHeader derives a header (count zero) from the first sample pair.
func NewHeader(input, target tensor.Array) (*Header, error) {
	h := &Header{Input: SpecOf(input), Target: SpecOf(target)}
	if err := h.Input.validate(); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if err := h.Target.validate(); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	return h, nil
}

// RecordLen returns the fixed byte length of one encoded record.
func (h *Header) RecordLen() int {
	return h.Input.ByteLen() + h.Target.ByteLen()
}

// EncodedLen returns the on-disk header size in bytes.
func (h *Header) EncodedLen() int {
	return fixedPrefixLen + specLen(h.Input) + specLen(h.Target) + trailerLen
}

// CountOffset returns the file offset of the count field, which is
// patched at finalize time together with the header checksum.
func (h *Header) CountOffset() int64 {
	return int64(h.EncodedLen() - trailerLen)
}

// FileSize returns the exact byte size a finalized container must have.
func (h *Header) FileSize() int64 {
	return int64(h.EncodedLen()) + int64(h.Count)*int64(h.RecordLen())
}
