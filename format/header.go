package format

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/hupe1980/tensorpack/tensor"
)

// On-disk header layout, little-endian, fixed order:
//
//	magic   [4]byte  "TPK0"
//	version uint16
//	flags   uint16   reserved, zero
//	input   dtype:uint16 ndim:uint16 dims:ndim*uint32
//	target  dtype:uint16 ndim:uint16 dims:ndim*uint32
//	count   uint64   record count, written at finalize
//	crc     uint32   CRC32-IEEE over all preceding header bytes
//
// Count and crc form the trailer; both are patched in one write when the
// container is finalized.
const (
	fixedPrefixLen = 8
	trailerLen     = 12

	// MaxHeaderLen is the largest possible encoded header: two MaxDims
	// shapes plus the fixed prefix and trailer. Readers can fetch this
	// much up front and parse from memory.
	MaxHeaderLen = fixedPrefixLen + 2*(4+4*MaxDims) + trailerLen
)

func specLen(s ArraySpec) int {
	return 4 + 4*len(s.Shape)
}

func appendSpec(dst []byte, s ArraySpec) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(s.DType))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(s.Shape))) //nolint:gosec // bounded by MaxDims
	for _, dim := range s.Shape {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(dim)) //nolint:gosec // validated positive
	}
	return dst
}

// EncodeHeader serializes the header, including the count/crc trailer.
func EncodeHeader(h *Header) []byte {
	buf := make([]byte, 0, h.EncodedLen())
	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, Version)
	buf = binary.LittleEndian.AppendUint16(buf, 0) // flags
	buf = appendSpec(buf, h.Input)
	buf = appendSpec(buf, h.Target)
	return appendTrailer(buf, h.Count)
}

// appendTrailer appends count plus the checksum of everything before it.
func appendTrailer(buf []byte, count uint64) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, count)
	crc := crc32.ChecksumIEEE(buf)
	return binary.LittleEndian.AppendUint32(buf, crc)
}

func decodeSpec(data []byte, off int) (ArraySpec, int, error) {
	if len(data) < off+4 {
		return ArraySpec{}, 0, fmt.Errorf("%w: truncated array spec", ErrCorruptHeader)
	}
	dt := tensor.DType(binary.LittleEndian.Uint16(data[off:]))
	ndim := int(binary.LittleEndian.Uint16(data[off+2:]))
	off += 4
	if ndim == 0 || ndim > MaxDims {
		return ArraySpec{}, 0, fmt.Errorf("%w: dimension count %d out of range", ErrCorruptHeader, ndim)
	}
	if len(data) < off+4*ndim {
		return ArraySpec{}, 0, fmt.Errorf("%w: truncated shape", ErrCorruptHeader)
	}
	shape := make(tensor.Shape, ndim)
	for i := range shape {
		shape[i] = int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	spec := ArraySpec{DType: dt, Shape: shape}
	if err := spec.validate(); err != nil {
		return ArraySpec{}, 0, err
	}
	return spec, off, nil
}

// DecodeHeader parses and validates a header from the start of data. data
// may extend past the header; it must contain the complete header. The
// parsed header and its encoded length are returned.
func DecodeHeader(data []byte) (*Header, int, error) {
	if len(data) < fixedPrefixLen {
		return nil, 0, fmt.Errorf("%w: file shorter than header prefix", ErrCorruptHeader)
	}
	if [4]byte(data[:4]) != Magic {
		return nil, 0, fmt.Errorf("%w: got % x", ErrInvalidMagic, data[:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return nil, 0, fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, v, Version)
	}

	var h Header
	var err error
	off := fixedPrefixLen
	if h.Input, off, err = decodeSpec(data, off); err != nil {
		return nil, 0, fmt.Errorf("input: %w", err)
	}
	if h.Target, off, err = decodeSpec(data, off); err != nil {
		return nil, 0, fmt.Errorf("target: %w", err)
	}

	if len(data) < off+trailerLen {
		return nil, 0, fmt.Errorf("%w: truncated trailer", ErrCorruptHeader)
	}
	h.Count = binary.LittleEndian.Uint64(data[off:])
	want := binary.LittleEndian.Uint32(data[off+8:])
	if got := crc32.ChecksumIEEE(data[:off+8]); got != want {
		return nil, 0, fmt.Errorf("%w: checksum mismatch: expected 0x%08x, got 0x%08x", ErrCorruptHeader, want, got)
	}
	return &h, off + trailerLen, nil
}
