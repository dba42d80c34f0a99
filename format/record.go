package format

import (
	"fmt"

	"github.com/hupe1980/tensorpack/tensor"
)

// AppendRecord validates the pair against the contract and appends its
// encoded record to dst: the raw input bytes immediately followed by the
// raw target bytes. On a contract violation dst is returned unchanged.
//
// Pure function, no I/O; safe to call without synchronization.
func AppendRecord(dst []byte, h *Header, input, target tensor.Array) ([]byte, error) {
	if err := h.Input.Matches(input); err != nil {
		return dst, fmt.Errorf("input: %w", err)
	}
	if err := h.Target.Matches(target); err != nil {
		return dst, fmt.Errorf("target: %w", err)
	}
	ib, tb := input.Data(), target.Data()
	if len(ib) != h.Input.ByteLen() {
		return dst, fmt.Errorf("input: array %s carries %d bytes, want %d", h.Input, len(ib), h.Input.ByteLen())
	}
	if len(tb) != h.Target.ByteLen() {
		return dst, fmt.Errorf("target: array %s carries %d bytes, want %d", h.Target, len(tb), h.Target.ByteLen())
	}
	dst = append(dst, ib...)
	dst = append(dst, tb...)
	return dst, nil
}

// DecodeRecord decodes one record into an (input, target) pair. The
// returned arrays own fresh buffers and do not alias buf, so they stay
// valid after an mmap-backed buffer is unmapped.
func DecodeRecord(buf []byte, h *Header) (input, target *tensor.Dense, err error) {
	ilen, tlen := h.Input.ByteLen(), h.Target.ByteLen()
	if len(buf) < ilen+tlen {
		return nil, nil, fmt.Errorf("%w: got %d bytes, record needs %d", ErrTruncatedRecord, len(buf), ilen+tlen)
	}
	data := make([]byte, ilen+tlen)
	copy(data, buf[:ilen+tlen])

	input, err = tensor.NewDense(h.Input.DType, h.Input.Shape, data[:ilen:ilen])
	if err != nil {
		return nil, nil, err
	}
	target, err = tensor.NewDense(h.Target.DType, h.Target.Shape, data[ilen:])
	if err != nil {
		return nil, nil, err
	}
	return input, target, nil
}
