package tensor

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/tensorpack/internal/f16"
)

// Dense is a contiguous row-major array backed by a little-endian byte
// buffer. It is the concrete Array implementation produced by decoding and
// the easiest way to feed native Go slices into a Writer.
type Dense struct {
	dtype DType
	shape Shape
	data  []byte
}

// NewDense wraps data as an array of the given dtype and shape. The buffer
// is used as-is (no copy) and its length must be exactly
// shape.NumElements() * dt.Size().
func NewDense(dt DType, shape Shape, data []byte) (*Dense, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("tensor: unknown dtype %d", uint16(dt))
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	want := shape.NumElements() * dt.Size()
	if len(data) != want {
		return nil, fmt.Errorf("tensor: buffer is %d bytes, %s array of shape %s needs %d", len(data), dt, shape, want)
	}
	return &Dense{dtype: dt, shape: shape.Clone(), data: data}, nil
}

// DType implements Array.
func (d *Dense) DType() DType { return d.dtype }

// Shape implements Array.
func (d *Dense) Shape() Shape { return d.shape }

// Data implements Array. The slice aliases the array's backing buffer.
func (d *Dense) Data() []byte { return d.data }

// NumElements returns the number of elements in the array.
func (d *Dense) NumElements() int { return d.shape.NumElements() }

// bytesView reinterprets a typed slice as its raw bytes without copying.
// Little-endian hosts only; the wire format is little-endian and the
// package documents that assumption.
func bytesView[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0])))
}

// typedView reinterprets raw bytes as a typed slice when alignment allows,
// otherwise copies into a fresh slice.
func typedView[T any](b []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	n := len(b) / size
	if n == 0 {
		return nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%uintptr(unsafe.Alignof(zero)) == 0 {
		return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
	}
	out := make([]T, n)
	copy(bytesView(out), b)
	return out
}

func fromSlice[T any](dt DType, shape Shape, values []T) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if n := shape.NumElements(); n != len(values) {
		return nil, fmt.Errorf("tensor: shape %s needs %d elements, got %d", shape, n, len(values))
	}
	return &Dense{dtype: dt, shape: shape.Clone(), data: bytesView(values)}, nil
}

// FromInt8 wraps values as an int8 array. The Dense shares the backing
// memory of values; the same holds for all From* constructors.
func FromInt8(shape Shape, values []int8) (*Dense, error) { return fromSlice(Int8, shape, values) }

// FromInt16 wraps values as an int16 array.
func FromInt16(shape Shape, values []int16) (*Dense, error) { return fromSlice(Int16, shape, values) }

// FromInt32 wraps values as an int32 array.
func FromInt32(shape Shape, values []int32) (*Dense, error) { return fromSlice(Int32, shape, values) }

// FromInt64 wraps values as an int64 array.
func FromInt64(shape Shape, values []int64) (*Dense, error) { return fromSlice(Int64, shape, values) }

// FromUint8 wraps values as a uint8 array.
func FromUint8(shape Shape, values []uint8) (*Dense, error) { return fromSlice(Uint8, shape, values) }

// FromUint16 wraps values as a uint16 array.
func FromUint16(shape Shape, values []uint16) (*Dense, error) {
	return fromSlice(Uint16, shape, values)
}

// FromUint32 wraps values as a uint32 array.
func FromUint32(shape Shape, values []uint32) (*Dense, error) {
	return fromSlice(Uint32, shape, values)
}

// FromUint64 wraps values as a uint64 array.
func FromUint64(shape Shape, values []uint64) (*Dense, error) {
	return fromSlice(Uint64, shape, values)
}

// FromFloat32 wraps values as a float32 array.
func FromFloat32(shape Shape, values []float32) (*Dense, error) {
	return fromSlice(Float32, shape, values)
}

// FromFloat64 wraps values as a float64 array.
func FromFloat64(shape Shape, values []float64) (*Dense, error) {
	return fromSlice(Float64, shape, values)
}

// FromBool wraps values as a bool array, stored one byte per element.
func FromBool(shape Shape, values []bool) (*Dense, error) { return fromSlice(Bool, shape, values) }

// FromFloat16 narrows float32 values to binary16 storage. Unlike the other
// constructors this always copies, since the element width changes.
func FromFloat16(shape Shape, values []float32) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if n := shape.NumElements(); n != len(values) {
		return nil, fmt.Errorf("tensor: shape %s needs %d elements, got %d", shape, n, len(values))
	}
	bits := make([]uint16, len(values))
	f16.Encode(bits, values)
	return &Dense{dtype: Float16, shape: shape.Clone(), data: bytesView(bits)}, nil
}

// Scalar helpers produce shape-[1] arrays, the representation the format
// uses for scalar columns.

// ScalarInt32 returns a shape-[1] int32 array holding v.
func ScalarInt32(v int32) *Dense {
	d, _ := FromInt32(Shape{1}, []int32{v})
	return d
}

// ScalarInt64 returns a shape-[1] int64 array holding v.
func ScalarInt64(v int64) *Dense {
	d, _ := FromInt64(Shape{1}, []int64{v})
	return d
}

// ScalarFloat32 returns a shape-[1] float32 array holding v.
func ScalarFloat32(v float32) *Dense {
	d, _ := FromFloat32(Shape{1}, []float32{v})
	return d
}

// ScalarFloat64 returns a shape-[1] float64 array holding v.
func ScalarFloat64(v float64) *Dense {
	d, _ := FromFloat64(Shape{1}, []float64{v})
	return d
}

func (d *Dense) check(dt DType) error {
	if d.dtype != dt {
		return &DTypeError{Expected: dt, Actual: d.dtype}
	}
	return nil
}

// Int8s returns the elements as []int8. The slice may alias the array's
// backing buffer; the same holds for all typed accessors.
func (d *Dense) Int8s() ([]int8, error) {
	if err := d.check(Int8); err != nil {
		return nil, err
	}
	return typedView[int8](d.data), nil
}

// Int16s returns the elements as []int16.
func (d *Dense) Int16s() ([]int16, error) {
	if err := d.check(Int16); err != nil {
		return nil, err
	}
	return typedView[int16](d.data), nil
}

// Int32s returns the elements as []int32.
func (d *Dense) Int32s() ([]int32, error) {
	if err := d.check(Int32); err != nil {
		return nil, err
	}
	return typedView[int32](d.data), nil
}

// Int64s returns the elements as []int64.
func (d *Dense) Int64s() ([]int64, error) {
	if err := d.check(Int64); err != nil {
		return nil, err
	}
	return typedView[int64](d.data), nil
}

// Uint8s returns the elements as []uint8.
func (d *Dense) Uint8s() ([]uint8, error) {
	if err := d.check(Uint8); err != nil {
		return nil, err
	}
	return d.data, nil
}

// Uint16s returns the elements as []uint16.
func (d *Dense) Uint16s() ([]uint16, error) {
	if err := d.check(Uint16); err != nil {
		return nil, err
	}
	return typedView[uint16](d.data), nil
}

// Uint32s returns the elements as []uint32.
func (d *Dense) Uint32s() ([]uint32, error) {
	if err := d.check(Uint32); err != nil {
		return nil, err
	}
	return typedView[uint32](d.data), nil
}

// Uint64s returns the elements as []uint64.
func (d *Dense) Uint64s() ([]uint64, error) {
	if err := d.check(Uint64); err != nil {
		return nil, err
	}
	return typedView[uint64](d.data), nil
}

// Float32s returns the elements as []float32.
func (d *Dense) Float32s() ([]float32, error) {
	if err := d.check(Float32); err != nil {
		return nil, err
	}
	return typedView[float32](d.data), nil
}

// Float64s returns the elements as []float64.
func (d *Dense) Float64s() ([]float64, error) {
	if err := d.check(Float64); err != nil {
		return nil, err
	}
	return typedView[float64](d.data), nil
}

// Float16s widens binary16 elements to a fresh []float32.
func (d *Dense) Float16s() ([]float32, error) {
	if err := d.check(Float16); err != nil {
		return nil, err
	}
	bits := typedView[uint16](d.data)
	out := make([]float32, len(bits))
	f16.Decode(out, bits)
	return out, nil
}

// Bools returns the elements as []bool. Any non-zero byte decodes as true.
func (d *Dense) Bools() ([]bool, error) {
	if err := d.check(Bool); err != nil {
		return nil, err
	}
	out := make([]bool, len(d.data))
	for i, b := range d.data {
		out[i] = b != 0
	}
	return out, nil
}

// String renders a short description, e.g. "float32[2 3]".
func (d *Dense) String() string {
	return fmt.Sprintf("%s%s", d.dtype, d.shape)
}
