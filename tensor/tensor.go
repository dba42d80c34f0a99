// Package tensor defines the minimal array surface the container format
// operates on: an element type, a shape, and a contiguous row-major byte
// view. Callers with their own array types adapt them to the Array
// interface; Dense is the concrete implementation the Reader hands back.
package tensor

import (
	"fmt"
	"strings"
)

// DType identifies the element type of an array. The numeric values are
// part of the wire format and must never be reordered.
type DType uint16

const (
	Int8 DType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	Float32
	Float64
	Bool
)

var dtypeNames = [...]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float16: "float16",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
}

var dtypeSizes = [...]int{
	Int8:    1,
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Uint8:   1,
	Uint16:  2,
	Uint32:  4,
	Uint64:  8,
	Float16: 2,
	Float32: 4,
	Float64: 8,
	Bool:    1,
}

// Valid reports whether d is a known element type.
func (d DType) Valid() bool {
	return int(d) < len(dtypeSizes)
}

// Size returns the byte width of one element, or 0 for an unknown dtype.
func (d DType) Size() int {
	if !d.Valid() {
		return 0
	}
	return dtypeSizes[d]
}

// String returns the canonical lower-case name of the dtype.
func (d DType) String() string {
	if !d.Valid() {
		return fmt.Sprintf("dtype(%d)", uint16(d))
	}
	return dtypeNames[d]
}

// Shape is the ordered dimension sizes of an array. All dimensions must be
// positive; an empty shape is invalid.
type Shape []int

// NumElements returns the product of all dimensions, or 0 if the shape is
// invalid.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, dim := range s {
		if dim <= 0 {
			return 0
		}
		n *= dim
	}
	return n
}

// Validate returns an error describing why the shape is unusable, or nil.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("tensor: empty shape")
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("tensor: shape %s has non-positive dimension %d at axis %d", s, dim, i)
		}
	}
	return nil
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// String renders the shape as "[2 3 4]".
func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, dim := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", dim)
	}
	sb.WriteByte(']')
	return sb.String()
}

// Array is the capability set the container core requires from a numeric
// array: element type, dimensions, and a contiguous little-endian
// row-major byte view. Data must return a slice of exactly
// Shape().NumElements() * DType().Size() bytes.
type Array interface {
	DType() DType
	Shape() Shape
	Data() []byte
}

// ShapeError reports a shape that does not match the container contract.
type ShapeError struct {
	Expected Shape
	Actual   Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("tensor: shape mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// DTypeError reports an element type that does not match the container
// contract.
type DTypeError struct {
	Expected DType
	Actual   DType
}

func (e *DTypeError) Error() string {
	return fmt.Sprintf("tensor: dtype mismatch: expected %s, got %s", e.Expected, e.Actual)
}
