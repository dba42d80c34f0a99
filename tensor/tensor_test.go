package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTypeSizeAndString(t *testing.T) {
	tests := []struct {
		dt   DType
		size int
		name string
	}{
		{Int8, 1, "int8"},
		{Int16, 2, "int16"},
		{Int32, 4, "int32"},
		{Int64, 8, "int64"},
		{Uint8, 1, "uint8"},
		{Uint16, 2, "uint16"},
		{Uint32, 4, "uint32"},
		{Uint64, 8, "uint64"},
		{Float16, 2, "float16"},
		{Float32, 4, "float32"},
		{Float64, 8, "float64"},
		{Bool, 1, "bool"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.size, tt.dt.Size())
		assert.Equal(t, tt.name, tt.dt.String())
		assert.True(t, tt.dt.Valid())
	}

	assert.False(t, DType(12).Valid())
	assert.Equal(t, 0, DType(12).Size())
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, "[2 3 4]", s.String())
	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))
	assert.False(t, s.Equal(Shape{2, 3, 5}))
	require.NoError(t, s.Validate())

	clone := s.Clone()
	clone[0] = 9
	assert.Equal(t, 2, s[0])

	assert.Error(t, Shape{}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
	assert.Equal(t, 0, Shape{}.NumElements())
	assert.Equal(t, 0, Shape{2, -3}.NumElements())
}

func TestNewDense(t *testing.T) {
	d, err := NewDense(Float32, Shape{2, 2}, make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, Float32, d.DType())
	assert.Equal(t, Shape{2, 2}, d.Shape())
	assert.Equal(t, 4, d.NumElements())
	assert.Equal(t, "float32[2 2]", d.String())

	_, err = NewDense(Float32, Shape{2, 2}, make([]byte, 15))
	assert.Error(t, err)

	_, err = NewDense(DType(99), Shape{1}, make([]byte, 4))
	assert.Error(t, err)

	_, err = NewDense(Float32, Shape{}, nil)
	assert.Error(t, err)
}

func TestFromAndAccessors(t *testing.T) {
	d, err := FromInt32(Shape{2, 2}, []int32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Len(t, d.Data(), 16)

	got, err := d.Int32s()
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, got)

	// Wrong accessor reports expected vs actual dtype.
	_, err = d.Float32s()
	var dterr *DTypeError
	require.ErrorAs(t, err, &dterr)
	assert.Equal(t, Float32, dterr.Expected)
	assert.Equal(t, Int32, dterr.Actual)

	// Element count must match the shape.
	_, err = FromInt32(Shape{3}, []int32{1, 2})
	assert.Error(t, err)
}

func TestFromFloat64(t *testing.T) {
	d, err := FromFloat64(Shape{3}, []float64{1.5, -2.5, 3.25})
	require.NoError(t, err)
	got, err := d.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.5, 3.25}, got)
}

func TestBoolNormalization(t *testing.T) {
	d, err := FromBool(Shape{3}, []bool{true, false, true})
	require.NoError(t, err)
	got, err := d.Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, got)

	// Any non-zero stored byte decodes as true.
	raw, err := NewDense(Bool, Shape{2}, []byte{0, 7})
	require.NoError(t, err)
	got, err = raw.Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, got)
}

func TestFloat16RoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, 1024, -0.25}
	d, err := FromFloat16(Shape{6}, values)
	require.NoError(t, err)
	assert.Len(t, d.Data(), 12)

	got, err := d.Float16s()
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestScalars(t *testing.T) {
	s := ScalarInt32(7)
	assert.Equal(t, Shape{1}, s.Shape())
	got, err := s.Int32s()
	require.NoError(t, err)
	assert.Equal(t, []int32{7}, got)

	f := ScalarFloat64(2.5)
	assert.Equal(t, Float64, f.DType())

	assert.Equal(t, Int64, ScalarInt64(1).DType())
	assert.Equal(t, Float32, ScalarFloat32(1).DType())
}

func TestLittleEndianLayout(t *testing.T) {
	// The wire format is little-endian; the raw view must reflect that.
	d, err := FromUint16(Shape{1}, []uint16{0x0102})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01}, d.Data())
}
