package tensorpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tensorpack/format"
	"github.com/hupe1980/tensorpack/tensor"
)

// buildContainer packs the canonical three-record fixture: 2x2 int32
// inputs and scalar int32 targets.
func buildContainer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.tpk")

	first, err := tensor.FromInt32(tensor.Shape{2, 2}, []int32{1, 2, 3, 4})
	require.NoError(t, err)

	w, err := Create(path, first, tensor.ScalarInt32(0))
	require.NoError(t, err)
	defer w.Close()

	for i, values := range [][]int32{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}} {
		input, err := tensor.FromInt32(tensor.Shape{2, 2}, values)
		require.NoError(t, err)
		require.NoError(t, w.Pack(input, tensor.ScalarInt32(int32(i))))
	}
	require.NoError(t, w.Finalize())
	return path
}

func TestReaderScenario(t *testing.T) {
	path := buildContainer(t)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 3, r.Count())
	assert.Equal(t, "int32[2 2]", r.InputSpec().String())
	assert.Equal(t, "int32[1]", r.TargetSpec().String())

	input, target, err := r.Load(1)
	require.NoError(t, err)

	values, err := input.Int32s()
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 6, 7, 8}, values)

	label, err := target.Int32s()
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, label)

	_, _, err = r.Load(3)
	var oor *IndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 3, oor.Index)
	assert.Equal(t, 3, oor.Count)

	_, _, err = r.Load(-1)
	assert.ErrorAs(t, err, &oor)

	// A failed load must not break the reader.
	_, _, err = r.Load(2)
	assert.NoError(t, err)
}

func TestReaderLoadAnyOrderAndRepeatedly(t *testing.T) {
	r, err := Open(buildContainer(t))
	require.NoError(t, err)
	defer r.Close()

	for _, i := range []int{2, 0, 1, 1, 2, 0} {
		input, target, err := r.Load(i)
		require.NoError(t, err)
		label, err := target.Int32s()
		require.NoError(t, err)
		assert.Equal(t, int32(i), label[0])
		assert.Equal(t, tensor.Shape{2, 2}, input.Shape())
	}
}

func TestMultipleReadersAgree(t *testing.T) {
	path := buildContainer(t)

	r1, err := Open(path)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := Open(path)
	require.NoError(t, err)
	defer r2.Close()

	assert.Equal(t, r1.Count(), r2.Count())
	for i := 0; i < r1.Count(); i++ {
		in1, tgt1, err := r1.Load(i)
		require.NoError(t, err)
		in2, tgt2, err := r2.Load(i)
		require.NoError(t, err)
		assert.Equal(t, in1.Data(), in2.Data())
		assert.Equal(t, tgt1.Data(), tgt2.Data())
	}
}

func TestMmapBackendAgreesWithFileBackend(t *testing.T) {
	path := buildContainer(t)

	rf, err := Open(path)
	require.NoError(t, err)
	defer rf.Close()
	rm, err := Open(path, WithMmap())
	require.NoError(t, err)
	defer rm.Close()

	require.Equal(t, rf.Count(), rm.Count())
	for i := 0; i < rf.Count(); i++ {
		inf, tgtf, err := rf.Load(i)
		require.NoError(t, err)
		inm, tgtm, err := rm.Load(i)
		require.NoError(t, err)
		assert.Equal(t, inf.Data(), inm.Data())
		assert.Equal(t, tgtf.Data(), tgtm.Data())
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.tpk"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := buildContainer(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] = 'X'
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, format.ErrInvalidMagic)
}

func TestOpenRejectsBadVersion(t *testing.T) {
	path := buildContainer(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[4], data[5] = 0xFF, 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, format.ErrInvalidVersion)
}

func TestOpenRejectsWrongSize(t *testing.T) {
	t.Run("truncated data region", func(t *testing.T) {
		path := buildContainer(t)
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.NoError(t, os.Truncate(path, info.Size()-1))

		_, err = Open(path)
		assert.ErrorIs(t, err, ErrCorruptFile)
	})

	t.Run("trailing garbage", func(t *testing.T) {
		path := buildContainer(t)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		require.NoError(t, err)
		_, err = f.Write([]byte{0xDE, 0xAD})
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = Open(path)
		assert.ErrorIs(t, err, ErrCorruptFile)
	})
}

func TestLoadDetectsTruncationAfterOpen(t *testing.T) {
	path := buildContainer(t)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	// Shrink the file underneath the open reader: the last record is
	// gone and loading it must fail loudly, not return padding.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-4))

	_, _, err = r.Load(2)
	assert.ErrorIs(t, err, format.ErrTruncatedRecord)

	// Records still inside the shrunken file remain loadable.
	_, _, err = r.Load(0)
	assert.NoError(t, err)
}

func TestReaderClose(t *testing.T) {
	r, err := Open(buildContainer(t))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "Close is idempotent")

	_, _, err = r.Load(0)
	assert.ErrorIs(t, err, ErrReaderClosed)
}

func TestEmptyContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tpk")
	w, err := Create(path, tensor.ScalarFloat32(0), tensor.ScalarInt32(0))
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.Count())
	_, _, err = r.Load(0)
	var oor *IndexOutOfRangeError
	assert.ErrorAs(t, err, &oor)
}

func TestConcurrentLoads(t *testing.T) {
	r, err := Open(buildContainer(t))
	require.NoError(t, err)
	defer r.Close()

	done := make(chan error, 16)
	for g := 0; g < 16; g++ {
		go func(g int) {
			for i := 0; i < 20; i++ {
				_, target, err := r.Load((g + i) % r.Count())
				if err != nil {
					done <- err
					return
				}
				if _, err := target.Int32s(); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(g)
	}
	for g := 0; g < 16; g++ {
		require.NoError(t, <-done)
	}
}
