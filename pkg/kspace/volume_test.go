package kspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rawrecon/pkg/rawfile"
)

func header(dims [6]uint32, dt rawfile.DataType) rawfile.Header {
	return rawfile.Header{
		ExperimentCount:      dims[0],
		EchoCount:            dims[1],
		SliceCount:           dims[2],
		ViewsPerSecondarySet: dims[3],
		ViewCount:            dims[4],
		SampleCount:          dims[5],
		DataType:             dt,
	}
}

func sequence(n int) []complex64 {
	out := make([]complex64, n)
	for i := range out {
		out[i] = complex(float32(i), float32(-i))
	}
	return out
}

func TestAssemble_IndexLaw(t *testing.T) {
	seq := sequence(32)
	h := header([6]uint32{1, 1, 1, 1, 4, 8}, rawfile.DataTypeComplex)

	v, err := Assemble(rawfile.Samples{DataType: h.DataType, Complex: seq}, h)
	require.NoError(t, err)
	assert.Equal(t, Dims{1, 1, 1, 1, 4, 8}, v.Dims)
	assert.Equal(t, 32, v.Count())

	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			assert.Equal(t, seq[i*8+j], v.At(Index{0, 0, 0, 0, i, j}), "(%d,%d)", i, j)
		}
	}
}

func TestAssemble_DimensionOrder(t *testing.T) {
	dims := [6]uint32{2, 3, 2, 2, 3, 4}
	h := header(dims, rawfile.DataTypeComplex)
	n := 2 * 3 * 2 * 2 * 3 * 4
	seq := sequence(n)

	v, err := Assemble(rawfile.Samples{DataType: h.DataType, Complex: seq}, h)
	require.NoError(t, err)
	assert.Equal(t, n, v.Dims.Count())

	// Sample varies fastest, experiment slowest.
	flat := 0
	for e := 0; e < 2; e++ {
		for c := 0; c < 3; c++ {
			for s := 0; s < 2; s++ {
				for sv := 0; sv < 2; sv++ {
					for w := 0; w < 3; w++ {
						for x := 0; x < 4; x++ {
							idx := Index{e, c, s, sv, w, x}
							require.Equal(t, flat, v.Offset(idx))
							require.Equal(t, seq[flat], v.At(idx))
							flat++
						}
					}
				}
			}
		}
	}
}

func TestAssemble_Real(t *testing.T) {
	h := header([6]uint32{1, 1, 1, 1, 2, 3}, rawfile.DataTypeADC16)
	v, err := Assemble(rawfile.Samples{DataType: h.DataType, Real: []float32{1, 2, 3, 4, 5, 6}}, h)
	require.NoError(t, err)
	assert.False(t, v.IsComplex())
	assert.Equal(t, complex64(complex(6, 0)), v.At(Index{0, 0, 0, 0, 1, 2}))

	k, err := v.Slice2D(Plane{})
	require.NoError(t, err)
	assert.True(t, k.RealValued)
	assert.Equal(t, []complex64{1, 2, 3, 4, 5, 6}, k.Data)
}

func TestAssemble_DimensionMismatch(t *testing.T) {
	h := header([6]uint32{1, 1, 1, 1, 4, 8}, rawfile.DataTypeComplex)

	_, err := Assemble(rawfile.Samples{DataType: h.DataType, Complex: sequence(31)}, h)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Assemble(rawfile.Samples{DataType: h.DataType, Complex: sequence(33)}, h)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestAssemble_Overflow(t *testing.T) {
	h := header([6]uint32{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 1, 1, 1}, rawfile.DataTypeComplex)
	_, err := Assemble(rawfile.Samples{DataType: h.DataType}, h)
	assert.ErrorIs(t, err, rawfile.ErrDimensionOverflow)
}

func TestSlice2D(t *testing.T) {
	h := header([6]uint32{2, 1, 2, 1, 2, 3}, rawfile.DataTypeComplex)
	seq := sequence(24)
	v, err := Assemble(rawfile.Samples{DataType: h.DataType, Complex: seq}, h)
	require.NoError(t, err)

	k, err := v.Slice2D(Plane{Experiment: 1, Slice: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, k.Rows)
	assert.Equal(t, 3, k.Cols)
	assert.False(t, k.RealValued)
	assert.Equal(t, seq[18:24], k.Data)

	// The copy does not alias the volume.
	k.Set(0, 0, 99)
	assert.Equal(t, seq[18], v.At(Index{1, 0, 1, 0, 0, 0}))
	assert.NotEqual(t, complex64(99), v.At(Index{1, 0, 1, 0, 0, 0}))

	_, err = v.Slice2D(Plane{Experiment: 2})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = v.Slice2D(Plane{Echo: -1})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPlanes(t *testing.T) {
	h := header([6]uint32{2, 1, 2, 1, 1, 1}, rawfile.DataTypeComplex)
	v, err := Assemble(rawfile.Samples{DataType: h.DataType, Complex: sequence(4)}, h)
	require.NoError(t, err)

	assert.Equal(t, []Plane{
		{Experiment: 0, Slice: 0},
		{Experiment: 0, Slice: 1},
		{Experiment: 1, Slice: 0},
		{Experiment: 1, Slice: 1},
	}, v.Planes())
	assert.Equal(t, "[1,0,1,0,:,:]", Plane{Experiment: 1, Slice: 1}.String())
}

func TestSlice2D_EmptyVolume(t *testing.T) {
	h := header([6]uint32{0, 1, 1, 1, 4, 4}, rawfile.DataTypeComplex)
	v, err := Assemble(rawfile.Samples{DataType: h.DataType, Complex: []complex64{}}, h)
	require.NoError(t, err)
	assert.Empty(t, v.Planes())

	_, err = v.Slice2D(Plane{})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
