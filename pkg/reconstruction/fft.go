package reconstruction

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"rawrecon/internal/models"
)

// plans caches one complex FFT per axis length. A plans value is not safe for
// concurrent use.
type plans struct {
	byLen map[int]*fourier.CmplxFFT
}

func (p *plans) get(n int) *fourier.CmplxFFT {
	if p.byLen == nil {
		p.byLen = make(map[int]*fourier.CmplxFFT)
	}
	fft, ok := p.byLen[n]
	if !ok {
		fft = fourier.NewCmplxFFT(n)
		p.byLen[n] = fft
	}
	return fft
}

// inverseFFT2 computes the normalised 2-D inverse DFT of k, row pass then column
// pass, scaling by 1/(rows*cols). gonum's backward transform is unnormalised.
func (p *plans) inverseFFT2(k models.KSpaceSlice) models.KSpaceSlice {
	rows, cols := k.Rows, k.Cols
	out := models.NewKSpaceSlice(rows, cols)
	if rows == 0 || cols == 0 {
		return out
	}

	work := make([]complex128, rows*cols)
	for i, v := range k.Data {
		work[i] = complex128(v)
	}

	rowFFT := p.get(cols)
	row := make([]complex128, cols)
	for r := 0; r < rows; r++ {
		seg := work[r*cols : (r+1)*cols]
		copy(row, seg)
		rowFFT.Sequence(seg, row)
	}

	colFFT := p.get(rows)
	col := make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			col[r] = work[r*cols+c]
		}
		colFFT.Sequence(col, col)
		for r := 0; r < rows; r++ {
			work[r*cols+c] = col[r]
		}
	}

	scale := 1 / float64(rows*cols)
	for i, v := range work {
		out.Data[i] = complex64(complex(real(v)*scale, imag(v)*scale))
	}
	return out
}

// InverseFFT2 computes the 2-D inverse DFT of k with numpy's ifft2 normalisation.
func InverseFFT2(k models.KSpaceSlice) models.KSpaceSlice {
	var p plans
	return p.inverseFFT2(k)
}

// IFFTShift undoes a centring shift: the element at (0, 0) of the result is the
// element at (rows/2, cols/2) of k, wrapping around. For odd extents this is the
// inverse of the forward shift, not the same permutation.
func IFFTShift(k models.KSpaceSlice) models.KSpaceSlice {
	var p plans
	return p.ifftShift(k)
}

func (p *plans) ifftShift(k models.KSpaceSlice) models.KSpaceSlice {
	out := models.NewKSpaceSlice(k.Rows, k.Cols)
	out.RealValued = k.RealValued
	if k.Rows == 0 || k.Cols == 0 {
		return out
	}

	rowIdx := p.unshiftIndices(k.Rows)
	colIdx := p.unshiftIndices(k.Cols)
	for r := 0; r < k.Rows; r++ {
		src := rowIdx[r] * k.Cols
		dst := r * k.Cols
		for c := 0; c < k.Cols; c++ {
			out.Data[dst+c] = k.Data[src+colIdx[c]]
		}
	}
	return out
}

// unshiftIndices maps each output index to its source index. gonum's UnshiftIdx
// is (i + n/2) mod n.
func (p *plans) unshiftIndices(n int) []int {
	fft := p.get(n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = fft.UnshiftIdx(i)
	}
	return idx
}
