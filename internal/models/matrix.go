package models

// KSpaceSlice is one (view x sample) plane of k-space in row-major order.
// Rows run along the view axis and columns along the sample axis.
type KSpaceSlice struct {
	Rows int
	Cols int

	// Data always holds complex values; for single-channel ADC files the
	// imaginary parts are zero and RealValued is set.
	Data       []complex64
	RealValued bool
}

// NewKSpaceSlice allocates a zeroed slice of the given shape.
func NewKSpaceSlice(rows, cols int) KSpaceSlice {
	return KSpaceSlice{Rows: rows, Cols: cols, Data: make([]complex64, rows*cols)}
}

// At returns the element at (row, col).
func (k KSpaceSlice) At(row, col int) complex64 {
	return k.Data[row*k.Cols+col]
}

// Set stores v at (row, col).
func (k KSpaceSlice) Set(row, col int, v complex64) {
	k.Data[row*k.Cols+col] = v
}

// Image is a real-valued 2-D image in row-major order, typically a
// reconstructed magnitude image.
type Image struct {
	Rows int
	Cols int
	Pix  []float32
}

// NewImage allocates a zeroed image of the given shape.
func NewImage(rows, cols int) Image {
	return Image{Rows: rows, Cols: cols, Pix: make([]float32, rows*cols)}
}

// At returns the pixel at (row, col).
func (m Image) At(row, col int) float32 {
	return m.Pix[row*m.Cols+col]
}

// Set stores v at (row, col).
func (m Image) Set(row, col int, v float32) {
	m.Pix[row*m.Cols+col] = v
}

// Empty reports whether the image has no pixels.
func (m Image) Empty() bool {
	return m.Rows == 0 || m.Cols == 0
}

// Float64s returns the pixels widened to float64, for gonum consumers.
func (m Image) Float64s() []float64 {
	out := make([]float64, len(m.Pix))
	for i, v := range m.Pix {
		out[i] = float64(v)
	}
	return out
}
