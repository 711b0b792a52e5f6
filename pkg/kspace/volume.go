// Package kspace reshapes decoded raw samples into a six-dimensional k-space volume.
//
// The dimension order is fixed and mirrors the on-disk ordering, slowest to fastest:
// experiment, echo, slice, secondary view, view, sample. Nothing in this package
// permutes it.
package kspace

import (
	"errors"
	"fmt"

	"rawrecon/internal/models"
	"rawrecon/pkg/rawfile"
)

var (
	// ErrDimensionMismatch is returned when the sample count disagrees with the extents.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexOutOfRange is returned when a plane index exceeds its extent.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Axis names one volume dimension.
type Axis int

const (
	AxisExperiment Axis = iota
	AxisEcho
	AxisSlice
	AxisSecondaryView
	AxisView
	AxisSample
	numAxes
)

func (a Axis) String() string {
	switch a {
	case AxisExperiment:
		return "experiment"
	case AxisEcho:
		return "echo"
	case AxisSlice:
		return "slice"
	case AxisSecondaryView:
		return "secondaryView"
	case AxisView:
		return "view"
	case AxisSample:
		return "sample"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Dims holds the extent of each axis, indexed by Axis.
type Dims [numAxes]int

// Count returns the number of elements the extents describe.
func (d Dims) Count() int {
	n := 1
	for _, e := range d {
		n *= e
	}
	return n
}

// Index addresses one element, indexed by Axis.
type Index [numAxes]int

// Volume is a k-space volume backed by the flat decoded sequence. Exactly one of
// Complex and Real is set. A Volume is not modified after Assemble returns it.
type Volume struct {
	Dims     Dims
	DataType rawfile.DataType
	Complex  []complex64
	Real     []float32

	strides Dims
}

// Assemble wraps the decoded samples as a volume using the header extents, in the
// order experiment, echo, slice, secondary view, view, sample. The samples are not
// copied, so the caller must not modify them afterwards.
//
// Parameters:
//   - s: Samples decoded from the file's payload
//   - h: The header that declared them
//
// Returns:
//   - A row-major volume whose element at (e,c,s,sv,v,k) is sample number
//     ((((e*C+c)*S+s)*SV+sv)*V+v)*K+k
//   - ErrDimensionMismatch if the sample count differs from the product of the
//     extents, or ErrDimensionOverflow if that product does not fit in 64 bits
func Assemble(s rawfile.Samples, h rawfile.Header) (*Volume, error) {
	total, err := h.TotalPoints()
	if err != nil {
		return nil, err
	}

	var dims Dims
	for i, e := range h.Extents() {
		dims[i] = int(e)
	}

	if uint64(s.Len()) != total {
		return nil, fmt.Errorf("%w: %d samples for extents %v (%d points)",
			ErrDimensionMismatch, s.Len(), dims, total)
	}

	v := &Volume{Dims: dims, DataType: s.DataType}
	if s.DataType.IsComplex() {
		v.Complex = s.Complex
	} else {
		v.Real = s.Real
	}
	v.strides = stridesFor(dims)
	return v, nil
}

func stridesFor(d Dims) Dims {
	var s Dims
	step := 1
	for i := len(d) - 1; i >= 0; i-- {
		s[i] = step
		step *= d[i]
	}
	return s
}

// IsComplex reports whether the volume holds I/Q samples.
func (v *Volume) IsComplex() bool {
	return v.DataType.IsComplex()
}

// Count returns the number of elements.
func (v *Volume) Count() int {
	if v.IsComplex() {
		return len(v.Complex)
	}
	return len(v.Real)
}

// Offset returns the flat position of idx. It does not bounds-check.
func (v *Volume) Offset(idx Index) int {
	off := 0
	for i, x := range idx {
		off += x * v.strides[i]
	}
	return off
}

// At returns the element at idx. Real volumes report a zero imaginary part.
func (v *Volume) At(idx Index) complex64 {
	off := v.Offset(idx)
	if v.IsComplex() {
		return v.Complex[off]
	}
	return complex(v.Real[off], 0)
}

// Plane selects one (view x sample) plane by its four outer indices.
type Plane struct {
	Experiment    int
	Echo          int
	Slice         int
	SecondaryView int
}

func (p Plane) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d,:,:]", p.Experiment, p.Echo, p.Slice, p.SecondaryView)
}

// Planes lists every plane of the volume in storage order.
func (v *Volume) Planes() []Plane {
	var out []Plane
	for e := 0; e < v.Dims[AxisExperiment]; e++ {
		for c := 0; c < v.Dims[AxisEcho]; c++ {
			for s := 0; s < v.Dims[AxisSlice]; s++ {
				for sv := 0; sv < v.Dims[AxisSecondaryView]; sv++ {
					out = append(out, Plane{Experiment: e, Echo: c, Slice: s, SecondaryView: sv})
				}
			}
		}
	}
	return out
}

// Slice2D copies out the (view x sample) plane at p.
func (v *Volume) Slice2D(p Plane) (models.KSpaceSlice, error) {
	outer := [4]int{p.Experiment, p.Echo, p.Slice, p.SecondaryView}
	for i, x := range outer {
		if x < 0 || x >= v.Dims[i] {
			return models.KSpaceSlice{}, fmt.Errorf("%w: %s index %d, extent %d",
				ErrIndexOutOfRange, Axis(i), x, v.Dims[i])
		}
	}

	rows, cols := v.Dims[AxisView], v.Dims[AxisSample]
	out := models.NewKSpaceSlice(rows, cols)
	out.RealValued = !v.IsComplex()

	start := v.Offset(Index{p.Experiment, p.Echo, p.Slice, p.SecondaryView, 0, 0})
	n := rows * cols
	if v.IsComplex() {
		copy(out.Data, v.Complex[start:start+n])
	} else {
		for i, x := range v.Real[start : start+n] {
			out.Data[i] = complex(x, 0)
		}
	}
	return out, nil
}
