// Package reconstruction turns k-space planes into magnitude images.
//
// For each plane the pipeline is:
//  1. flip vertically (reverse the view axis) so the acquisition's view order
//     matches top-to-bottom image orientation
//  2. 2-D inverse DFT, normalised by 1/(rows*cols)
//  3. inverse centring shift (ifftshift)
//  4. complex magnitude sqrt(re² + im²)
//
// No windowing or intensity normalisation is applied; display scaling is the
// caller's business.
package reconstruction

import (
	"fmt"
	"math"

	"rawrecon/internal/models"
	"rawrecon/pkg/kspace"
)

// Params controls which planes of a volume are reconstructed.
type Params struct {
	// Plane is the (experiment, echo, slice, secondary view) plane to reconstruct.
	// The zero value selects the first plane.
	Plane kspace.Plane

	// AllPlanes reconstructs every plane in storage order and ignores Plane.
	AllPlanes bool
}

// Result pairs an extracted k-space plane with its reconstructed image.
// KSpace is the plane as stored, before the vertical flip.
type Result struct {
	Plane  kspace.Plane
	KSpace models.KSpaceSlice
	Image  models.Image
}

// Reconstructor reconstructs planes of a k-space volume. It caches FFT plans between
// calls and is not safe for concurrent use; create one per goroutine.
type Reconstructor struct {
	params Params
	plans  plans
}

// NewReconstructor creates a reconstructor. A nil params selects the first plane only.
func NewReconstructor(params *Params) *Reconstructor {
	r := &Reconstructor{}
	if params != nil {
		r.params = *params
	}
	return r
}

// Process reconstructs the planes selected by the reconstructor's parameters.
func (r *Reconstructor) Process(v *kspace.Volume) ([]Result, error) {
	if !r.params.AllPlanes {
		res, err := r.ReconstructAt(v, r.params.Plane)
		if err != nil {
			return nil, err
		}
		return []Result{res}, nil
	}

	planes := v.Planes()
	if len(planes) == 0 {
		return nil, fmt.Errorf("%w: volume %v has no planes", kspace.ErrIndexOutOfRange, v.Dims)
	}
	results := make([]Result, 0, len(planes))
	for _, p := range planes {
		res, err := r.ReconstructAt(v, p)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ReconstructAt extracts plane p from v and reconstructs it.
func (r *Reconstructor) ReconstructAt(v *kspace.Volume, p kspace.Plane) (Result, error) {
	k, err := v.Slice2D(p)
	if err != nil {
		return Result{}, fmt.Errorf("extracting plane %s: %w", p, err)
	}
	return Result{Plane: p, KSpace: k, Image: r.ReconstructSlice(k)}, nil
}

// ReconstructSlice runs flip, inverse FFT, shift and magnitude on one plane.
func (r *Reconstructor) ReconstructSlice(k models.KSpaceSlice) models.Image {
	flipped := FlipVertical(k)
	spectrum := r.plans.inverseFFT2(flipped)
	return Magnitude(r.plans.ifftShift(spectrum))
}

// Reconstruct reconstructs the first plane of a volume. This is the default policy
// of the batch run; other planes are reached through Reconstructor.
//
// Parameters:
//   - v: The assembled k-space volume
//
// Returns:
//   - The plane v[0,0,0,0,:,:] as stored, before the vertical flip
//   - Its magnitude image, with the same number of rows (views) and columns (samples)
//   - ErrIndexOutOfRange if any outer extent of v is zero
func Reconstruct(v *kspace.Volume) (models.KSpaceSlice, models.Image, error) {
	res, err := NewReconstructor(nil).ReconstructAt(v, kspace.Plane{})
	if err != nil {
		return models.KSpaceSlice{}, models.Image{}, err
	}
	return res.KSpace, res.Image, nil
}

// ReconstructAll reconstructs every plane of v in storage order.
func ReconstructAll(v *kspace.Volume) ([]Result, error) {
	return NewReconstructor(&Params{AllPlanes: true}).Process(v)
}

// FlipVertical returns a copy of k with its rows (the view axis) in reverse order.
func FlipVertical(k models.KSpaceSlice) models.KSpaceSlice {
	out := models.NewKSpaceSlice(k.Rows, k.Cols)
	out.RealValued = k.RealValued
	for r := 0; r < k.Rows; r++ {
		for c := 0; c < k.Cols; c++ {
			out.Set(k.Rows-1-r, c, k.At(r, c))
		}
	}
	return out
}

// Magnitude returns |z| for every element of k as a single-precision image.
func Magnitude(k models.KSpaceSlice) models.Image {
	out := models.NewImage(k.Rows, k.Cols)
	for r := 0; r < k.Rows; r++ {
		for c := 0; c < k.Cols; c++ {
			z := k.At(r, c)
			re, im := float64(real(z)), float64(imag(z))
			out.Set(r, c, float32(math.Sqrt(re*re+im*im)))
		}
	}
	return out
}
