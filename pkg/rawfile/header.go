// Package rawfile decodes the spectrometer's raw acquisition format: a fixed-offset
// metadata region followed by a contiguous sample payload.
//
// The layout has no version field. The offsets below are the wire format; every reader
// and every test fixture goes through them.
package rawfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
)

// Header field offsets, measured from the start of the file.
const (
	OffsetSampleCount          = 0xFC00
	OffsetViewCount            = 0xFC04
	OffsetViewsPerSecondarySet = 0xFC08
	OffsetSliceCount           = 0xFC0C
	OffsetDataType             = 0xFC12
	OffsetEchoCount            = 0xFC98
	OffsetExperimentCount      = 0xFC9C

	// HeaderEnd is the first byte past the last header field.
	HeaderEnd = OffsetExperimentCount + 4

	// PayloadOffset is where the sample payload starts.
	PayloadOffset = 0x10108
)

// Header holds the scalar fields of a raw file's metadata region.
type Header struct {
	SampleCount          uint32
	ViewCount            uint32
	ViewsPerSecondarySet uint32
	SliceCount           uint32
	EchoCount            uint32
	ExperimentCount      uint32
	DataType             DataType
}

// Extents returns the header extents in volume order:
// experiment, echo, slice, secondary view, view, sample.
func (h Header) Extents() [6]uint32 {
	return [6]uint32{
		h.ExperimentCount,
		h.EchoCount,
		h.SliceCount,
		h.ViewsPerSecondarySet,
		h.ViewCount,
		h.SampleCount,
	}
}

// TotalPoints returns the product of all extents. It fails with ErrDimensionOverflow
// instead of wrapping. Any zero extent makes the product zero, however large the others are.
func (h Header) TotalPoints() (uint64, error) {
	ext := h.Extents()
	for _, e := range ext {
		if e == 0 {
			return 0, nil
		}
	}

	total := uint64(1)
	for _, e := range ext {
		hi, lo := bits.Mul64(total, uint64(e))
		if hi != 0 {
			return 0, fmt.Errorf("%w: extents %v", ErrDimensionOverflow, ext)
		}
		total = lo
	}
	return total, nil
}

// PayloadSize returns the number of payload bytes the header declares.
func (h Header) PayloadSize() (uint64, error) {
	total, err := h.TotalPoints()
	if err != nil {
		return 0, err
	}
	width, err := h.DataType.BytesPerPoint()
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(total, uint64(width))
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d points of %d bytes", ErrDimensionOverflow, total, width)
	}
	return lo, nil
}

func (h Header) String() string {
	return fmt.Sprintf("samples=%d views=%d viewsSec=%d slices=%d echoes=%d experiments=%d type=%s",
		h.SampleCount, h.ViewCount, h.ViewsPerSecondarySet, h.SliceCount,
		h.EchoCount, h.ExperimentCount, h.DataType)
}

// ReadHeader reads the seven header fields. Each field is an independent positioned
// read; the fields are not contiguous.
func ReadHeader(r io.ReaderAt) (Header, error) {
	var h Header
	var err error

	fields := []struct {
		dst *uint32
		off int64
	}{
		{&h.SampleCount, OffsetSampleCount},
		{&h.ViewCount, OffsetViewCount},
		{&h.ViewsPerSecondarySet, OffsetViewsPerSecondarySet},
		{&h.SliceCount, OffsetSliceCount},
		{&h.EchoCount, OffsetEchoCount},
		{&h.ExperimentCount, OffsetExperimentCount},
	}
	for _, f := range fields {
		if *f.dst, err = readUint32(r, f.off); err != nil {
			return Header{}, err
		}
	}

	code, err := readUint16(r, OffsetDataType)
	if err != nil {
		return Header{}, err
	}
	h.DataType = DataType(code)

	return h, nil
}

func readUint32(r io.ReaderAt, off int64) (uint32, error) {
	var buf [4]byte
	if err := readField(r, buf[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readUint16(r io.ReaderAt, off int64) (uint16, error) {
	var buf [2]byte
	if err := readField(r, buf[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readField(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: field at 0x%X needs %d bytes, got %d", ErrTruncatedHeader, off, len(buf), n)
	}
	return fmt.Errorf("reading header field at 0x%X: %w", off, err)
}
