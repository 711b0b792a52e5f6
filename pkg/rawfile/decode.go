package rawfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	wordSize = 4 // one I or Q slot
	adcSize  = 2 // one ADC sample

	signBit24  = 0x00800000
	mask24     = 0x00FFFFFF
	modulus24  = 0x01000000
	chunkBytes = 64 * 1024

	// unsizedCapLimit bounds the up-front allocation when the reader cannot
	// report its size and the header may be lying.
	unsizedCapLimit = 1 << 20
)

// Samples is the flat sample sequence decoded from a payload. Exactly one of
// Complex and Real is populated, depending on DataType.
type Samples struct {
	DataType DataType
	Complex  []complex64
	Real     []float32
}

// Len returns the number of logical samples.
func (s Samples) Len() int {
	if s.DataType.IsComplex() {
		return len(s.Complex)
	}
	return len(s.Real)
}

// SignExtend24 interprets the low 24 bits of a 32-bit slot as a two's-complement
// value. The upper byte is ignored.
func SignExtend24(word uint32) int32 {
	v := int64(word & mask24)
	if v >= signBit24 {
		v -= modulus24
	}
	return int32(v)
}

// EncodeWord24 is the inverse of SignExtend24: the 24-bit two's-complement form of v,
// zero-extended to 32 bits. Values outside the 24-bit range are truncated.
func EncodeWord24(v int32) uint32 {
	return uint32(v) & mask24
}

// sizer is implemented by *io.SectionReader and *bytes.Reader.
type sizer interface {
	Size() int64
}

// DecodeSamples reads the payload declared by h from r, starting at PayloadOffset.
// Complex files hold interleaved I/Q pairs, each value a 24-bit two's-complement
// number in the low bytes of a little-endian 32-bit word. ADC files hold signed
// 16-bit values. Bytes past the declared payload are ignored and the reader is
// not retained.
//
// Parameters:
//   - r: The whole raw file; a reader that reports Size() is checked for a short
//     payload before anything is allocated
//   - h: The header read from the same file
//
// Returns:
//   - The samples in file order, sample index varying fastest
//   - UnknownDataTypeError, ErrDimensionOverflow or ErrShortRead when the
//     payload cannot be decoded as declared
func DecodeSamples(r io.ReaderAt, h Header) (Samples, error) {
	if !h.DataType.Known() {
		return Samples{}, &UnknownDataTypeError{Code: uint16(h.DataType)}
	}

	total, err := h.TotalPoints()
	if err != nil {
		return Samples{}, err
	}
	size, err := h.PayloadSize()
	if err != nil {
		return Samples{}, err
	}
	if size > math.MaxInt64-PayloadOffset || total > math.MaxInt {
		return Samples{}, fmt.Errorf("%w: payload of %d bytes is not addressable", ErrDimensionOverflow, size)
	}

	capHint := int(total)
	if s, ok := r.(sizer); ok {
		avail := s.Size() - PayloadOffset
		if avail < 0 {
			avail = 0
		}
		if uint64(avail) < size {
			return Samples{}, shortRead(h.DataType, total, uint64(avail))
		}
	} else if capHint > unsizedCapLimit {
		capHint = unsizedCapLimit
	}

	payload := io.NewSectionReader(r, PayloadOffset, int64(size))
	if h.DataType.IsComplex() {
		return decodeComplex(payload, h, total, capHint)
	}
	return decodeADC(payload, h, total, capHint)
}

func decodeComplex(payload io.Reader, h Header, total uint64, capHint int) (Samples, error) {
	out := make([]complex64, 0, capHint)
	err := readChunks(payload, total*2*wordSize, 2*wordSize, func(b []byte) {
		for i := 0; i+2*wordSize <= len(b); i += 2 * wordSize {
			re := SignExtend24(binary.LittleEndian.Uint32(b[i:]))
			im := SignExtend24(binary.LittleEndian.Uint32(b[i+wordSize:]))
			out = append(out, complex(float32(re), float32(im)))
		}
	})
	if err != nil {
		return Samples{}, err
	}
	if uint64(len(out)) != total {
		return Samples{}, shortRead(h.DataType, total, uint64(len(out))*2*wordSize)
	}
	return Samples{DataType: h.DataType, Complex: out}, nil
}

func decodeADC(payload io.Reader, h Header, total uint64, capHint int) (Samples, error) {
	out := make([]float32, 0, capHint)
	err := readChunks(payload, total*adcSize, adcSize, func(b []byte) {
		for i := 0; i+adcSize <= len(b); i += adcSize {
			out = append(out, float32(int16(binary.LittleEndian.Uint16(b[i:]))))
		}
	})
	if err != nil {
		return Samples{}, err
	}
	if uint64(len(out)) != total {
		return Samples{}, shortRead(h.DataType, total, uint64(len(out))*adcSize)
	}
	return Samples{DataType: h.DataType, Real: out}, nil
}

// readChunks feeds want bytes from r to fn in chunks that are whole multiples of unit.
// A short payload ends the loop early; the caller compares counts.
func readChunks(r io.Reader, want uint64, unit int, fn func([]byte)) error {
	buf := make([]byte, chunkBytes-chunkBytes%unit)
	for want > 0 {
		n := len(buf)
		if uint64(n) > want {
			n = int(want)
		}
		got, err := io.ReadFull(r, buf[:n])
		fn(buf[:got-got%unit])
		want -= uint64(got)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("reading payload: %w", err)
		}
	}
	return nil
}

func shortRead(dt DataType, total, availBytes uint64) error {
	if dt.IsComplex() {
		return fmt.Errorf("%w: expected %d 32-bit words, got %d", ErrShortRead, total*2, availBytes/wordSize)
	}
	return fmt.Errorf("%w: expected %d 16-bit values, got %d", ErrShortRead, total, availBytes/adcSize)
}
