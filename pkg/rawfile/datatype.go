package rawfile

import "fmt"

// DataType is the payload encoding code stored at OffsetDataType.
type DataType uint16

const (
	// DataTypeComplex is I/Q pairs of 24-bit samples in 32-bit slots.
	DataTypeComplex DataType = 0x00

	// DataTypeADC16 is a single channel of signed 16-bit samples.
	DataTypeADC16 DataType = 0x01

	// DataTypeComplexAlt decodes exactly like DataTypeComplex. The instrument
	// documentation does not say what distinguishes the two codes.
	DataTypeComplexAlt DataType = 0x02
)

// IsComplex reports whether samples of this type are I/Q pairs.
func (d DataType) IsComplex() bool {
	return d == DataTypeComplex || d == DataTypeComplexAlt
}

// Known reports whether the decoder accepts this code.
func (d DataType) Known() bool {
	return d.IsComplex() || d == DataTypeADC16
}

// BytesPerPoint returns the payload width of one logical sample.
func (d DataType) BytesPerPoint() (int, error) {
	switch {
	case d.IsComplex():
		return 2 * wordSize, nil
	case d == DataTypeADC16:
		return adcSize, nil
	default:
		return 0, &UnknownDataTypeError{Code: uint16(d)}
	}
}

func (d DataType) String() string {
	switch d {
	case DataTypeComplex:
		return "complex24"
	case DataTypeComplexAlt:
		return "complex24-alt"
	case DataTypeADC16:
		return "adc16"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint16(d))
	}
}
