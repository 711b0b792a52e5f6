package rawfile

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedHeader is returned when the file ends before the last header field.
	ErrTruncatedHeader = errors.New("truncated header")

	// ErrShortRead is returned when the payload holds fewer samples than the header declares.
	ErrShortRead = errors.New("short read")

	// ErrUnknownDataType is matched by every UnknownDataTypeError.
	ErrUnknownDataType = errors.New("unknown data type")

	// ErrDimensionOverflow is returned when the extent product does not fit in 64 bits.
	ErrDimensionOverflow = errors.New("dimension overflow")
)

// UnknownDataTypeError carries the unrecognized data type code.
type UnknownDataTypeError struct {
	Code uint16
}

func (e *UnknownDataTypeError) Error() string {
	return fmt.Sprintf("unknown data type code 0x%02X", e.Code)
}

// Is reports ErrUnknownDataType as a match so callers can use errors.Is.
func (e *UnknownDataTypeError) Is(target error) bool {
	return target == ErrUnknownDataType
}
