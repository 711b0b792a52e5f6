package rawfile

import (
	"fmt"
	"io"
	"os"
)

// FileInfo describes a raw file without decoding its payload.
type FileInfo struct {
	Path   string
	Size   int64
	Header Header

	// TotalPoints and PayloadBytes are zero when the header is unusable;
	// HeaderErr then says why.
	TotalPoints  uint64
	PayloadBytes uint64
	HeaderErr    error
}

// Complete reports whether the file holds the whole declared payload.
func (fi FileInfo) Complete() bool {
	if fi.HeaderErr != nil || fi.Size < PayloadOffset {
		return false
	}
	return uint64(fi.Size-PayloadOffset) >= fi.PayloadBytes
}

// openSized opens path and wraps it in a reader that knows its own size, so the
// decoder can reject short payloads before allocating.
func openSized(path string) (*os.File, *io.SectionReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening raw file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat raw file: %w", err)
	}
	return f, io.NewSectionReader(f, 0, st.Size()), nil
}

// ReadFile reads the header and decodes the payload of the file at path.
// The file is closed on every return path.
func ReadFile(path string) (Header, Samples, error) {
	f, r, err := openSized(path)
	if err != nil {
		return Header{}, Samples{}, err
	}
	defer f.Close()

	h, err := ReadHeader(r)
	if err != nil {
		return Header{}, Samples{}, err
	}
	s, err := DecodeSamples(r, h)
	if err != nil {
		return h, Samples{}, err
	}
	return h, s, nil
}

// Inspect reads only the header of the file at path and reports how the declared
// payload compares with the file size.
func Inspect(path string) (FileInfo, error) {
	f, r, err := openSized(path)
	if err != nil {
		return FileInfo{}, err
	}
	defer f.Close()

	info := FileInfo{Path: path, Size: r.Size()}
	h, err := ReadHeader(r)
	if err != nil {
		return FileInfo{}, err
	}
	info.Header = h
	if info.TotalPoints, info.HeaderErr = h.TotalPoints(); info.HeaderErr != nil {
		return info, nil
	}
	if info.PayloadBytes, info.HeaderErr = h.PayloadSize(); info.HeaderErr != nil {
		info.TotalPoints = 0
	}
	return info, nil
}
