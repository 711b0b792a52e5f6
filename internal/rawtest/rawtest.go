// Package rawtest builds raw acquisition files for tests.
package rawtest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rawrecon/pkg/rawfile"
)

// Build lays out a raw file: header fields at their offsets, zero padding, and the
// payload at rawfile.PayloadOffset.
func Build(h rawfile.Header, payload []byte) []byte {
	buf := make([]byte, rawfile.PayloadOffset+len(payload))
	le := binary.LittleEndian
	le.PutUint32(buf[rawfile.OffsetSampleCount:], h.SampleCount)
	le.PutUint32(buf[rawfile.OffsetViewCount:], h.ViewCount)
	le.PutUint32(buf[rawfile.OffsetViewsPerSecondarySet:], h.ViewsPerSecondarySet)
	le.PutUint32(buf[rawfile.OffsetSliceCount:], h.SliceCount)
	le.PutUint16(buf[rawfile.OffsetDataType:], uint16(h.DataType))
	le.PutUint32(buf[rawfile.OffsetEchoCount:], h.EchoCount)
	le.PutUint32(buf[rawfile.OffsetExperimentCount:], h.ExperimentCount)
	copy(buf[rawfile.PayloadOffset:], payload)
	return buf
}

// Header returns a header with the given view and sample counts, every other
// extent set to one.
func Header(dt rawfile.DataType, views, samples uint32) rawfile.Header {
	return rawfile.Header{
		SampleCount:          samples,
		ViewCount:            views,
		ViewsPerSecondarySet: 1,
		SliceCount:           1,
		EchoCount:            1,
		ExperimentCount:      1,
		DataType:             dt,
	}
}

// Words encodes raw 32-bit payload words.
func Words(words []uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

// ComplexPayload encodes interleaved I/Q values as 24-bit words in 32-bit slots.
func ComplexPayload(iq []int32) []byte {
	words := make([]uint32, len(iq))
	for i, v := range iq {
		words[i] = rawfile.EncodeWord24(v)
	}
	return Words(words)
}

// ADCPayload encodes signed 16-bit samples.
func ADCPayload(vals []int16) []byte {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return buf
}

// Write stores data as dir/name and returns the path.
func Write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// Ramp returns an I/Q sequence of n complex points where point k is (k, -k).
func Ramp(n int) []int32 {
	iq := make([]int32, 2*n)
	for k := 0; k < n; k++ {
		iq[2*k] = int32(k)
		iq[2*k+1] = int32(-k)
	}
	return iq
}
