package visualization

import (
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"rawrecon/internal/models"
	"rawrecon/pkg/batch"
	"rawrecon/pkg/kspace"
)

func ramp(rows, cols int) models.Image {
	m := models.NewImage(rows, cols)
	for i := range m.Pix {
		m.Pix[i] = float32(i)
	}
	return m
}

func TestStats(t *testing.T) {
	m := models.Image{Rows: 1, Cols: 4, Pix: []float32{1, 2, 3, 4}}
	s := Stats(m)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.StdDev, 1e-12)
	assert.Contains(t, s.String(), "max=4")

	assert.Equal(t, Summary{}, Stats(models.Image{}))
	assert.Equal(t, 0.0, Stats(models.Image{Rows: 1, Cols: 1, Pix: []float32{7}}).StdDev)
}

func TestLogMagnitude(t *testing.T) {
	k := models.NewKSpaceSlice(1, 3)
	k.Data[0] = complex(3, 4)
	k.Data[1] = 0
	k.Data[2] = complex(-1, 0)

	got := LogMagnitude(k)
	require.Equal(t, 1, got.Rows)
	require.Equal(t, 3, got.Cols)
	assert.InDelta(t, math.Log(6), float64(got.Pix[0]), 1e-6)
	assert.Equal(t, float32(0), got.Pix[1])
	assert.InDelta(t, math.Log(2), float64(got.Pix[2]), 1e-6)
}

func TestToGray16(t *testing.T) {
	img := ToGray16(ramp(2, 3))
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, uint16(0), img.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(65535), img.Gray16At(2, 1).Y)
	// Row 0 col 1 holds 1 of 0..5.
	assert.Equal(t, uint16(13107), img.Gray16At(1, 0).Y)

	flat := models.NewImage(2, 2)
	for i := range flat.Pix {
		flat.Pix[i] = 3
	}
	for _, v := range ToGray16(flat).Pix {
		assert.Zero(t, v)
	}

	assert.True(t, ToGray16(models.Image{}).Bounds().Empty())
}

func TestNewExporter_Formats(t *testing.T) {
	tests := map[string]string{"": "png", "PNG": "png", "jpeg": "jpg", "jpg": "jpg", "tif": "tiff", "tiff": "tiff"}
	for in, want := range tests {
		e, err := NewExporter(t.TempDir(), in, false)
		require.NoError(t, err, in)
		assert.Equal(t, want, e.Ext(), in)
	}

	_, err := NewExporter(t.TempDir(), "bmp", false)
	assert.ErrorContains(t, err, "unsupported image format")
}

func decode(t *testing.T, path, format string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var img image.Image
	switch format {
	case "png":
		img, err = png.Decode(f)
	case "jpg":
		img, err = jpeg.Decode(f)
	case "tiff":
		img, err = tiff.Decode(f)
	}
	require.NoError(t, err)
	return img
}

func TestSavePair(t *testing.T) {
	k := models.NewKSpaceSlice(4, 6)
	for i := range k.Data {
		k.Data[i] = complex(float32(i), 1)
	}
	im := ramp(4, 6)

	for _, format := range []string{"png", "jpg", "tiff"} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			e, err := NewExporter(dir, format, true)
			require.NoError(t, err)

			imgPath, ksPath, err := e.SavePair("scan", k, im)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "scan_image."+format), imgPath)
			assert.Equal(t, filepath.Join(dir, "scan_kspace."+format), ksPath)

			for _, p := range []string{imgPath, ksPath} {
				got := decode(t, p, format)
				assert.Equal(t, image.Rect(0, 0, 6, 4), got.Bounds())
			}
		})
	}
}

func TestSavePair_LosslessImage(t *testing.T) {
	e, err := NewExporter(t.TempDir(), "png", false)
	require.NoError(t, err)

	im := ramp(3, 3)
	imgPath, _, err := e.SavePair("r", models.NewKSpaceSlice(3, 3), im)
	require.NoError(t, err)

	got, ok := decode(t, imgPath, "png").(*image.Gray16)
	require.True(t, ok, "png should decode as 16-bit gray")
	assert.Equal(t, ToGray16(im).Pix, got.Pix)
}

func TestSaveImage_Empty(t *testing.T) {
	e, err := NewExporter(t.TempDir(), "png", false)
	require.NoError(t, err)
	err = e.SaveImage(image.NewGray16(image.Rect(0, 0, 0, 0)), filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestBaseName(t *testing.T) {
	p := kspace.Plane{Experiment: 1, Echo: 2, Slice: 3, SecondaryView: 4}
	assert.Equal(t, "scan01", BaseName("scan01.raw", p, false))
	assert.Equal(t, "scan01_e1_c2_s3_v4", BaseName("scan01.raw", p, true))
	assert.Equal(t, "noext", BaseName("noext", kspace.Plane{}, false))
}

func TestSavePairs(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir, "png", true)
	require.NoError(t, err)

	pair := func(file string, slice, rows int) batch.Pair {
		return batch.Pair{
			File:   file,
			Path:   filepath.Join("in", file),
			Plane:  kspace.Plane{Slice: slice},
			KSpace: models.NewKSpaceSlice(rows, 2),
			Image:  ramp(rows, 2),
		}
	}
	pairs := []batch.Pair{
		pair("a.raw", 0, 2),
		pair("b.raw", 0, 2),
		pair("b.raw", 1, 2),
		pair("c.raw", 0, 0),
	}

	written, err := e.SavePairs(pairs)
	require.NoError(t, err)

	var names []string
	for _, w := range written {
		names = append(names, filepath.Base(w))
	}
	assert.Equal(t, []string{
		"a_image.png", "a_kspace.png",
		"b_e0_c0_s0_v0_image.png", "b_e0_c0_s0_v0_kspace.png",
		"b_e0_c0_s1_v0_image.png", "b_e0_c0_s1_v0_kspace.png",
	}, names)
	for _, w := range written {
		assert.FileExists(t, w)
	}
}
