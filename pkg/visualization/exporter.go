// Package visualization turns reconstructed images and k-space planes into
// grayscale picture files.
package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rawrecon/internal/logger"
	"rawrecon/internal/models"
	"rawrecon/pkg/batch"
	"rawrecon/pkg/kspace"
	"rawrecon/pkg/reconstruction"
)

// ErrEmptyImage is returned when asked to save an image with no pixels.
var ErrEmptyImage = errors.New("empty image")

// Summary describes the intensity distribution of an image.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

func (s Summary) String() string {
	return fmt.Sprintf("min=%.4g max=%.4g mean=%.4g std=%.4g", s.Min, s.Max, s.Mean, s.StdDev)
}

// Stats summarises the pixels of m. The standard deviation is the population one.
// An empty image yields the zero Summary.
func Stats(m models.Image) Summary {
	if len(m.Pix) == 0 {
		return Summary{}
	}
	x := m.Float64s()
	mean, std := stat.PopMeanStdDev(x, nil)
	return Summary{Min: floats.Min(x), Max: floats.Max(x), Mean: mean, StdDev: std}
}

// LogMagnitude returns log(1+|k|) for every element of k. It compresses the
// dynamic range of k-space for display and is never applied to reconstruction.
func LogMagnitude(k models.KSpaceSlice) models.Image {
	out := reconstruction.Magnitude(k)
	for i, v := range out.Pix {
		out.Pix[i] = float32(math.Log1p(float64(v)))
	}
	return out
}

// ToGray16 linearly maps the pixel range of m onto 0..65535. A constant image maps
// to black.
func ToGray16(m models.Image) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, m.Cols, m.Rows))
	if len(m.Pix) == 0 {
		return img
	}
	x := m.Float64s()
	lo, hi := floats.Min(x), floats.Max(x)
	span := hi - lo
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return img
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			v := (float64(m.At(r, c)) - lo) / span * 65535
			img.SetGray16(c, r, color.Gray16{Y: uint16(math.Round(math.Max(0, math.Min(65535, v))))})
		}
	}
	return img
}

// Exporter writes reconstructed pairs as image files into one directory.
type Exporter struct {
	dir       string
	format    string
	logKSpace bool
}

// NewExporter creates an exporter writing format files (png, jpg or tiff) to dir.
// With logKSpace the k-space picture shows log(1+|k|) instead of |k|.
func NewExporter(dir, format string, logKSpace bool) (*Exporter, error) {
	f, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	return &Exporter{dir: dir, format: f, logKSpace: logKSpace}, nil
}

func normalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return "png", nil
	case "jpg", "jpeg":
		return "jpg", nil
	case "tif", "tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// Ext returns the file extension used for exported files, without the dot.
func (e *Exporter) Ext() string {
	return e.format
}

// SaveImage encodes img into filename in the exporter's format.
func (e *Exporter) SaveImage(img image.Image, filename string) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: %s", ErrEmptyImage, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	switch e.format {
	case "jpg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case "tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(file, img)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// SavePair writes <base>_image.<ext> and <base>_kspace.<ext> and returns their paths.
func (e *Exporter) SavePair(base string, k models.KSpaceSlice, im models.Image) (imagePath, kspacePath string, err error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", "", err
	}

	imagePath = filepath.Join(e.dir, fmt.Sprintf("%s_image.%s", base, e.format))
	if err := e.SaveImage(ToGray16(im), imagePath); err != nil {
		return "", "", err
	}

	var display models.Image
	if e.logKSpace {
		display = LogMagnitude(k)
	} else {
		display = reconstruction.Magnitude(k)
	}
	kspacePath = filepath.Join(e.dir, fmt.Sprintf("%s_kspace.%s", base, e.format))
	if err := e.SaveImage(ToGray16(display), kspacePath); err != nil {
		return "", "", err
	}
	return imagePath, kspacePath, nil
}

// BaseName derives the output name for a plane of file. The plane is appended
// only when the file contributed several planes.
func BaseName(file string, plane kspace.Plane, multi bool) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	if !multi {
		return base
	}
	return fmt.Sprintf("%s_e%d_c%d_s%d_v%d", base, plane.Experiment, plane.Echo, plane.Slice, plane.SecondaryView)
}

// SavePairs exports every pair in order and returns the written paths. Empty
// planes are skipped with a warning.
func (e *Exporter) SavePairs(pairs []batch.Pair) ([]string, error) {
	perFile := make(map[string]int)
	for _, p := range pairs {
		perFile[p.Path]++
	}

	var written []string
	for _, p := range pairs {
		if p.Image.Empty() {
			logger.Warn("skipping export of %s plane %s: no pixels", p.File, p.Plane)
			continue
		}
		base := BaseName(p.File, p.Plane, perFile[p.Path] > 1)
		img, ks, err := e.SavePair(base, p.KSpace, p.Image)
		if err != nil {
			return written, fmt.Errorf("exporting %s: %w", p.File, err)
		}
		logger.Debug("Saved %s and %s", img, ks)
		written = append(written, img, ks)
	}
	return written, nil
}
