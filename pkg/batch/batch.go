// Package batch reconstructs every raw file in a directory, isolating per-file
// failures so that one corrupt file never aborts the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"rawrecon/internal/logger"
	"rawrecon/internal/models"
	"rawrecon/pkg/kspace"
	"rawrecon/pkg/rawfile"
	"rawrecon/pkg/reconstruction"
)

// DefaultPattern matches raw acquisition files. Matching is case-sensitive.
const DefaultPattern = "*.raw"

// Params configures a batch run.
type Params struct {
	// Pattern is a filepath.Match pattern applied to file names. Empty means DefaultPattern.
	Pattern string

	// NumWorkers is how many files are processed at once. Zero or less means runtime.NumCPU().
	NumWorkers int

	// Reconstruction selects which planes of each volume are reconstructed.
	Reconstruction reconstruction.Params
}

// Pair is one reconstructed plane of one file.
type Pair struct {
	File   string
	Path   string
	Header rawfile.Header
	Plane  kspace.Plane
	KSpace models.KSpaceSlice
	Image  models.Image
}

// Failure records why a file was left out of the result.
type Failure struct {
	File string
	Path string
	Kind string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s [%s]: %v", f.File, f.Kind, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Outcome is the result of processing a single file: either Pairs or Err.
type Outcome struct {
	File  string
	Path  string
	Pairs []Pair
	Err   error
}

// OK reports whether the file was reconstructed.
func (o Outcome) OK() bool { return o.Err == nil }

// Failure converts a failed outcome to a Failure.
func (o Outcome) Failure() Failure {
	return Failure{File: o.File, Path: o.Path, Kind: Kind(o.Err), Err: o.Err}
}

// Result holds the pairs of every successful file in processing order, and the
// failures. Failed files contribute no pairs.
type Result struct {
	Pairs    []Pair
	Failures []Failure
}

// Processor runs the decode and reconstruct pipeline over a directory.
type Processor struct {
	params Params
}

// NewProcessor creates a processor. A nil params uses the defaults.
func NewProcessor(params *Params) *Processor {
	p := &Processor{}
	if params != nil {
		p.params = *params
	}
	if p.params.Pattern == "" {
		p.params.Pattern = DefaultPattern
	}
	if p.params.NumWorkers <= 0 {
		p.params.NumWorkers = runtime.NumCPU()
	}
	return p
}

// Params returns the effective parameters.
func (p *Processor) Params() Params {
	return p.params
}

// Match reports whether a file name matches the processor's pattern.
func (p *Processor) Match(name string) bool {
	ok, err := filepath.Match(p.params.Pattern, name)
	return err == nil && ok
}

// ListFiles returns the paths of matching files directly inside dir, in the order
// the directory lists them. Subdirectories are not searched.
func (p *Processor) ListFiles(dir string) ([]string, error) {
	if _, err := filepath.Match(p.params.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", p.params.Pattern, err)
	}

	d, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening input directory: %w", err)
	}
	defer d.Close()

	// (*os.File).ReadDir keeps directory order; os.ReadDir would sort.
	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !p.Match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if e.Type()&fs.ModeSymlink != 0 {
			st, err := os.Stat(path)
			if err != nil || st.IsDir() {
				continue
			}
		}
		files = append(files, path)
	}
	return files, nil
}

// Run processes every matching file in dir. Per-file failures are logged and
// collected in Result.Failures. Run itself fails only if dir cannot be listed or
// ctx is cancelled.
func (p *Processor) Run(ctx context.Context, dir string) (*Result, error) {
	files, err := p.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	logger.Section("Batch")
	logger.Info("Found %d files matching %s in %s", len(files), p.params.Pattern, dir)

	outcomes := make([]Outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.params.NumWorkers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.ProcessFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Collect(outcomes), nil
}

// Collect folds outcomes into a Result, logging each failure.
func Collect(outcomes []Outcome) *Result {
	res := &Result{}
	for _, o := range outcomes {
		if !o.OK() {
			f := o.Failure()
			logger.Warn("failed to process %s [%s]: %v", f.File, f.Kind, f.Err)
			res.Failures = append(res.Failures, f)
			continue
		}
		res.Pairs = append(res.Pairs, o.Pairs...)
	}
	return res
}

// ProcessFile runs header read, decode, assembly and reconstruction on one file.
// The file is opened and closed within the call.
func (p *Processor) ProcessFile(path string) Outcome {
	out := Outcome{File: filepath.Base(path), Path: path}

	h, samples, err := rawfile.ReadFile(path)
	if err != nil {
		out.Err = err
		return out
	}
	logger.Info("Processing %s, params: %s", out.File, h)

	vol, err := kspace.Assemble(samples, h)
	if err != nil {
		out.Err = err
		return out
	}

	results, err := reconstruction.NewReconstructor(&p.params.Reconstruction).Process(vol)
	if err != nil {
		out.Err = err
		return out
	}

	for _, r := range results {
		logger.Debug("%s plane %s: k-space %dx%d", out.File, r.Plane, r.KSpace.Rows, r.KSpace.Cols)
		out.Pairs = append(out.Pairs, Pair{
			File:   out.File,
			Path:   path,
			Header: h,
			Plane:  r.Plane,
			KSpace: r.KSpace,
			Image:  r.Image,
		})
	}
	return out
}

// Kind names the error kind of a per-file failure.
func Kind(err error) string {
	switch {
	case errors.Is(err, rawfile.ErrTruncatedHeader):
		return "TruncatedHeader"
	case errors.Is(err, rawfile.ErrShortRead):
		return "ShortRead"
	case errors.Is(err, rawfile.ErrUnknownDataType):
		return "UnknownDataType"
	case errors.Is(err, kspace.ErrDimensionMismatch):
		return "DimensionMismatch"
	case errors.Is(err, rawfile.ErrDimensionOverflow):
		return "DimensionOverflow"
	case errors.Is(err, kspace.ErrIndexOutOfRange):
		return "IndexOutOfRange"
	default:
		return "IO"
	}
}
