package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"rawrecon/pkg/batch"
	"rawrecon/pkg/config"
	"rawrecon/pkg/visualization"
)

// outputFlags are the flags recon and watch share for selecting planes and export.
type outputFlags struct {
	pattern   string
	outDir    string
	format    string
	allPlanes bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pattern, "pattern", batch.DefaultPattern, "file name pattern (case-sensitive)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "directory to export images to")
	cmd.Flags().StringVar(&f.format, "format", "png", "export format: png, jpg or tiff")
	cmd.Flags().BoolVar(&f.allPlanes, "all-planes", false, "reconstruct every plane instead of the first")
}

// apply copies explicitly set flags over the configuration.
func (f *outputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("pattern") {
		cfg.Input.Pattern = f.pattern
	}
	if flags.Changed("out") {
		cfg.Output.Dir = f.outDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = f.format
	}
	if flags.Changed("all-planes") {
		cfg.Reconstruction.AllPlanes = f.allPlanes
	}
}

func newReconCmd(opts *options) *cobra.Command {
	var (
		out     outputFlags
		workers int
	)

	cmd := &cobra.Command{
		Use:   "recon <dir>",
		Short: "Reconstruct every raw file in a directory",
		Long: `Reconstructs each matching raw file in the directory (not recursively).
Files that cannot be decoded are reported and skipped; the command only fails
when the directory itself cannot be processed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out.apply(cmd, cfg)
			if cmd.Flags().Changed("workers") {
				cfg.Processing.NumWorkers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runRecon(cmd, cfg, args[0])
		},
	}

	out.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "files processed at once (default: all cores)")
	return cmd
}

func runRecon(cmd *cobra.Command, cfg *config.Config, dir string) error {
	var exporter *visualization.Exporter
	if cfg.Output.Dir != "" {
		var err error
		if exporter, err = visualization.NewExporter(cfg.Output.Dir, cfg.Output.Format, cfg.Output.LogKSpace); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	proc := batch.NewProcessor(cfg.BatchParams())
	start := time.Now()
	res, err := proc.Run(ctx, dir)
	if err != nil {
		return fmt.Errorf("reconstruction failed: %w", err)
	}
	elapsed := time.Since(start)

	printPairs(cmd, res.Pairs)
	printFailures(cmd, res.Failures)

	files := make(map[string]bool)
	for _, p := range res.Pairs {
		files[p.Path] = true
	}
	cmd.Printf("\nReconstructed %d planes from %d files (%d failed) in %.2f seconds using %d workers\n",
		len(res.Pairs), len(files), len(res.Failures), elapsed.Seconds(), proc.Params().NumWorkers)

	if exporter != nil {
		written, err := exporter.SavePairs(res.Pairs)
		if err != nil {
			return err
		}
		cmd.Printf("Saved %d %s images to %s\n", len(written), exporter.Ext(), cfg.Output.Dir)
	}
	return nil
}

func printPairs(cmd *cobra.Command, pairs []batch.Pair) {
	for _, p := range pairs {
		cmd.Printf("%s %s %dx%d %s\n", p.File, p.Plane, p.Image.Rows, p.Image.Cols, visualization.Stats(p.Image))
	}
}

func printFailures(cmd *cobra.Command, failures []batch.Failure) {
	if len(failures) == 0 {
		return
	}
	cmd.Printf("\nFailed files:\n")
	for _, f := range failures {
		cmd.Printf("- %s [%s]: %v\n", f.File, f.Kind, f.Err)
	}
}
