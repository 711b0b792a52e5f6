package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"rawrecon/internal/logger"
	"rawrecon/pkg/batch"
	"rawrecon/pkg/config"
	"rawrecon/pkg/visualization"
	"rawrecon/pkg/watch"
)

func newWatchCmd(opts *options) *cobra.Command {
	var (
		out    outputFlags
		settle time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Reconstruct raw files as they are written to a directory",
		Long: `Watches the directory and reconstructs each new matching file once it has
stopped changing. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out.apply(cmd, cfg)
			if cmd.Flags().Changed("settle") {
				cfg.Watch.SettleMillis = int(settle / time.Millisecond)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runWatch(cmd, cfg, args[0])
		},
	}

	out.register(cmd)
	cmd.Flags().DurationVar(&settle, "settle", 500*time.Millisecond, "how long a file must be unchanged before it is read")
	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config.Config, dir string) error {
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
	w := watch.New(proc, time.Duration(cfg.Watch.SettleMillis)*time.Millisecond)
	outcomes, err := w.Watch(ctx, dir)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for %s, press Ctrl+C to stop\n", dir, proc.Params().Pattern)

	processed, failed := 0, 0
	for o := range outcomes {
		processed++
		if !o.OK() {
			failed++
			f := o.Failure()
			cmd.Printf("- %s [%s]: %v\n", f.File, f.Kind, f.Err)
			continue
		}
		printPairs(cmd, o.Pairs)
		if exporter != nil {
			if _, err := exporter.SavePairs(o.Pairs); err != nil {
				logger.Error("%v", err)
			}
		}
	}

	cmd.Printf("Processed %d files (%d failed)\n", processed, failed)
	return nil
}
