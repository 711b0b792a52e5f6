package main

import (
	"github.com/spf13/cobra"

	"rawrecon/internal/logger"
	"rawrecon/pkg/config"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "rawrecon",
		Short: "Decode raw k-space files and reconstruct MRI images",
		Long: `rawrecon reads spectrometer raw acquisition files, decodes their k-space
samples and reconstructs magnitude images by inverse 2-D Fourier transform.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetVerbose(opts.verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "rawrecon.yaml", "configuration file (YAML or TOML)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "print progress and per-file details")

	cmd.AddCommand(
		newReconCmd(opts),
		newInfoCmd(),
		newWatchCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// loadConfig reads the configuration file. A verbose setting in the file turns
// on verbose logging even without the flag.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Output.Verbose = true
	}
	logger.SetVerbose(cfg.Output.Verbose)
	return cfg, nil
}
