package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rawrecon/internal/logger"
	"rawrecon/pkg/rawfile"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Print the header of raw files",
		Long: `Prints the acquisition extents and data type of each raw file and whether
the file holds the whole payload its header declares. The payload is not decoded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				info, err := rawfile.Inspect(path)
				if err != nil {
					logger.Error("%s: %v", path, err)
					failed++
					continue
				}
				printInfo(cmd, info)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be read", failed, len(args))
			}
			return nil
		},
	}
}

func printInfo(cmd *cobra.Command, info rawfile.FileInfo) {
	h := info.Header
	cmd.Printf("%s\n", info.Path)
	cmd.Printf("  data type:       %s (0x%02X)\n", h.DataType, uint16(h.DataType))
	cmd.Printf("  samples:         %d\n", h.SampleCount)
	cmd.Printf("  views:           %d\n", h.ViewCount)
	cmd.Printf("  views/secondary: %d\n", h.ViewsPerSecondarySet)
	cmd.Printf("  slices:          %d\n", h.SliceCount)
	cmd.Printf("  echoes:          %d\n", h.EchoCount)
	cmd.Printf("  experiments:     %d\n", h.ExperimentCount)
	if info.HeaderErr != nil {
		cmd.Printf("  payload:         %v\n", info.HeaderErr)
		return
	}

	status := "complete"
	if !info.Complete() {
		status = "incomplete"
	}
	cmd.Printf("  points:          %d\n", info.TotalPoints)
	cmd.Printf("  payload bytes:   %d\n", info.PayloadBytes)
	cmd.Printf("  file size:       %d (%s)\n", info.Size, status)
}
