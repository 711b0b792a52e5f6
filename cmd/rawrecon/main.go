// Command rawrecon decodes spectrometer raw k-space files and reconstructs
// magnitude images from them.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
