// main is the entry point of the fanpulse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fanpulse/fanpulse/cmd"
	"github.com/fanpulse/fanpulse/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()

	// Deferred work does not survive os.Exit, so release everything first
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "Error stopping profiling:", stopErr)
	}
	if closeErr := cmd.CloseSource(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Error closing source:", closeErr)
	}
	iocache.CloseStores()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
