// Command roofpv is the thin CLI shell spec.md §1 calls an external
// collaborator: it owns file ingestion/output format and process wiring,
// never the core algorithm. Grounded on the teacher's cmd/arx/main.go
// root-command construction (SilenceUsage/SilenceErrors, a package-level
// rootCmd, per-subcommand files).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roofpv",
	Short: "Roof-plane detection and polygonisation for PV potential estimation",
	Long: `roofpv segments airborne LiDAR elevation rasters and building
footprints into non-overlapping, footprint-constrained roof plane polygons
with fitted plane geometry and quality statistics.

It does not do irradiance simulation, panel layout, or economic evaluation;
those are downstream of this tool's output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "roofpv:", err)
		os.Exit(1)
	}
}
