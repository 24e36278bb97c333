package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arx-os/roofpv/internal/batch"
	"github.com/arx-os/roofpv/internal/config"
	"github.com/arx-os/roofpv/internal/ingest"
	"github.com/arx-os/roofpv/internal/logging"
)

var (
	runBuildingsDir string
	runOutDir       string
	runConfigPath   string
	runVerbose      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the roof-plane pipeline over a directory of buildings",
	Long: `Loads one footprint/pixel-CSV pair per building from --buildings, runs
the full premade/DETSAC/RANSAC/merge/messy-roof/polygonise/deconflict
pipeline across a worker pool, and writes one GeoJSON FeatureCollection of
RoofPolygon per building into --out.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runBuildingsDir, "buildings", "", "directory of <id>.footprint.geojson / <id>.pixels.csv pairs (required)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "output directory for <id>.geojson results (required)")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "YAML configuration file (optional; defaults apply otherwise)")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "use a development (human-readable) logger instead of production JSON")
	_ = runCmd.MarkFlagRequired("buildings")
	_ = runCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(runVerbose)
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer logger.Sync()

	buildings, err := ingest.LoadBuildings(runBuildingsDir, cfg.ResolutionMetres)
	if err != nil {
		return fmt.Errorf("loading buildings: %w", err)
	}
	if len(buildings) == 0 {
		return fmt.Errorf("no buildings found under %s", runBuildingsDir)
	}

	batchCfg := batchConfigFromRoofpvConfig(cfg)
	results := batch.Run(context.Background(), buildings, batchCfg, logger)

	if err := ingest.WriteResults(runOutDir, results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	accepted, excluded, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case len(r.Polygons) == 0:
			excluded++
		default:
			accepted++
		}
	}
	fmt.Printf("roofpv: %d buildings processed (%d with roof planes, %d excluded, %d failed)\n",
		len(results), accepted, excluded, failed)
	return nil
}
