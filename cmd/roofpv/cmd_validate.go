package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/arx-os/roofpv/internal/config"
	"github.com/arx-os/roofpv/internal/ingest"
)

var (
	validateBuildingsDir string
	validateConfigPath   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate building input files and configuration without fitting",
	Long: `Checks that --buildings holds well-formed footprint/pixel pairs (a
closed polygon ring, a non-empty pixel set, no NaN coordinates) and that
--config (if given) satisfies internal/config.Validate, without running any
plane fitting. Exit status is non-zero if any building or the configuration
fails validation.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateBuildingsDir, "buildings", "", "directory of <id>.footprint.geojson / <id>.pixels.csv pairs (required)")
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "", "YAML configuration file (optional)")
	_ = validateCmd.MarkFlagRequired("buildings")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(validateConfigPath)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	buildings, err := ingest.LoadBuildings(validateBuildingsDir, cfg.ResolutionMetres)
	if err != nil {
		return fmt.Errorf("loading buildings: %w", err)
	}

	var problems []string
	for _, b := range buildings {
		if len(b.Footprint) == 0 || len(b.Footprint[0]) < 4 {
			problems = append(problems, fmt.Sprintf("%s: footprint ring has fewer than 4 points", b.ID))
			continue
		}
		first, last := b.Footprint[0][0], b.Footprint[0][len(b.Footprint[0])-1]
		if first != last {
			problems = append(problems, fmt.Sprintf("%s: footprint ring is not closed", b.ID))
		}
		if len(b.Pixels) == 0 {
			problems = append(problems, fmt.Sprintf("%s: pixel set is empty", b.ID))
		}
		for _, p := range b.Pixels {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
				problems = append(problems, fmt.Sprintf("%s: NaN pixel coordinate", b.ID))
				break
			}
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Println("INVALID:", p)
		}
		return fmt.Errorf("%d validation problem(s) found", len(problems))
	}

	fmt.Printf("roofpv: %d buildings valid\n", len(buildings))
	return nil
}
