package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/arx-os/roofpv/internal/fixtures"
	"github.com/arx-os/roofpv/internal/pipeline"
	"github.com/arx-os/roofpv/internal/premade"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the pipeline over a fixture corpus and report per-stage timing",
	Long: `Runs every building in internal/fixtures' synthetic corpus (a flat roof, a
cardinal-axis gable, a messy roof, and a sub-minimum-pixel building) through
the pipeline, timing the premade-plane generation stage separately from the
full per-building run, following the teacher's internal/performance
benchmarking conventions.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
}

type benchRow struct {
	name        string
	pixels      int
	premadeTime time.Duration
	totalTime   time.Duration
	planes      int
	reason      string
}

func runBench(cmd *cobra.Command, args []string) error {
	corpus := fixtures.BenchCorpus()

	names := make([]string, 0, len(corpus))
	for name := range corpus {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]benchRow, 0, len(names))
	cfg := pipeline.DefaultConfig()

	for _, name := range names {
		building := corpus[name]

		premadeStart := time.Now()
		_, _ = premade.Generate(building, cfg.SubSegmentSpecs)
		premadeElapsed := time.Since(premadeStart)

		totalStart := time.Now()
		polys, reason, err := pipeline.Run(building, cfg, nil)
		totalElapsed := time.Since(totalStart)
		if err != nil {
			return fmt.Errorf("building %s: %w", name, err)
		}

		rows = append(rows, benchRow{
			name:        name,
			pixels:      len(building.Pixels),
			premadeTime: premadeElapsed,
			totalTime:   totalElapsed,
			planes:      len(polys),
			reason:      string(reason),
		})
	}

	fmt.Printf("%-14s %8s %12s %12s %8s %s\n", "building", "pixels", "premade", "total", "planes", "reason")
	for _, r := range rows {
		fmt.Printf("%-14s %8d %12s %12s %8d %s\n", r.name, r.pixels, r.premadeTime, r.totalTime, r.planes, r.reason)
	}
	return nil
}
