package main

import (
	"go.uber.org/zap"

	"github.com/arx-os/roofpv/internal/batch"
	"github.com/arx-os/roofpv/internal/config"
	"github.com/arx-os/roofpv/internal/logging"
	"github.com/arx-os/roofpv/internal/overlap"
	"github.com/arx-os/roofpv/internal/pipeline"
	"github.com/arx-os/roofpv/internal/polygonize"
)

// newLogger picks the teacher's production-vs-development zap
// construction (internal/logging.New/NewDevelopment) based on the CLI's
// --verbose flag.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return logging.NewDevelopment()
	}
	return logging.New()
}

// batchConfigFromRoofpvConfig threads internal/config.Config's loaded
// values into the internal/batch/internal/pipeline stage configs, keeping
// the worker pool and RANSAC seed at their spec §5-documented defaults
// (the CLI has no flag for overriding those; they are a deliberate-
// redesign-only concern per spec §6).
func batchConfigFromRoofpvConfig(cfg *config.Config) batch.Config {
	batchCfg := batch.DefaultConfig()
	pipelineCfg := pipeline.DefaultConfig()

	pipelineCfg.Polygonize = polygonize.Config{
		MinDistToEdgeM:          cfg.MinDistToEdgeM,
		MaxRoofSlopeDegrees:     cfg.MaxRoofSlopeDegrees,
		MinRoofAreaM:            cfg.MinRoofAreaM,
		MinRoofDegreesFromNorth: cfg.MinRoofDegreesFromNorth,
		FlatRoofDegrees:         cfg.FlatRoofDegrees,
	}
	pipelineCfg.Overlap = overlap.DefaultConfig()

	batchCfg.Pipeline = pipelineCfg
	return batchCfg
}
