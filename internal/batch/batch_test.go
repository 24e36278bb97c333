package batch

import (
	"context"
	"testing"

	"github.com/arx-os/roofpv/internal/pipeline"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsResultsInOrderForInvalidBuildings(t *testing.T) {
	buildings := []*roofmodel.Building{
		{ID: "a", Resolution: 1.0, Footprint: orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}},
		{ID: "b", Resolution: 1.0, Footprint: orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}},
	}

	cfg := DefaultConfig()
	cfg.Workers = 2
	results := Run(context.Background(), buildings, cfg, nil)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].BuildingID)
	assert.Equal(t, "b", results[1].BuildingID)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, pipeline.ExcludeNoRoofPlanesDetected, r.Reason)
	}
}

func TestRunHandlesEmptyBatch(t *testing.T) {
	results := Run(context.Background(), nil, DefaultConfig(), nil)
	assert.Empty(t, results)
}

func TestDefaultWorkersIsAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, defaultWorkers(), 1)
}
