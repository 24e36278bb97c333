package pipeline

import (
	"testing"

	"github.com/arx-os/roofpv/internal/merge"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsEmptyPixelSet(t *testing.T) {
	building := &roofmodel.Building{
		ID:         "b1",
		Resolution: 1.0,
		Footprint:  orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
	}
	polys, reason, err := Run(building, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, polys)
	assert.Equal(t, ExcludeNoRoofPlanesDetected, reason)
}

func TestRunRejectsDegenerateFootprint(t *testing.T) {
	building := &roofmodel.Building{
		ID:         "b1",
		Resolution: 1.0,
		Footprint:  orb.Polygon{{{0, 0}, {1, 0}}},
		Pixels:     []roofmodel.Pixel{{Row: 0, Col: 0, X: 0.5, Y: 0.5, Z: 3}},
	}
	polys, reason, err := Run(building, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, polys)
	assert.Equal(t, ExcludeNoRoofPlanesDetected, reason)
}

func TestRunRejectsNonPositiveResolution(t *testing.T) {
	building := &roofmodel.Building{
		ID:        "b1",
		Footprint: orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
		Pixels:    []roofmodel.Pixel{{Row: 0, Col: 0, X: 0.5, Y: 0.5, Z: 3}},
	}
	polys, reason, err := Run(building, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, polys)
	assert.Equal(t, ExcludeNoRoofPlanesDetected, reason)
}

func TestPlaneFromNodeCopiesFields(t *testing.T) {
	node := &merge.Node{
		PlaneID:   "flat_1",
		PlaneType: "segmented_aspect",
		Pixels:    []roofmodel.Pixel{{Row: 0, Col: 0, X: 0.5, Y: 0.5, Z: 3}},
		Fit:       roofmodel.FitResult{Aspect: 180},
		IsFlat:    true,
		Aspect:    180,
	}
	plane := planeFromNode(node)
	assert.Equal(t, node.PlaneID, plane.PlaneID)
	assert.Equal(t, node.PlaneType, plane.PlaneType)
	assert.Equal(t, node.Pixels, plane.Inliers)
	assert.True(t, plane.IsFlat)
	assert.Equal(t, 180.0, plane.AspectRaw)
}
