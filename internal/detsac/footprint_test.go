package detsac

import (
	"testing"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rectFootprint() orb.Polygon {
	return orb.Polygon{{{0, 0}, {10, 0}, {10, 20}, {0, 20}, {0, 0}}}
}

func TestFootprintAzimuthsIncludesCardinalDirections(t *testing.T) {
	azimuths := FootprintAzimuths(rectFootprint())
	require.NotEmpty(t, azimuths)

	seen := map[float64]bool{}
	for _, az := range azimuths {
		seen[az.Bearing] = true
	}
	// A north-south/east-west rectangle's segment bearings plus their
	// +90/180/270 offsets should cover all four cardinal directions.
	assert.True(t, seen[0] || seen[180])
	assert.True(t, seen[90] || seen[270])
}

func TestSnapAspectFindsNearbyCardinalAzimuth(t *testing.T) {
	azimuths := FootprintAzimuths(rectFootprint())
	centroid := roofmodel.Pixel{X: 5, Y: 19.5} // near the top edge, midpoint (5,20)
	snapped, ok := SnapAspect(azimuths, 0, roofmodel.AzimuthAlignmentThreshold, centroid)
	require.True(t, ok)
	assert.Equal(t, 0.0, snapped)
}

func TestSnapAspectFailsWhenNoAzimuthWithinTolerance(t *testing.T) {
	azimuths := FootprintAzimuths(rectFootprint())
	centroid := roofmodel.Pixel{X: 5, Y: 10}
	_, ok := SnapAspect(azimuths, 45, 5, centroid)
	assert.False(t, ok)
}

func TestCentroidOfSquareIsItsCenter(t *testing.T) {
	pixels := []roofmodel.Pixel{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	c := Centroid(pixels)
	assert.InDelta(t, 5, c.X, 1e-9)
	assert.InDelta(t, 5, c.Y, 1e-9)
}

func TestCentroidOfEmptyPixelsIsZero(t *testing.T) {
	c := Centroid(nil)
	assert.Equal(t, roofmodel.Pixel{}, c)
}
