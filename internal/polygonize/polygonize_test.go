package polygonize

import (
	"testing"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareBuilding(n int, margin float64) (*roofmodel.Building, []roofmodel.Pixel) {
	var pixels []roofmodel.Pixel
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			pixels = append(pixels, roofmodel.Pixel{Row: y, Col: x, X: float64(x) + 0.5, Y: float64(n-1-y) + 0.5, Z: 3.0})
		}
	}
	footprint := orb.Polygon{{
		{-margin, -margin}, {float64(n) + margin, -margin},
		{float64(n) + margin, float64(n) + margin}, {-margin, float64(n) + margin},
		{-margin, -margin},
	}}
	building := &roofmodel.Building{ID: "b1", Resolution: 1.0, Footprint: footprint, Pixels: pixels}
	return building, pixels
}

func TestBuildFlatSquareRoofIsUsable(t *testing.T) {
	building, inliers := squareBuilding(10, 1.0)
	plane := roofmodel.RoofPlane{
		PlaneID:   "flat_1",
		PlaneType: "segmented_aspect",
		Inliers:   inliers,
		IsFlat:    true,
		Fit:       roofmodel.FitResult{Aspect: 180},
	}

	cfg := DefaultConfig()
	result, ok, err := Build(building, plane, cfg)
	require.NoError(t, err)
	require.True(t, ok)

	area := RingArea(result.Polygon[0])
	assert.InDelta(t, 100.0, area, 5.0)
	assert.Equal(t, cfg.FlatRoofDegrees, result.Slope)
	assert.True(t, result.Usable)
	assert.Equal(t, roofmodel.NotUsableNone, result.NotUsableReason)
}

func TestBuildRejectsAreaBelowMinimum(t *testing.T) {
	building, inliers := squareBuilding(3, 1.0)
	plane := roofmodel.RoofPlane{
		PlaneID: "flat_tiny",
		Inliers: inliers,
		IsFlat:  true,
		Fit:     roofmodel.FitResult{Aspect: 180},
	}

	cfg := DefaultConfig()
	result, ok, err := Build(building, plane, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, result.Usable)
	assert.Equal(t, roofmodel.NotUsableArea, result.NotUsableReason)
}

func TestBuildRejectsAspectNearNorth(t *testing.T) {
	building, inliers := squareBuilding(10, 1.0)
	plane := roofmodel.RoofPlane{
		PlaneID: "pitched_1",
		Inliers: inliers,
		IsFlat:  false,
		Fit:     roofmodel.FitResult{A: 0.05, B: 0.01, Slope: 10, Aspect: 5},
	}

	cfg := DefaultConfig()
	result, ok, err := Build(building, plane, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, result.Usable)
	assert.Equal(t, roofmodel.NotUsableAspect, result.NotUsableReason)
}

func TestBuildDropsPlaneWhenFootprintConstraintEmptiesIt(t *testing.T) {
	building, inliers := squareBuilding(10, 1.0)
	// A footprint far from the pixel cloud leaves nothing after the
	// shrink-and-intersect step.
	building.Footprint = orb.Polygon{{{1000, 1000}, {1001, 1000}, {1001, 1001}, {1000, 1001}, {1000, 1000}}}
	plane := roofmodel.RoofPlane{PlaneID: "flat_1", Inliers: inliers, IsFlat: true, Fit: roofmodel.FitResult{Aspect: 180}}

	_, ok, err := Build(building, plane, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, ok)
}
