package messroof

import (
	"testing"

	"github.com/arx-os/roofpv/internal/merge"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildingWithHole(n, holeSize int) (*roofmodel.Building, []roofmodel.RoofPlane) {
	var pixels, inliers []roofmodel.Pixel
	holeStart := (n - holeSize) / 2
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p := roofmodel.Pixel{Row: y, Col: x, X: float64(x), Y: float64(y), Z: 3.0}
			pixels = append(pixels, p)
			inHole := x >= holeStart && x < holeStart+holeSize && y >= holeStart && y < holeStart+holeSize
			if !inHole {
				inliers = append(inliers, p)
			}
		}
	}
	building := &roofmodel.Building{
		ID: "b1", Resolution: 1.0, Pixels: pixels,
		Footprint: orb.Polygon{{{0, 0}, {float64(n), 0}, {float64(n), float64(n)}, {0, float64(n)}, {0, 0}}},
	}
	planes := []roofmodel.RoofPlane{
		{PlaneID: "flat1", IsFlat: true, Inliers: inliers},
	}
	return building, planes
}

func TestDetectKeepsFlatPlaneWithSmallInteriorHole(t *testing.T) {
	// 20x20 building with a 6x6 interior hole: hole area 36 vs plane
	// inlier count 364 -> mess fraction ~10%, under the 14% threshold, so
	// this first case should survive; bump the hole to establish contrast
	// in the next test.
	building, planes := buildingWithHole(20, 6)
	g, err := merge.Build(building, planes)
	require.NoError(t, err)

	result, err := Detect(building, g)
	require.NoError(t, err)
	assert.False(t, result.BuildingDropped)
	assert.Len(t, result.SurvivingPlanes, 1)
}

func TestDetectDropsWholeBuildingWhenSoleFlatPlaneIsRejectedAsMessy(t *testing.T) {
	// A 10x10 interior hole against a 300-pixel plane (33% mess) gets the
	// plane itself rejected; with no other plane to absorb the building's
	// inliers, total mess (obstacle pixels + the rejected plane's own
	// pixels) over total inliers comfortably clears the 85% building-drop
	// threshold too.
	building, planes := buildingWithHole(20, 10)
	g, err := merge.Build(building, planes)
	require.NoError(t, err)

	result, err := Detect(building, g)
	require.NoError(t, err)
	assert.True(t, result.BuildingDropped)
	assert.Empty(t, result.SurvivingPlanes)
}

func TestDetectSkipsCheckWhenNoFlatPlanesSurvive(t *testing.T) {
	building, planes := buildingWithHole(20, 6)
	planes[0].IsFlat = false
	g, err := merge.Build(building, planes)
	require.NoError(t, err)

	result, err := Detect(building, g)
	require.NoError(t, err)
	assert.Len(t, result.SurvivingPlanes, 1)
}
