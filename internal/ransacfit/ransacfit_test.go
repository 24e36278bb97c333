package ransacfit

import (
	"testing"

	"github.com/arx-os/roofpv/internal/detsac"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatRoofBuilding(n int) *roofmodel.Building {
	var pixels []roofmodel.Pixel
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			pixels = append(pixels, roofmodel.Pixel{Row: y, Col: x, X: float64(x), Y: float64(y), Z: 3.0})
		}
	}
	return &roofmodel.Building{
		ID:         "b1",
		Resolution: 1.0,
		Pixels:     pixels,
		Footprint:  orb.Polygon{{{0, 0}, {float64(n), 0}, {float64(n), float64(n)}, {0, float64(n)}, {0, 0}}},
	}
}

func TestFitAcceptsAPlaneOnAFlatRoof(t *testing.T) {
	building := flatRoofBuilding(12)
	azimuths := detsac.FootprintAzimuths(building.Footprint)
	skipPlanes := map[string]bool{}

	plane, ok, err := Fit(building, 42, skipPlanes, azimuths)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, plane.IsFlat)
	assert.Equal(t, "b1", plane.BuildingID)
	assert.NotEmpty(t, plane.Inliers)
}

func TestFitIsDeterministicForAFixedSeed(t *testing.T) {
	b1 := flatRoofBuilding(12)
	b2 := flatRoofBuilding(12)
	azimuths := detsac.FootprintAzimuths(b1.Footprint)

	p1, ok1, err1 := Fit(b1, 7, map[string]bool{}, azimuths)
	p2, ok2, err2 := Fit(b2, 7, map[string]bool{}, azimuths)
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, ok1, ok2)
	assert.Equal(t, p1.PlaneID, p2.PlaneID)
	assert.Equal(t, len(p1.Inliers), len(p2.Inliers))
}

func TestFitReturnsFalseWithFewerThanThreeAvailablePixels(t *testing.T) {
	building := &roofmodel.Building{
		ID:         "tiny",
		Resolution: 1.0,
		Pixels: []roofmodel.Pixel{
			{Row: 0, Col: 0, X: 0, Y: 0, Z: 1},
			{Row: 0, Col: 1, X: 1, Y: 0, Z: 1},
		},
		Footprint: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
	}
	_, ok, err := Fit(building, 1, map[string]bool{}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShouldAttemptRespectsPixelBudget(t *testing.T) {
	building := flatRoofBuilding(3) // 9 pixels, min_points 8 -> budget 40 not met
	assert.False(t, ShouldAttempt(building, 8))

	big := flatRoofBuilding(12) // 144 pixels
	assert.True(t, ShouldAttempt(big, 8))
}

func TestMaxTrialsForTiersByArea(t *testing.T) {
	assert.Equal(t, roofmodel.RansacSmallMaxTrials, maxTrialsFor(50))
	assert.Equal(t, roofmodel.RansacMediumMaxTrials, maxTrialsFor(500))
	assert.Equal(t, roofmodel.RansacLargeMaxTrials, maxTrialsFor(5000))
}
