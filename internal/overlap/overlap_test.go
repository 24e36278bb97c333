package overlap

import (
	"testing"

	"github.com/arx-os/roofpv/internal/polygonize"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

func intersectionArea(a, b orb.Ring) float64 {
	maskA, origin, w, h := polygonize.MaskGrid(a, 0.05)
	maskB := polygonize.RasterizeOnGrid(b, origin, 0.05, w, h)
	count := 0
	for cell := range maskA {
		if maskB[cell] {
			count++
		}
	}
	return float64(count) * 0.05 * 0.05
}

func TestDeconflictLeavesDisjointPolygonsUnchanged(t *testing.T) {
	polys := []roofmodel.RoofPolygon{
		{ID: "a", Polygon: orb.Polygon{square(0, 0, 5, 5)}},
		{ID: "b", Polygon: orb.Polygon{square(10, 10, 15, 15)}},
	}
	out := Deconflict(polys, DefaultConfig())
	assert.Equal(t, polys[0].Polygon, out[0].Polygon)
	assert.Equal(t, polys[1].Polygon, out[1].Polygon)
}

func TestDeconflictContainmentSubtractsFromLarger(t *testing.T) {
	polys := []roofmodel.RoofPolygon{
		{ID: "big", Polygon: orb.Polygon{square(0, 0, 10, 10)}},
		{ID: "small", Polygon: orb.Polygon{square(3, 3, 5, 5)}},
	}
	out := Deconflict(polys, DefaultConfig())

	// The contained polygon is untouched.
	assert.InDelta(t, 4.0, polygonize.RingArea(out[1].Polygon[0]), 0.2)
	// The containing polygon loses roughly the small polygon's area.
	bigArea := polygonize.RingArea(out[0].Polygon[0])
	assert.Less(t, bigArea, 100.0)
	assert.Greater(t, bigArea, 90.0)

	overlap := intersectionArea(out[0].Polygon[0], out[1].Polygon[0])
	assert.InDelta(t, 0, overlap, 0.3)
}

func TestDeconflictPartialOverlapSplitsAlongFrontier(t *testing.T) {
	polys := []roofmodel.RoofPolygon{
		{ID: "left", Polygon: orb.Polygon{square(0, 0, 6, 4)}},
		{ID: "right", Polygon: orb.Polygon{square(4, 0, 10, 4)}},
	}
	out := Deconflict(polys, DefaultConfig())
	require.Len(t, out, 2)

	overlap := intersectionArea(out[0].Polygon[0], out[1].Polygon[0])
	assert.InDelta(t, 0, overlap, 0.3)

	// Both sides keep roughly their fair share; neither vanishes.
	areaLeft := polygonize.RingArea(out[0].Polygon[0])
	areaRight := polygonize.RingArea(out[1].Polygon[0])
	assert.Greater(t, areaLeft, 5.0)
	assert.Greater(t, areaRight, 5.0)
}
