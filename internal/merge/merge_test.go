package merge

import (
	"testing"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatBuildingWithTwoAdjacentPlanes() (*roofmodel.Building, []roofmodel.RoofPlane) {
	var pixels []roofmodel.Pixel
	var leftInliers, rightInliers []roofmodel.Pixel
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			p := roofmodel.Pixel{Row: y, Col: x, X: float64(x), Y: float64(y), Z: 3.0}
			pixels = append(pixels, p)
			if x < 10 {
				leftInliers = append(leftInliers, p)
			} else {
				rightInliers = append(rightInliers, p)
			}
		}
	}
	building := &roofmodel.Building{
		ID:         "b1",
		Resolution: 1.0,
		Pixels:     pixels,
		Footprint:  orb.Polygon{{{0, 0}, {20, 0}, {20, 10}, {0, 10}, {0, 0}}},
	}
	planes := []roofmodel.RoofPlane{
		{
			PlaneID: "left", PlaneType: "segmented_aspect", Fit: roofmodel.FitResult{D: 3.0},
			Inliers: leftInliers, IsFlat: true,
			Stats: roofmodel.PlaneStatistics{MeanAbsoluteError: 0, R2: 1, InlierCount: len(leftInliers)},
		},
		{
			PlaneID: "right", PlaneType: "segmented_aspect", Fit: roofmodel.FitResult{D: 3.0},
			Inliers: rightInliers, IsFlat: true,
			Stats: roofmodel.PlaneStatistics{MeanAbsoluteError: 0, R2: 1, InlierCount: len(rightInliers)},
		},
	}
	return building, planes
}

func TestBuildLinksAdjacentPlaneNodes(t *testing.T) {
	building, planes := flatBuildingWithTwoAdjacentPlanes()
	g, err := Build(building, planes)
	require.NoError(t, err)
	assert.Len(t, g.PlaneNodes(), 2)

	foundEdge := false
	for _, pair := range g.edgePairs() {
		a, b := g.Nodes[pair[0]], g.Nodes[pair[1]]
		if a.IsPlane() && b.IsPlane() {
			foundEdge = true
		}
	}
	assert.True(t, foundEdge)
}

func TestMergeCombinesTwoCoplanarFlatPlanes(t *testing.T) {
	building, planes := flatBuildingWithTwoAdjacentPlanes()
	g, err := Build(building, planes)
	require.NoError(t, err)

	require.NoError(t, Merge(g))

	planeNodes := g.PlaneNodes()
	require.Len(t, planeNodes, 1)
	assert.Equal(t, "left+right", planeNodes[0].PlaneID)
	assert.Equal(t, 200, len(planeNodes[0].Pixels))
}

func TestMergeLeavesOutlierOutlierPairsUnmerged(t *testing.T) {
	building := &roofmodel.Building{
		ID:         "b2",
		Resolution: 1.0,
		Pixels: []roofmodel.Pixel{
			{Row: 0, Col: 0, X: 0, Y: 0, Z: 1},
			{Row: 0, Col: 1, X: 1, Y: 0, Z: 1},
		},
		Footprint: orb.Polygon{{{0, 0}, {2, 0}, {2, 1}, {0, 1}, {0, 0}}},
	}
	g, err := Build(building, nil)
	require.NoError(t, err)
	require.NoError(t, Merge(g))
	assert.Len(t, g.Nodes, 2)
}
