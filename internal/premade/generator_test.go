package premade

import (
	"testing"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatRoofBuilding() *roofmodel.Building {
	var pixels []roofmodel.Pixel
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			pixels = append(pixels, roofmodel.Pixel{X: float64(x), Y: float64(y), Z: 5.0})
		}
	}
	return &roofmodel.Building{
		ID:         "b1",
		Resolution: 1.0,
		Pixels:     pixels,
		Footprint:  orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
	}
}

func TestGenerateProducesCandidatesForFlatRoof(t *testing.T) {
	candidates, err := Generate(flatRoofBuilding(), DefaultSubSegmentSpecs())
	require.NoError(t, err)
	assert.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Pixels)
	}
}

func TestGenerateEmptyBuildingReturnsNoCandidates(t *testing.T) {
	b := &roofmodel.Building{ID: "empty", Resolution: 1.0}
	candidates, err := Generate(b, DefaultSubSegmentSpecs())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDBSCAN1DSeparatesHeightClusters(t *testing.T) {
	values := []float64{
		0, 0.1, 0.2, 0.15, 0.05, // dense cluster near 0 (5 points)
		5.0, 5.1, 5.2, 5.0, 5.05, // dense cluster near 5 (5 points)
		50.0, // lone outlier
	}
	labels := dbscan1D(values, heightClusterEps, heightClusterMinSamples)
	// The two dense clusters near 0 and 5 should share labels within each
	// group and differ across groups; the lone outlier at 50 is noise.
	assert.Equal(t, noiseLabel, labels[10])
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[1], labels[2])
	assert.NotEqual(t, labels[0], labels[5])
}

func TestMergeByMeanThresholdGroupsCloseMeans(t *testing.T) {
	sps := []superpixel{{idxs: []int{0}, mean: 10}, {idxs: []int{1}, mean: 12}, {idxs: []int{2}, mean: 40}}
	merged := mergeByMeanThreshold(sps, 5)
	assert.Len(t, merged, 2)
}
