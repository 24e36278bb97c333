package detsac

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestConvexHullOfSquareIsTheSquare(t *testing.T) {
	pts := []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}} // interior point must be dropped
	hull := ConvexHull(pts)
	assert.InDelta(t, 100.0, RingArea(hull), 1e-9)
}

func TestConvexHullRatioForSquareComponentIsOne(t *testing.T) {
	pts := []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	hull := ConvexHull(pts)
	ratio := ConvexHullRatio(RingArea(hull), RingArea(hull))
	assert.InDelta(t, 1.0, ratio, 1e-9)
}

func TestConvexHullRatioZeroHullAreaIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ConvexHullRatio(10, 0))
}

func TestBoundaryPerimeterOfSolidSquare(t *testing.T) {
	cells := map[[2]int]bool{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			cells[[2]int{r, c}] = true
		}
	}
	// A solid 3x3 block of unit cells has 12 exposed edges.
	assert.InDelta(t, 12.0, BoundaryPerimeter(cells, 1.0), 1e-9)
}

func TestThinnessRatioOfCompactShapeIsHigherThanSliver(t *testing.T) {
	compact := map[[2]int]bool{}
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			compact[[2]int{r, c}] = true
		}
	}
	sliver := map[[2]int]bool{}
	for c := 0; c < 25; c++ {
		sliver[[2]int{0, c}] = true
	}

	compactPerim := BoundaryPerimeter(compact, 1.0)
	sliverPerim := BoundaryPerimeter(sliver, 1.0)
	compactThinness := ThinnessRatio(25, compactPerim)
	sliverThinness := ThinnessRatio(25, sliverPerim)
	assert.Greater(t, compactThinness, sliverThinness)
}

func TestThinnessThresholdIncreasesForSmallerComponents(t *testing.T) {
	assert.Greater(t, ThinnessThreshold(10), ThinnessThreshold(1000))
}
