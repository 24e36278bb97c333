// Package messroof implements the messy-roof detector of spec §4.6: it
// rejects flat planes whose interior is dominated by obstacle-shaped
// holes, and drops a whole building's planes when the total obstacle
// fraction is overwhelming.
package messroof

import (
	"github.com/arx-os/roofpv/internal/merge"
	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// Result reports the messy-roof check's verdict for one building: the
// surviving planes and whether the whole building was dropped.
type Result struct {
	SurvivingPlanes []*merge.Node
	BuildingDropped bool
}

// Detect rebuilds the building's label image from the graph's surviving
// plane nodes, labels 4-connected obstacle groups that do not touch the
// image boundary, scores each flat plane's adjacent-obstacle fraction,
// and applies spec §4.6's per-plane and whole-building rejection rules.
// Does nothing (returns every plane, undropped) when no surviving plane
// is flat, since the detector only applies in that case.
func Detect(building *roofmodel.Building, g *merge.Graph) (Result, error) {
	planeNodes := g.PlaneNodes()

	hasFlat := false
	for _, n := range planeNodes {
		if n.IsFlat {
			hasFlat = true
			break
		}
	}
	if !hasFlat {
		return Result{SurvivingPlanes: planeNodes}, nil
	}

	img, rasterPixels, err := raster.Rasterise(building.Pixels, building.Resolution)
	if err != nil {
		return Result{}, err
	}

	nodeOf := make(map[[2]int]*merge.Node, len(rasterPixels))
	for _, n := range planeNodes {
		for _, p := range n.Pixels {
			nodeOf[[2]int{p.Row, p.Col}] = n
		}
	}

	isObstacleCandidate := func(pixelIdx int) bool {
		p := rasterPixels[pixelIdx]
		_, labelled := nodeOf[[2]int{p.Row, p.Col}]
		return !labelled
	}
	components := raster.Components(img, func(pixelIdx int) bool {
		return pixelIdx != raster.NoData && isObstacleCandidate(pixelIdx)
	})

	var obstacleGroups [][]raster.Cell
	for _, comp := range components {
		if !raster.TouchesBoundary(img, comp) {
			obstacleGroups = append(obstacleGroups, comp)
		}
	}

	// Each obstacle group's mess weight is attributed to whichever
	// surviving plane it is 4-adjacent to. A group touching more than one
	// plane contributes its full size to each (spec only specifies "mess
	// score adjacent to it", not an exclusive assignment rule).
	messByNode := map[merge.NodeID]int{}
	totalObstaclePixels := 0
	for _, comp := range obstacleGroups {
		totalObstaclePixels += len(comp)
		adjacentNodes := map[merge.NodeID]bool{}
		for _, cell := range comp {
			for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nr, nc := cell.Row+d[0], cell.Col+d[1]
				nidx := img.At(nr, nc)
				if nidx == raster.NoData {
					continue
				}
				np := rasterPixels[nidx]
				if n, ok := nodeOf[[2]int{np.Row, np.Col}]; ok {
					adjacentNodes[n.ID] = true
				}
			}
		}
		for id := range adjacentNodes {
			messByNode[id] += len(comp)
		}
	}

	var surviving []*merge.Node
	rejectedPixels := 0
	for _, n := range planeNodes {
		if !n.IsFlat {
			surviving = append(surviving, n)
			continue
		}
		messFraction := 0.0
		if len(n.Pixels) > 0 {
			messFraction = float64(messByNode[n.ID]) / float64(len(n.Pixels))
		}
		if messFraction > roofmodel.MessThreshold {
			rejectedPixels += len(n.Pixels)
			continue
		}
		surviving = append(surviving, n)
	}

	totalInliers := 0
	for _, n := range planeNodes {
		totalInliers += len(n.Pixels)
	}
	totalMessFraction := 0.0
	if totalInliers > 0 {
		totalMessFraction = float64(totalObstaclePixels+rejectedPixels) / float64(totalInliers)
	}
	if totalMessFraction >= roofmodel.TotalMessThreshold {
		return Result{BuildingDropped: true}, nil
	}

	return Result{SurvivingPlanes: surviving}, nil
}
