// Package overlap implements the overlap splitter of spec.md §4.8: it
// removes mutual intersection between a building's accepted roof polygons.
//
// Two strategies are used, matching the source's two-path design. A
// containment short-circuit handles the common case where one polygon's
// footprint is (almost) wholly inside the other's: the smaller is buffered
// and subtracted from the larger. Genuine partial overlaps instead go
// through a medial-axis split — the region of true intersection is divided
// between the two owners along the frontier equidistant from each
// polygon's exclusive area, which is the discrete-grid equivalent of a
// Voronoi split between two point sets (no vector Voronoi library appears
// anywhere in the retrieved corpus, so this package computes that frontier
// directly on the cell grid it already shares with internal/polygonize,
// rather than depending on one).
package overlap

import (
	"github.com/arx-os/roofpv/internal/polygonize"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Config holds the overlap-splitter thresholds of spec.md §4.8.
type Config struct {
	// ContainmentRatio is the fraction of the smaller polygon's area that,
	// if covered by the intersection, counts as containment.
	ContainmentRatio float64
	// MinComponentAreaM is the minimum overlap-component area worth
	// splitting; smaller slivers are left alone.
	MinComponentAreaM float64
	// BufferM is the buffer applied to a subtracted containment region.
	BufferM float64
	// CellSize is the raster resolution used for the set operations this
	// package performs (overlap, containment, frontier assignment).
	CellSize float64
}

// DefaultConfig returns spec.md §4.8's documented constants.
func DefaultConfig() Config {
	return Config{
		ContainmentRatio:  0.90,
		MinComponentAreaM: 0.25,
		BufferM:           0.05,
		CellSize:          0.05,
	}
}

type indexedRect struct {
	idx  int
	rect *rtreego.Rect
}

func (r *indexedRect) Bounds() *rtreego.Rect { return r.rect }

func boundsOf(ring orb.Ring) *rtreego.Rect {
	box := polygonize.BBox(ring)
	minX, minY := box[0][0], box[0][1]
	maxX, maxY := box[2][0], box[2][1]
	w, h := maxX-minX, maxY-minY
	if w <= 0 {
		w = 1e-6
	}
	if h <= 0 {
		h = 1e-6
	}
	rect, err := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{w, h})
	if err != nil {
		// Degenerate (zero-extent) ring; a minimal rect still indexes it.
		rect, _ = rtreego.NewRect(rtreego.Point{minX, minY}, []float64{1e-6, 1e-6})
	}
	return rect
}

// Deconflict removes pairwise overlap between the final polygons of polys,
// a single building's accepted roof polygons, and returns the deconflicted
// set. Spec.md §3's invariant — "pairwise intersection area between two
// roof polygons in the same building is 0 after deconfliction" — is this
// package's postcondition.
func Deconflict(polys []roofmodel.RoofPolygon, cfg Config) []roofmodel.RoofPolygon {
	if len(polys) < 2 {
		return polys
	}

	out := make([]roofmodel.RoofPolygon, len(polys))
	copy(out, polys)

	tree := rtreego.NewTree(2, 4, 16)
	for i := range out {
		if len(out[i].Polygon) == 0 {
			continue
		}
		tree.Insert(&indexedRect{idx: i, rect: boundsOf(out[i].Polygon[0])})
	}

	for i := range out {
		if len(out[i].Polygon) == 0 {
			continue
		}
		candidates := tree.SearchIntersect(boundsOf(out[i].Polygon[0]))
		for _, c := range candidates {
			j := c.(*indexedRect).idx
			if j <= i || len(out[j].Polygon) == 0 {
				continue
			}
			a, b, split := deconflictPair(out[i].Polygon[0], out[j].Polygon[0], cfg)
			if split {
				out[i].Polygon = orb.Polygon{a}
				out[j].Polygon = orb.Polygon{b}
			}
		}
	}
	return out
}

// deconflictPair resolves the overlap, if any, between ringA and ringB.
// split is false when the two rings don't meaningfully overlap, in which
// case ringA and ringB are returned unchanged.
func deconflictPair(ringA, ringB orb.Ring, cfg Config) (orb.Ring, orb.Ring, bool) {
	grid := sharedGrid(ringA, ringB, cfg.CellSize)
	maskA := polygonize.RasterizeOnGrid(ringA, grid.origin, grid.cellSize, grid.w, grid.h)
	maskB := polygonize.RasterizeOnGrid(ringB, grid.origin, grid.cellSize, grid.w, grid.h)

	overlap := intersect(maskA, maskB)
	if len(overlap) == 0 {
		return ringA, ringB, false
	}

	cellArea := cfg.CellSize * cfg.CellSize
	overlapArea := float64(len(overlap)) * cellArea
	areaA := float64(len(maskA)) * cellArea
	areaB := float64(len(maskB)) * cellArea

	smaller, larger := areaA, areaB
	if smaller > larger {
		smaller, larger = larger, smaller
	}
	if smaller > 0 && overlapArea/smaller >= cfg.ContainmentRatio {
		// Containment: subtract the overlap (buffered) from the larger
		// polygon only; the smaller (contained) polygon is untouched.
		buffered := bufferMask(overlap, cfg.BufferM/grid.cellSize)
		if areaA >= areaB {
			maskA = subtract(maskA, buffered)
		} else {
			maskB = subtract(maskB, buffered)
		}
	} else if overlapArea >= cfg.MinComponentAreaM {
		// Genuine partial overlap: split the overlap region along the
		// frontier equidistant from each polygon's exclusive area.
		exclusiveA := subtract(maskA, overlap)
		exclusiveB := subtract(maskB, overlap)
		toA, toB := splitByNearestOwner(overlap, exclusiveA, exclusiveB)
		buffA := bufferMask(toB, cfg.BufferM/grid.cellSize)
		buffB := bufferMask(toA, cfg.BufferM/grid.cellSize)
		maskA = subtract(maskA, buffA)
		maskB = subtract(maskB, buffB)
	} else {
		return ringA, ringB, false
	}

	maskA = largestComponent(maskA)
	maskB = largestComponent(maskB)
	if len(maskA) == 0 || len(maskB) == 0 {
		return ringA, ringB, false
	}

	outA, okA := polygonize.TraceBoundary(maskA, grid.origin[0], grid.origin[1], grid.cellSize)
	outB, okB := polygonize.TraceBoundary(maskB, grid.origin[0], grid.origin[1], grid.cellSize)
	if !okA || !okB {
		return ringA, ringB, false
	}
	return polygonize.Dezigzag(outA, grid.cellSize*0.5), polygonize.Dezigzag(outB, grid.cellSize*0.5), true
}

type grid struct {
	origin   orb.Point
	cellSize float64
	w, h     int
}

// sharedGrid computes the common raster grid both rings must be rasterised
// onto for their cell masks to be comparable cell-for-cell.
func sharedGrid(ringA, ringB orb.Ring, cellSize float64) grid {
	boxA, boxB := polygonize.BBox(ringA), polygonize.BBox(ringB)
	minX := minF(boxA[0][0], boxB[0][0])
	minY := minF(boxA[0][1], boxB[0][1])
	maxX := maxF(boxA[2][0], boxB[2][0])
	maxY := maxF(boxA[2][1], boxB[2][1])

	w := int((maxX-minX)/cellSize) + 2
	h := int((maxY-minY)/cellSize) + 2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return grid{origin: orb.Point{minX, maxY}, cellSize: cellSize, w: w, h: h}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func intersect(a, b polygonize.CellMask) polygonize.CellMask {
	out := polygonize.CellMask{}
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for cell := range small {
		if big[cell] {
			out[cell] = true
		}
	}
	return out
}

func subtract(a, b polygonize.CellMask) polygonize.CellMask {
	out := make(polygonize.CellMask, len(a))
	for cell := range a {
		if !b[cell] {
			out[cell] = true
		}
	}
	return out
}

// splitByNearestOwner assigns every cell of overlap to whichever of
// exclusiveA/exclusiveB is nearer, via a multi-source breadth-first search
// seeded from both exclusive regions simultaneously — the standard
// discrete construction of a Voronoi/medial-axis frontier between two
// point sets, done on the grid this package already shares with
// internal/polygonize instead of through a vector Voronoi routine.
func splitByNearestOwner(overlap, exclusiveA, exclusiveB polygonize.CellMask) (toA, toB polygonize.CellMask) {
	type queued struct {
		cell  [2]int
		owner int // 0 = A, 1 = B
	}
	dist := map[[2]int]int{}
	owner := map[[2]int]int{}
	var queue []queued
	for cell := range exclusiveA {
		if _, seen := dist[cell]; !seen {
			dist[cell] = 0
			owner[cell] = 0
			queue = append(queue, queued{cell, 0})
		}
	}
	for cell := range exclusiveB {
		if _, seen := dist[cell]; !seen {
			dist[cell] = 0
			owner[cell] = 1
			queue = append(queue, queued{cell, 1})
		}
	}

	neighbors := func(c [2]int) [][2]int {
		return [][2]int{{c[0] - 1, c[1]}, {c[0] + 1, c[1]}, {c[0], c[1] - 1}, {c[0], c[1] + 1}}
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		d := dist[cur.cell]
		for _, n := range neighbors(cur.cell) {
			if !overlap[n] && !exclusiveA[n] && !exclusiveB[n] {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = d + 1
			owner[n] = cur.owner
			queue = append(queue, queued{n, cur.owner})
		}
	}

	toA = polygonize.CellMask{}
	toB = polygonize.CellMask{}
	for cell := range overlap {
		if owner[cell] == 1 {
			toB[cell] = true
		} else {
			// Cells unreached by the search (isolated overlap pockets with
			// no exclusive-region neighbour) default to A, deterministically.
			toA[cell] = true
		}
	}
	return toA, toB
}

// bufferMask grows mask by radiusCells in each of the four axis directions,
// approximating the vector buffer spec.md §4.8 applies to a splitter piece
// before subtraction.
func bufferMask(mask polygonize.CellMask, radiusCells float64) polygonize.CellMask {
	r := int(radiusCells + 0.5)
	if r < 1 {
		return mask
	}
	out := make(polygonize.CellMask, len(mask))
	for cell := range mask {
		for dr := -r; dr <= r; dr++ {
			for dc := -r; dc <= r; dc++ {
				out[[2]int{cell[0] + dr, cell[1] + dc}] = true
			}
		}
	}
	return out
}

// largestComponent keeps only the largest 4-connected component of mask,
// mirroring internal/raster's connected-component selection but operating
// on a bare cell-coordinate mask rather than a rasterised pixel image.
func largestComponent(mask polygonize.CellMask) polygonize.CellMask {
	visited := map[[2]int]bool{}
	var best []([2]int)
	for cell := range mask {
		if visited[cell] {
			continue
		}
		var component []([2]int)
		queue := [][2]int{cell}
		visited[cell] = true
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			component = append(component, cur)
			for _, n := range [][2]int{{cur[0] - 1, cur[1]}, {cur[0] + 1, cur[1]}, {cur[0], cur[1] - 1}, {cur[0], cur[1] + 1}} {
				if mask[n] && !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		if len(component) > len(best) {
			best = component
		}
	}
	out := make(polygonize.CellMask, len(best))
	for _, cell := range best {
		out[cell] = true
	}
	return out
}
