package polygonize

import (
	"image"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// CentroidOf returns a ring's vertex-average centroid. Good enough as the
// rotation pivot for the aspect-alignment step: spec §4.7 step 4 only
// needs a stable, deterministic pivot, not the area centroid.
func CentroidOf(ring orb.Ring) orb.Point {
	pts := ring
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}
}

// RotateRing rotates every vertex of ring by angleDegrees (clockwise,
// matching the compass-bearing aspect convention) around pivot.
func RotateRing(ring orb.Ring, pivot orb.Point, angleDegrees float64) orb.Ring {
	rad := angleDegrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		dx, dy := p[0]-pivot[0], p[1]-pivot[1]
		// Clockwise rotation in a standard x-right/y-up plane.
		rx := dx*cos + dy*sin
		ry := -dx*sin + dy*cos
		out[i] = orb.Point{pivot[0] + rx, pivot[1] + ry}
	}
	return out
}

// BBox returns a ring's axis-aligned bounding envelope, as a closed ring.
func BBox(ring orb.Ring) orb.Ring {
	minX, minY := ring[0][0], ring[0][1]
	maxX, maxY := minX, minY
	for _, p := range ring {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	return orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}
}

// MaskGrid rasterises ring onto a coverage mask spanning its own bounding
// box at the given cell size, returning the covered cells keyed by
// (row,col) in that local grid, the grid's top-left corner in world space,
// and the grid's width and height in cells.
func MaskGrid(ring orb.Ring, cellSize float64) (CellMask, orb.Point, int, int) {
	box := BBox(ring)
	xMin, yMin := box[0][0], box[0][1]
	xMax, yMax := box[2][0], box[2][1]
	w := int(math.Ceil((xMax-xMin)/cellSize)) + 1
	h := int(math.Ceil((yMax-yMin)/cellSize)) + 1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	origin := orb.Point{xMin, yMax}
	return RasterizeOnGrid(ring, origin, cellSize, w, h), origin, w, h
}

// RasterizeOnGrid rasterises ring onto an explicit (origin, cellSize, w, h)
// grid rather than its own bounding box — the primitive two rings need in
// common to be compared cell-for-cell, as internal/overlap's pairwise
// deconfliction does.
func RasterizeOnGrid(ring orb.Ring, origin orb.Point, cellSize float64, w, h int) CellMask {
	r := vector.NewRasterizer(w, h)
	toPix := func(pt orb.Point) (float32, float32) {
		return float32((pt[0] - origin[0]) / cellSize), float32((origin[1] - pt[1]) / cellSize)
	}
	x0, y0 := toPix(ring[0])
	r.MoveTo(x0, y0)
	for _, pt := range ring[1:] {
		x, y := toPix(pt)
		r.LineTo(x, y)
	}
	r.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	mask := CellMask{}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if dst.AlphaAt(col, row).A > 127 {
				mask[[2]int{row, col}] = true
			}
		}
	}
	return mask
}
