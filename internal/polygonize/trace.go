package polygonize

import (
	"math"

	"github.com/paulmach/orb"
)

// vertex is a grid-corner coordinate in (col,row) integer space: column c,
// row r corresponds to the corner shared by pixel (r,c)'s top-left and its
// three neighbours.
type vertex struct{ c, r int }

// CellMask is the set of (row,col) grid cells a polygon currently covers.
type CellMask map[[2]int]bool

// TraceBoundary converts a cell mask into a single closed rectilinear
// ring in world coordinates, by walking clockwise around each masked
// cell's exposed sides (the side borders an unmasked or out-of-mask
// neighbour) and stitching the resulting unit edges head-to-tail. If the
// mask produces more than one disjoint loop (possible at diagonal
// pinch-points, or when the mask itself is disconnected), the loop
// enclosing the largest area is kept as the outer boundary — holes are not
// modelled, since every mask this package traces has already been reduced
// to pixels roof-plane fitting and footprint-constraint accepted as solid
// roof surface.
func TraceBoundary(mask CellMask, xMin, yMax, resolution float64) (orb.Ring, bool) {
	if len(mask) == 0 {
		return nil, false
	}

	edges := map[vertex]vertex{} // edge start -> edge end
	for cell := range mask {
		r, c := cell[0], cell[1]
		if !mask[[2]int{r - 1, c}] { // north side exposed
			edges[vertex{c, r}] = vertex{c + 1, r}
		}
		if !mask[[2]int{r, c + 1}] { // east side exposed
			edges[vertex{c + 1, r}] = vertex{c + 1, r + 1}
		}
		if !mask[[2]int{r + 1, c}] { // south side exposed
			edges[vertex{c + 1, r + 1}] = vertex{c, r + 1}
		}
		if !mask[[2]int{r, c - 1}] { // west side exposed
			edges[vertex{c, r + 1}] = vertex{c, r}
		}
	}
	if len(edges) == 0 {
		return nil, false
	}

	remaining := make(map[vertex]vertex, len(edges))
	for a, b := range edges {
		remaining[a] = b
	}

	var loops [][]vertex
	for len(remaining) > 0 {
		var start vertex
		for v := range remaining {
			start = v
			break
		}
		loop := []vertex{start}
		cur := start
		for {
			next, ok := remaining[cur]
			if !ok {
				break
			}
			delete(remaining, cur)
			if next == start {
				break
			}
			loop = append(loop, next)
			cur = next
		}
		loops = append(loops, loop)
	}

	best := loops[0]
	bestArea := -1.0
	for _, loop := range loops {
		ring := toWorldRing(loop, xMin, yMax, resolution)
		a := RingArea(ring)
		if a > bestArea {
			bestArea = a
			best = loop
		}
	}

	return toWorldRing(best, xMin, yMax, resolution), true
}

func toWorldRing(loop []vertex, xMin, yMax, resolution float64) orb.Ring {
	ring := make(orb.Ring, 0, len(loop)+1)
	for _, v := range loop {
		x := xMin + float64(v.c)*resolution
		y := yMax - float64(v.r)*resolution
		ring = append(ring, orb.Point{x, y})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// RingArea returns the absolute shoelace area of a ring.
func RingArea(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	area := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += ring[i][0] * ring[j][1]
		area -= ring[j][0] * ring[i][1]
	}
	if area < 0 {
		area = -area
	}
	return area / 2
}

// Dezigzag simplifies a rectilinear ring two ways: first it folds
// consecutive collinear edges into one, then it collapses "staircase"
// runs — sequences of alternating perpendicular edges of near-equal
// length, the stair-stepped artefact of tracing a pixel-square union —
// into a single straight segment spanning the run. tolerance is the
// length difference (metres) below which two edges are considered part of
// the same staircase tread.
func Dezigzag(ring orb.Ring, tolerance float64) orb.Ring {
	ring = mergeCollinear(ring)
	if len(ring) < 5 {
		return ring
	}

	pts := ring[:len(ring)-1]
	n := len(pts)
	dir := func(i int) orb.Point {
		j := (i + 1) % n
		return orb.Point{pts[j][0] - pts[i][0], pts[j][1] - pts[i][1]}
	}
	length := func(v orb.Point) float64 {
		return math.Hypot(v[0], v[1])
	}
	perpendicular := func(a, b orb.Point) bool {
		dot := a[0]*b[0] + a[1]*b[1]
		return math.Abs(dot) < 1e-9
	}

	used := make([]bool, n)
	var out orb.Ring
	i := 0
	for i < n {
		if used[i] {
			i++
			continue
		}
		start := i
		runEnd := i
		for j := i; j < n-1; j++ {
			d1, d2 := dir(j), dir(j+1)
			if !perpendicular(d1, d2) || math.Abs(length(d1)-length(d2)) > tolerance {
				break
			}
			runEnd = j + 1
		}
		if runEnd > start+1 { // at least two treads collapsed into one run
			for k := start; k <= runEnd; k++ {
				used[k] = true
			}
			out = append(out, pts[start])
			i = runEnd + 1
			continue
		}
		out = append(out, pts[start])
		i++
	}
	if len(out) < 3 {
		return ring
	}
	out = append(out, out[0])
	return out
}

// mergeCollinear drops ring vertices whose two adjacent edges share a
// direction, folding runs of same-direction unit edges into one segment.
func mergeCollinear(ring orb.Ring) orb.Ring {
	if len(ring) < 4 {
		return ring
	}
	pts := ring[:len(ring)-1]
	n := len(pts)
	var out orb.Ring
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		d1 := orb.Point{cur[0] - prev[0], cur[1] - prev[1]}
		d2 := orb.Point{next[0] - cur[0], next[1] - cur[1]}
		if sameDirection(d1, d2) {
			continue
		}
		out = append(out, cur)
	}
	if len(out) < 3 {
		out = pts
	}
	out = append(out, out[0])
	return out
}

func sameDirection(a, b orb.Point) bool {
	cross := a[0]*b[1] - a[1]*b[0]
	dot := a[0]*b[0] + a[1]*b[1]
	return math.Abs(cross) < 1e-9 && dot > 0
}
