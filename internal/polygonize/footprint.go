package polygonize

import (
	"math"

	"github.com/paulmach/orb"
)

// PointInRing reports whether p falls inside ring via the standard
// even-odd ray-casting test. Used only for the footprint-shrink predicate,
// where a single point is tested against a ring many times (once per
// building pixel) — cheap enough that rasterising a coverage texture per
// call, as MaskGrid does for whole-polygon masks, would be wasted work.
func PointInRing(ring orb.Ring, p orb.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi[1] > p[1]) != (pj[1] > p[1]) {
			x := pi[0] + (p[1]-pi[1])/(pj[1]-pi[1])*(pj[0]-pi[0])
			if p[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// distanceToRing returns the shortest distance from p to any edge of
// ring.
func distanceToRing(ring orb.Ring, p orb.Point) float64 {
	best := math.Inf(1)
	n := len(ring)
	for i := 0; i < n-1; i++ {
		d := distanceToSegment(ring[i], ring[i+1], p)
		if d < best {
			best = d
		}
	}
	return best
}

func distanceToSegment(a, b, p orb.Point) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := p[0]-a[0], p[1]-a[1]
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return math.Hypot(apx, apy)
	}
	t := (apx*abx + apy*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := a[0]+t*abx, a[1]+t*aby
	return math.Hypot(p[0]-cx, p[1]-cy)
}

// insideShrunkFootprint reports whether p lies inside footprint, eroded by
// minDist: inside the ring and at least minDist from every edge. This is a
// true erosion (distance-to-boundary shrink) rather than an approximate
// vertex-offset buffer, so it stays correct for the non-convex footprints
// real buildings have.
func insideShrunkFootprint(footprint orb.Polygon, p orb.Point, minDist float64) bool {
	if len(footprint) == 0 {
		return false
	}
	ring := footprint[0]
	if !PointInRing(ring, p) {
		return false
	}
	if minDist <= 0 {
		return true
	}
	return distanceToRing(ring, p) >= minDist
}
