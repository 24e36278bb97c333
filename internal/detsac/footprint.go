package detsac

import (
	"math"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
)

// collinearToleranceDegrees is the simplification tolerance used when
// removing near-collinear footprint vertices before decomposing into
// bearing segments (spec §4.3 step 11).
const collinearToleranceDegrees = 2.0

// minSegmentLength is the minimum footprint-segment length (metres)
// considered as an azimuth source.
const minSegmentLength = 1.0

// snapBuffers are the growing proximity tolerances (metres) a candidate's
// inlier centroid must fall within of a footprint segment's midpoint for
// that segment's azimuths to be accepted.
var snapBuffers = []float64{1.0, 3.0, 10.0}

// FootprintAzimuths simplifies the footprint ring (dropping vertices whose
// turn angle is below collinearToleranceDegrees), decomposes it into
// segments of at least minSegmentLength, and returns each segment's
// bearing plus bearing+{90,180,270}, paired with the segment's midpoint
// (used for the proximity check) and length.
type FootprintAzimuth struct {
	Bearing  float64
	Midpoint orb.Point
	Length   float64
}

// FootprintAzimuths derives the candidate azimuth set from a building
// footprint ring.
func FootprintAzimuths(footprint orb.Polygon) []FootprintAzimuth {
	if len(footprint) == 0 {
		return nil
	}
	ring := simplifyCollinear(footprint[0], collinearToleranceDegrees)

	var out []FootprintAzimuth
	n := len(ring)
	for i := 0; i < n-1; i++ {
		a, b := ring[i], ring[i+1]
		length := math.Hypot(b[0]-a[0], b[1]-a[1])
		if length < minSegmentLength {
			continue
		}
		bearing := bearingOf(a, b)
		mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
		for _, offset := range []float64{0, 90, 180, 270} {
			out = append(out, FootprintAzimuth{
				Bearing:  normalizeBearing(bearing + offset),
				Midpoint: mid,
				Length:   length,
			})
		}
	}
	return out
}

// bearingOf returns the compass bearing (degrees clockwise from north) of
// the segment a->b.
func bearingOf(a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	// North is +y; bearing increases clockwise, so swap the usual atan2
	// argument order.
	deg := math.Atan2(dx, dy) * 180 / math.Pi
	return normalizeBearing(deg)
}

func normalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// simplifyCollinear removes ring vertices whose interior turn angle is
// within toleranceDegrees of a straight line.
func simplifyCollinear(ring orb.Ring, toleranceDegrees float64) orb.Ring {
	if len(ring) < 4 {
		return ring
	}
	pts := ring
	if pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	n := len(pts)
	if n < 3 {
		return ring
	}

	var out orb.Ring
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		b1 := bearingOf(prev, cur)
		b2 := bearingOf(cur, next)
		diff := roofmodel.AngularDistanceDegrees(b1, b2)
		if diff > toleranceDegrees {
			out = append(out, cur)
		}
	}
	if len(out) < 3 {
		out = pts
	}
	out = append(out, out[0])
	return out
}

// SnapAspect attempts to snap a plane's raw aspect to a footprint-derived
// azimuth. target/tolerance follow spec §4.3 step 11: for non-flat planes
// target is the plane's own computed aspect (tolerance 15°); for flat
// planes target is due south, 180° (tolerance 46°). centroid is the
// inlier set's centroid, used for the growing-buffer proximity check.
// Returns the snapped azimuth and true on success.
func SnapAspect(azimuths []FootprintAzimuth, target, tolerance float64, centroid roofmodel.Pixel) (float64, bool) {
	var best FootprintAzimuth
	bestDiff := math.Inf(1)
	found := false
	for _, az := range azimuths {
		diff := roofmodel.AngularDistanceDegrees(az.Bearing, target)
		if diff > tolerance {
			continue
		}
		for _, buf := range snapBuffers {
			dist := math.Hypot(az.Midpoint[0]-centroid.X, az.Midpoint[1]-centroid.Y)
			if dist <= buf {
				if diff < bestDiff {
					bestDiff = diff
					best = az
					found = true
				}
				break
			}
		}
	}
	if !found {
		return 0, false
	}
	return best.Bearing, true
}

// Centroid returns the arithmetic mean (x,y) of a pixel set, used as the
// representative point for aspect-snap proximity checks.
func Centroid(pixels []roofmodel.Pixel) roofmodel.Pixel {
	if len(pixels) == 0 {
		return roofmodel.Pixel{}
	}
	var sx, sy float64
	for _, p := range pixels {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pixels))
	return roofmodel.Pixel{X: sx / n, Y: sy / n}
}
