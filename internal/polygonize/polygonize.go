// Package polygonize implements the polygonisation stage of spec §4.7: it
// converts an accepted plane's inlier pixels into a clean roof polygon,
// constrains it to the building footprint, aligns it to the plane's
// aspect, and classifies the result as usable or not.
package polygonize

import (
	"math"

	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
)

// Config holds the usability-gate thresholds of spec §6 that this stage
// applies; internal/config.Config carries the same values loaded from
// file/environment.
type Config struct {
	MinDistToEdgeM          float64
	MaxRoofSlopeDegrees     float64
	MinRoofAreaM            float64
	MinRoofDegreesFromNorth float64
	FlatRoofDegrees         float64
}

// DefaultConfig returns spec §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		MinDistToEdgeM:          0.3,
		MaxRoofSlopeDegrees:     80,
		MinRoofAreaM:            10,
		MinRoofDegreesFromNorth: 45,
		FlatRoofDegrees:         10,
	}
}

// gridCellSize is the regridding resolution of spec §4.7 step 4 ("1m x 1m
// cells").
const gridCellSize = 1.0

// Build converts an accepted plane into its final RoofPolygon. ok is false
// when the footprint constraint leaves no surviving pixels for this plane
// (a locally recoverable geometry degeneracy per spec §7): the caller
// drops the plane and continues the building.
func Build(building *roofmodel.Building, plane roofmodel.RoofPlane, cfg Config) (roofmodel.RoofPolygon, bool, error) {
	img, rasterPixels, err := raster.Rasterise(building.Pixels, building.Resolution)
	if err != nil {
		return roofmodel.RoofPolygon{}, false, err
	}

	// img.XMin/img.YMax are pixel centres; the traced grid corners sit half
	// a pixel further out.
	originX := img.XMin - building.Resolution/2
	originY := img.YMax + building.Resolution/2

	rawMask := maskOfPixels(plane.Inliers)
	rawRing, ok := TraceBoundary(rawMask, originX, originY, building.Resolution)
	if !ok {
		return roofmodel.RoofPolygon{}, false, nil
	}
	rawRing = Dezigzag(rawRing, building.Resolution*0.5)
	roofGeomRaw := orb.Polygon{rawRing}

	constrainedMask, ok := constrainMaskToFootprint(img, rasterPixels, rawMask, building.Footprint, cfg.MinDistToEdgeM)
	if !ok {
		return roofmodel.RoofPolygon{}, false, nil
	}

	ring, ok := TraceBoundary(constrainedMask, originX, originY, building.Resolution)
	if !ok {
		return roofmodel.RoofPolygon{}, false, nil
	}
	ring = Dezigzag(ring, building.Resolution*0.5)

	finalRing := alignToAspect(ring, plane.Fit.Aspect)

	finalMask, ok := constrainRingToFootprint(img, rasterPixels, finalRing, building.Footprint, cfg.MinDistToEdgeM)
	if !ok {
		return roofmodel.RoofPolygon{}, false, nil
	}
	finalRing, ok = TraceBoundary(finalMask, originX, originY, building.Resolution)
	if !ok {
		return roofmodel.RoofPolygon{}, false, nil
	}
	finalRing = Dezigzag(finalRing, building.Resolution*0.5)

	reportedSlope := plane.Fit.Slope
	if plane.IsFlat {
		reportedSlope = cfg.FlatRoofDegrees
	}
	area := RingArea(finalRing)
	correctedArea := area
	if cosSlope := math.Cos(reportedSlope * math.Pi / 180); cosSlope > 1e-6 {
		correctedArea = area / cosSlope
	}

	usable, reason := classify(reportedSlope, plane.Fit.Aspect, correctedArea, cfg)

	inliersXY := make([]orb.Point, len(plane.Inliers))
	for i, p := range plane.Inliers {
		inliersXY[i] = orb.Point{p.X, p.Y}
	}

	out := roofmodel.RoofPolygon{
		ID:              plane.PlaneID,
		BuildingID:       building.ID,
		PlaneID:         plane.PlaneID,
		PlaneType:       plane.PlaneType,
		Polygon:         orb.Polygon{finalRing},
		PolygonRaw:      roofGeomRaw,
		XCoef:           plane.Fit.A,
		YCoef:           plane.Fit.B,
		Intercept:       plane.Fit.D,
		Slope:           reportedSlope,
		Aspect:          plane.Fit.Aspect,
		AspectRaw:       plane.AspectRaw,
		IsFlat:          plane.IsFlat,
		Stats:           plane.Stats,
		Morphology:      plane.Morphology,
		InliersXY:       inliersXY,
		Usable:          usable,
		NotUsableReason: reason,
	}
	return out, true, nil
}

// classify applies spec §4.7's usability gates in priority order: SLOPE,
// then ASPECT, then AREA.
func classify(slope, aspect, correctedArea float64, cfg Config) (bool, roofmodel.NotUsableReason) {
	if slope > cfg.MaxRoofSlopeDegrees {
		return false, roofmodel.NotUsableSlope
	}
	if aspect < cfg.MinRoofDegreesFromNorth || aspect > 360-cfg.MinRoofDegreesFromNorth {
		return false, roofmodel.NotUsableAspect
	}
	if correctedArea < cfg.MinRoofAreaM {
		return false, roofmodel.NotUsableArea
	}
	return true, roofmodel.NotUsableNone
}

// alignToAspect implements spec §4.7 step 4: rotate by -aspect, test
// whether the envelope is a close-enough fit, and fall back to regridding
// at 1m resolution when it is not.
func alignToAspect(ring orb.Ring, aspectDegrees float64) orb.Ring {
	pivot := CentroidOf(ring)
	rotated := RotateRing(ring, pivot, -aspectDegrees)

	envelope := BBox(rotated)
	polyArea := RingArea(rotated)
	envArea := RingArea(envelope)
	diff := envArea - polyArea

	var aligned orb.Ring
	if diff < 5.0 && (polyArea <= 0 || diff/polyArea < 0.35) {
		aligned = envelope
	} else {
		mask, origin, _, _ := MaskGrid(rotated, gridCellSize)
		localRing, ok := TraceBoundary(mask, origin[0], origin[1], gridCellSize)
		if !ok {
			aligned = rotated
		} else {
			aligned = Dezigzag(localRing, gridCellSize*0.5)
		}
	}
	return RotateRing(aligned, pivot, aspectDegrees)
}

func maskOfPixels(pixels []roofmodel.Pixel) CellMask {
	m := make(CellMask, len(pixels))
	for _, p := range pixels {
		m[[2]int{p.Row, p.Col}] = true
	}
	return m
}

// constrainMaskToFootprint restricts mask to the subset of the building's
// raster pixels that are both already in mask and inside the
// footprint shrunk by minDist, keeping only the largest 4-connected
// component (spec §4.7 step 3: "Keep the largest resulting polygon").
func constrainMaskToFootprint(img *raster.Image, rasterPixels []roofmodel.Pixel, mask CellMask, footprint orb.Polygon, minDist float64) (CellMask, bool) {
	keep := func(pixelIdx int) bool {
		p := rasterPixels[pixelIdx]
		if !mask[[2]int{p.Row, p.Col}] {
			return false
		}
		return insideShrunkFootprint(footprint, orb.Point{p.X, p.Y}, minDist)
	}
	components := raster.Components(img, func(idx int) bool { return idx != raster.NoData && keep(idx) })
	largest := raster.LargestComponent(components)
	if len(largest) == 0 {
		return nil, false
	}
	out := make(CellMask, len(largest))
	for _, cell := range largest {
		out[[2]int{cell.Row, cell.Col}] = true
	}
	return out, true
}

// constrainRingToFootprint is constrainMaskToFootprint's counterpart for
// spec §4.7 step 5, applied to the aspect-aligned ring rather than the
// original pixel-union mask: membership is "pixel centre inside ring AND
// inside the shrunk footprint".
func constrainRingToFootprint(img *raster.Image, rasterPixels []roofmodel.Pixel, ring orb.Ring, footprint orb.Polygon, minDist float64) (CellMask, bool) {
	keep := func(pixelIdx int) bool {
		p := rasterPixels[pixelIdx]
		pt := orb.Point{p.X, p.Y}
		if !PointInRing(ring, pt) {
			return false
		}
		return insideShrunkFootprint(footprint, pt, minDist)
	}
	components := raster.Components(img, func(idx int) bool { return idx != raster.NoData && keep(idx) })
	largest := raster.LargestComponent(components)
	if len(largest) == 0 {
		return nil, false
	}
	out := make(CellMask, len(largest))
	for _, cell := range largest {
		out[[2]int{cell.Row, cell.Col}] = true
	}
	return out, true
}
