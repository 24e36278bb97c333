package roofmodel

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Pixel is a single rasterised elevation sample belonging to a building
// footprint. Row/Col index into the building's label image; X/Y/Z are the
// pixel's real-world centre coordinates and elevation. Slope/Aspect are
// input attributes per spec §3 — derived upstream from a DSM-wide
// slope/aspect raster by a collaborator outside this core's scope — not
// computed by this module.
type Pixel struct {
	Row, Col int
	X, Y, Z  float64

	// Slope is the input slope in degrees on [0,90].
	Slope float64
	// Aspect is the input aspect in degrees on [0,360), 0 = North,
	// increasing clockwise.
	Aspect float64
	// WithinBuilding reports whether the pixel falls inside the footprint
	// interior; WithoutBuilding reports whether it falls in the moat
	// surrounding the building without being inside any other building.
	WithinBuilding  bool
	WithoutBuilding bool

	// Mask holds a plane-acceptance sentinel: 0 for an unclaimed pixel,
	// NeverInlierResidual once a plane has claimed it, so the next fit can
	// never re-select it as an inlier.
	Mask float64
}

// Claimed reports whether the pixel has already been assigned to an
// accepted plane.
func (p Pixel) Claimed() bool {
	return p.Mask >= NeverInlierResidual
}

// Building is one footprint's worth of rasterised elevation data awaiting
// plane detection.
type Building struct {
	ID         string
	Footprint  orb.Polygon
	Resolution float64 // metres per pixel
	Pixels     []Pixel

	// RowCount/ColCount describe the label-image dimensions the pixels were
	// rasterised onto.
	RowCount, ColCount int

	// MinGroundHeight/MaxGroundHeight (metres, optional) bound the ground
	// plane surrounding the building. Per spec §3/§8, pixels below
	// MaxGroundHeight are excluded from candidate generation and fitting
	// (FittablePixels) but still occupy the pixel grid for moat/footprint
	// context elsewhere in the pipeline.
	MinGroundHeight *float64
	MaxGroundHeight *float64
}

// FittablePixels returns the subset of pixels not yet claimed by an
// accepted plane and not masked out as ground (spec §8: pixels with
// Z < MaxGroundHeight never participate in candidate generation or
// fitting).
func (b *Building) FittablePixels() []Pixel {
	out := make([]Pixel, 0, len(b.Pixels))
	for _, p := range b.Pixels {
		if p.Claimed() {
			continue
		}
		if b.MaxGroundHeight != nil && p.Z < *b.MaxGroundHeight {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MinPointsPerPlane returns the minimum inlier count an accepted plane on
// this building must reach, scaled by the building's raster resolution.
func (b *Building) MinPointsPerPlane() int {
	return MinPointsPerPlane(b.Resolution)
}

// Area returns the footprint area in square metres via the shoelace
// formula over the orb ring.
func (b *Building) Area() float64 {
	if len(b.Footprint) == 0 {
		return 0
	}
	return ringArea(b.Footprint[0])
}

// CandidatePlane is a not-yet-accepted plane proposal emitted by premade
// generation, consumed by DETSAC/RANSAC as a sample pool.
type CandidatePlane struct {
	ID      string
	Pixels  []Pixel
	Segment string // premade field this candidate came from, e.g. "aspect"

	// PlaneType tags the candidate's provenance, carried through to the
	// accepted RoofPlane's output record.
	PlaneType string

	// SampleResidualThreshold (metres) is the tolerance within which the
	// candidate's own pixels are always treated as inliers, regardless of
	// the fit's general residual threshold.
	SampleResidualThreshold float64
}

// FitResult is the outcome of an ordinary-least-squares plane fit over a
// sample of pixels: z = A*x + B*y + D.
type FitResult struct {
	A, B, D float64

	// Slope (degrees from horizontal) and Aspect (degrees clockwise from
	// north, in [0,360)) derived from A/B.
	Slope, Aspect float64
}

// Evaluate returns the fitted elevation at (x,y).
func (f FitResult) Evaluate(x, y float64) float64 {
	return f.A*x + f.B*y + f.D
}

// Residual returns the absolute vertical distance between a pixel's
// measured elevation and the fitted plane.
func (f FitResult) Residual(p Pixel) float64 {
	d := p.Z - f.Evaluate(p.X, p.Y)
	if d < 0 {
		return -d
	}
	return d
}

// RoofPlane is an accepted, fitted plane together with the pixels that
// qualified as its inliers, prior to polygonisation.
type RoofPlane struct {
	ID         string
	BuildingID string
	Fit        FitResult
	Inliers    []Pixel
	IsFlat     bool

	// AspectRaw is the fitted plane's own atan2-derived aspect before
	// footprint-snapping; Fit.Aspect is overwritten with the snapped value
	// once accepted.
	AspectRaw float64

	// PlaneType/PlaneID carry the candidate's provenance into the output
	// record; PlaneID may be a concatenation of provenance tags once two
	// planes have been merged.
	PlaneType string
	PlaneID   string

	Morphology Morphology

	// Stats is filled in by the fitter's post-accept refit and recomputed
	// when the merger combines planes.
	Stats PlaneStatistics
}

// Morphology holds the shape-quality fields spec §3 requires alongside fit
// quality: circular statistics over inlier aspect, and the two
// sliver-rejection ratios.
type Morphology struct {
	AspectCircMean float64
	AspectCircSD   float64
	ThinnessRatio  float64
	CvHullRatio    float64
}

// PlaneStatistics summarises an accepted plane's fit quality, reported
// alongside its polygon.
type PlaneStatistics struct {
	MeanAbsoluteError float64
	R2                float64
	MSE, RMSE         float64
	MSLE, MAPE        float64
	SD                float64
	InlierCount       int
	PixelArea         float64 // square metres, inlier_count * resolution^2
}

// NotUsableReason enumerates why a finished RoofPolygon was marked
// unusable rather than dropped outright; priority order is SLOPE, then
// ASPECT, then AREA, applied by internal/polygonize.
type NotUsableReason int

const (
	// NotUsableNone means the plane passed every usability gate.
	NotUsableNone NotUsableReason = iota
	NotUsableSlope
	NotUsableAspect
	NotUsableArea
)

// String implements fmt.Stringer.
func (n NotUsableReason) String() string {
	switch n {
	case NotUsableNone:
		return ""
	case NotUsableSlope:
		return "SLOPE"
	case NotUsableAspect:
		return "ASPECT"
	case NotUsableArea:
		return "AREA"
	default:
		return "UNKNOWN"
	}
}

// RoofPolygon is the pipeline's final output for one plane: a
// non-overlapping polygon, its fitted-plane parameters and quality
// statistics, and a usability verdict for downstream PV siting. Field
// names follow spec §6's output record one-to-one.
type RoofPolygon struct {
	ID         string
	BuildingID string
	PlaneID    string
	PlaneType  string

	// Polygon is the final, footprint-constrained and deconflicted
	// geometry (roof_geom); PolygonRaw is the pre-constraint pixel-union
	// shape (roof_geom_raw), kept for diagnostics.
	Polygon    orb.Polygon
	PolygonRaw orb.Polygon

	XCoef, YCoef, Intercept float64
	Slope                   float64
	Aspect                  float64
	AspectRaw               float64
	IsFlat                  bool

	Stats      PlaneStatistics
	Morphology Morphology

	// InliersXY is the plane's inlier pixel centres, carried through to
	// the output record verbatim (spec's inliers_xy).
	InliersXY []orb.Point

	Usable          bool
	NotUsableReason NotUsableReason
}

// String renders the polygon's identity for logging.
func (r RoofPolygon) String() string {
	return fmt.Sprintf("RoofPolygon(%s/%s slope=%.1f aspect=%.1f usable=%v)",
		r.BuildingID, r.ID, r.Slope, r.Aspect, r.Usable)
}

// ringArea computes the absolute shoelace area of an orb.Ring.
func ringArea(ring orb.Ring) float64 {
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
	return area / 2.0
}
