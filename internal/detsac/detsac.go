package detsac

import (
	"math"

	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/paulmach/orb"
)

// Outcome tags what a single candidate evaluation decided: the tagged
// result spec §9 calls for in place of exception-based control flow.
type Outcome int

const (
	// Skip means the candidate was rejected but may be revisited later
	// (e.g. by RANSAC), so its plane_id is not added to skipPlanes.
	Skip Outcome = iota
	// Reject means the candidate failed a rule that permanently
	// disqualifies its plane_id (added to skipPlanes).
	Reject
	// Accept means the candidate became the new provisional best.
	Accept
)

// Evaluation is one candidate's fit outcome, threaded through the staged
// best-so-far comparison instead of a shared mutable "current best"
// object. Exported so internal/ransacfit can drive the same rule chain
// over randomly-sampled triples instead of premade candidates.
type Evaluation struct {
	Outcome Outcome
	Plane   roofmodel.RoofPlane
	MAE     float64
}

// Fit performs at most one successful plane acceptance over candidates,
// per spec §4.3. skipPlanes is mutated in place: rejected-permanently and
// accepted plane_ids are added to it. Returns (plane, true, nil) on
// success, (zero, false, nil) if every candidate was skipped or rejected,
// and a non-nil error only for a fatal condition upstream (never for an
// ordinary per-candidate rejection).
func Fit(building *roofmodel.Building, candidates []roofmodel.CandidatePlane, skipPlanes map[string]bool, azimuths []FootprintAzimuth) (roofmodel.RoofPlane, bool, error) {
	img, rasterPixels, err := raster.Rasterise(building.Pixels, building.Resolution)
	if err != nil {
		return roofmodel.RoofPlane{}, false, err
	}

	minPoints := building.MinPointsPerPlane()
	totalPixels := len(rasterPixels)

	var best *Evaluation
	for _, cand := range candidates {
		if skipPlanes[cand.ID] {
			continue
		}

		eval := EvaluateCandidate(img, rasterPixels, cand, minPoints, totalPixels, azimuths)
		if eval.Outcome == Accept {
			eval.Plane.BuildingID = building.ID
		}
		switch eval.Outcome {
		case Reject:
			skipPlanes[cand.ID] = true
		case Accept:
			if best == nil || isBetter(eval, *best) {
				best = &eval
			} else {
				// Worse than current best: per spec, skip without adding
				// to skipPlanes so a later RANSAC pass may revisit it.
			}
		}
	}

	if best == nil {
		return roofmodel.RoofPlane{}, false, nil
	}

	finalPlane, ok := Refit(img, rasterPixels, best.Plane, minPoints)
	skipPlanes[finalPlane.PlaneID] = true
	if !ok {
		return roofmodel.RoofPlane{}, false, nil
	}

	for _, p := range finalPlane.Inliers {
		MarkClaimed(building, p.Row, p.Col)
	}

	return finalPlane, true, nil
}

// isBetter implements the staged "good score" comparison of spec §4.3
// step 7: below the good-score threshold, prefer more inliers; otherwise
// prefer lower MAE, then more inliers.
func isBetter(a, b Evaluation) bool {
	aGood := a.MAE < roofmodel.GoodScoreThreshold
	bGood := b.MAE < roofmodel.GoodScoreThreshold
	if aGood && bGood {
		return len(a.Plane.Inliers) > len(b.Plane.Inliers)
	}
	if a.MAE != b.MAE {
		return a.MAE < b.MAE
	}
	return len(a.Plane.Inliers) > len(b.Plane.Inliers)
}

// EvaluateCandidate runs spec §4.3 steps 1-11 for a single candidate. It is
// exported so internal/ransacfit can apply the identical rule chain to
// randomly-sampled triples instead of premade-generated regions.
func EvaluateCandidate(img *raster.Image, rasterPixels []roofmodel.Pixel, cand roofmodel.CandidatePlane, minPoints, totalPixels int, azimuths []FootprintAzimuth) Evaluation {
	fit, err := FitPlane(cand.Pixels)
	if err != nil {
		return Evaluation{Outcome: Skip}
	}
	if fit.Slope > roofmodel.MaxFitSlopeDegrees || fit.Slope < roofmodel.MinFitSlopeDegrees {
		return Evaluation{Outcome: Reject}
	}

	isFlat := roofmodel.IsFlat(fit.Slope)
	residualThreshold := roofmodel.PlaneResidualThreshold
	if isFlat {
		residualThreshold = roofmodel.FlatResidualThreshold
	}

	inlierIdx := classifyInliers(fit, rasterPixels, cand, residualThreshold)
	if len(inlierIdx) < minPoints {
		return Evaluation{Outcome: Skip}
	}

	mask := make(map[int]bool, len(inlierIdx))
	for _, idx := range inlierIdx {
		mask[idx] = true
	}
	components := raster.Components(img, func(pixelIdx int) bool { return pixelIdx != raster.NoData && mask[pixelIdx] })
	largest := raster.LargestComponent(components)
	minComponentSize := minPoints
	if frac := int(roofmodel.MinPixelFraction * float64(totalPixels)); frac > minComponentSize {
		minComponentSize = frac
	}
	if len(largest) < minComponentSize {
		return Evaluation{Outcome: Skip}
	}

	inliers := make([]roofmodel.Pixel, len(largest))
	for i, cell := range largest {
		inliers[i] = rasterPixels[cell.PixelIdx]
	}

	mae := MeanAbsoluteError(fit, inliers)

	var aspectCircMean, aspectCircSD float64
	if !isFlat {
		aspects := make([]float64, len(inliers))
		for i, p := range inliers {
			aspects[i] = p.Aspect
		}
		meanRad, sd := roofmodel.CircularMeanSD(aspects)
		meanDeg := meanRad * 180 / math.Pi
		if meanDeg < 0 {
			meanDeg += 360
		}
		aspectCircMean, aspectCircSD = meanDeg, sd
		if roofmodel.AngularDistanceDegrees(meanDeg, fit.Aspect) > roofmodel.MaxAspectDiffDegrees || sd > roofmodel.MaxAspectCircularSD {
			return Evaluation{Outcome: Reject}
		}
	}

	hull := ConvexHull(pointsOf(inliers))
	hullArea := RingArea(hull)
	componentArea := float64(len(inliers)) * img.Resolution * img.Resolution
	if ConvexHullRatio(componentArea, hullArea) < roofmodel.MinConvexHullRatio {
		return Evaluation{Outcome: Reject}
	}

	perimeter := BoundaryPerimeter(cellsOf(inliers), img.Resolution)
	thinness := ThinnessRatio(componentArea, perimeter)
	if thinness < ThinnessThreshold(len(inliers)) {
		return Evaluation{Outcome: Reject}
	}

	target := fit.Aspect
	tolerance := roofmodel.AzimuthAlignmentThreshold
	if isFlat {
		target = 180
		tolerance = roofmodel.FlatRoofAzimuthAlignmentThreshold
	}
	centroid := Centroid(inliers)
	snapped, ok := SnapAspect(azimuths, target, tolerance, centroid)
	if !ok {
		return Evaluation{Outcome: Reject}
	}

	plane := roofmodel.RoofPlane{
		ID:         cand.ID,
		BuildingID: "",
		Fit:        fit,
		Inliers:    inliers,
		IsFlat:     isFlat,
		AspectRaw:  fit.Aspect,
		PlaneType:  cand.PlaneType,
		PlaneID:    cand.ID,
		Morphology: roofmodel.Morphology{
			AspectCircMean: aspectCircMean,
			AspectCircSD:   aspectCircSD,
			ThinnessRatio:  thinness,
			CvHullRatio:    ConvexHullRatio(componentArea, hullArea),
		},
	}
	plane.Fit.Aspect = snapped

	return Evaluation{Outcome: Accept, Plane: plane, MAE: mae}
}

// classifyInliers implements spec §4.3 step 3: residual-threshold inlier
// test over every building pixel, with claimed pixels forced out and the
// candidate's own pixels always in if within its sample residual.
func classifyInliers(fit roofmodel.FitResult, rasterPixels []roofmodel.Pixel, cand roofmodel.CandidatePlane, residualThreshold float64) []int {
	ownPixels := make(map[[2]int]bool, len(cand.Pixels))
	for _, p := range cand.Pixels {
		ownPixels[[2]int{p.Row, p.Col}] = true
	}

	var out []int
	for i, p := range rasterPixels {
		if p.Claimed() {
			continue
		}
		res := fit.Residual(p)
		if ownPixels[[2]int{p.Row, p.Col}] && res < cand.SampleResidualThreshold {
			out = append(out, i)
			continue
		}
		if res < residualThreshold {
			out = append(out, i)
		}
	}
	return out
}

// Refit re-fits OLS on the accepted plane's inliers, restricts to the
// largest 4-connected component again, and reports whether the result
// still clears min_points_per_plane (spec §4.3, after the loop). Exported
// so internal/ransacfit can apply the same post-accept refit to its own
// triple-sampled acceptances.
func Refit(img *raster.Image, rasterPixels []roofmodel.Pixel, plane roofmodel.RoofPlane, minPoints int) (roofmodel.RoofPlane, bool) {
	fit, err := FitPlane(plane.Inliers)
	if err != nil {
		return plane, false
	}

	residualThreshold := roofmodel.PlaneResidualThreshold
	isFlat := roofmodel.IsFlat(fit.Slope)
	if isFlat {
		residualThreshold = roofmodel.FlatResidualThreshold
	}

	mask := make(map[[2]int]bool, len(plane.Inliers))
	for _, p := range plane.Inliers {
		mask[[2]int{p.Row, p.Col}] = true
	}

	var inlierIdx []int
	for i, p := range rasterPixels {
		if p.Claimed() {
			continue
		}
		if fit.Residual(p) < residualThreshold {
			inlierIdx = append(inlierIdx, i)
		}
	}

	maskIdx := make(map[int]bool, len(inlierIdx))
	for _, idx := range inlierIdx {
		maskIdx[idx] = true
	}
	components := raster.Components(img, func(pixelIdx int) bool { return pixelIdx != raster.NoData && maskIdx[pixelIdx] })
	largest := raster.LargestComponent(components)
	if len(largest) < minPoints {
		return plane, false
	}

	inliers := make([]roofmodel.Pixel, len(largest))
	for i, cell := range largest {
		inliers[i] = rasterPixels[cell.PixelIdx]
	}

	snappedAspect := plane.Fit.Aspect
	stats := ComputeStatistics(fit, inliers)
	plane.Fit = fit
	plane.Fit.Aspect = snappedAspect
	plane.Inliers = inliers
	plane.IsFlat = isFlat
	plane.AspectRaw = fit.Aspect
	plane.Stats = roofmodel.PlaneStatistics{
		MeanAbsoluteError: stats.MAE,
		R2:                stats.R2,
		MSE:               stats.MSE,
		RMSE:              stats.RMSE,
		MSLE:              stats.MSLE,
		MAPE:              stats.MAPE,
		SD:                stats.SD,
		InlierCount:       len(inliers),
		PixelArea:         float64(len(inliers)) * img.Resolution * img.Resolution,
	}
	return plane, true
}

// MarkClaimed sets the never-inlier sentinel on the building's pixel at
// (row,col), so future candidates never re-select it. Exported for
// internal/ransacfit's shared claiming logic.
func MarkClaimed(building *roofmodel.Building, row, col int) {
	for i := range building.Pixels {
		if building.Pixels[i].Row == row && building.Pixels[i].Col == col {
			building.Pixels[i].Mask = roofmodel.NeverInlierResidual
			return
		}
	}
}

func pointsOf(pixels []roofmodel.Pixel) []orb.Point {
	out := make([]orb.Point, len(pixels))
	for i, p := range pixels {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}
