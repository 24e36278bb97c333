// Package ransacfit implements the RANSAC fallback fitter of spec §4.4:
// the same acceptance rules as internal/detsac, applied to triples of
// pixels sampled uniformly at random rather than premade-generated
// regions. Invoked only once the DETSAC loop is exhausted and the
// remaining unclaimed pixel budget still justifies another attempt.
package ransacfit

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/arx-os/roofpv/internal/detsac"
	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// sampleResidualThreshold is the sample_residual_threshold assigned to a
// RANSAC triple's own pixels. RANSAC has no premade sub-segmentation pass
// to derive this from, so it reuses the plane residual band itself: a
// triple's own points are inliers exactly when they already satisfy the
// same residual test every other pixel is held to.
const sampleResidualThreshold = roofmodel.PlaneResidualThreshold

// ShouldAttempt reports whether the remaining unclaimed pixel budget still
// justifies a RANSAC invocation, per spec §4.4: only when it exceeds
// 5×min_points_per_plane.
func ShouldAttempt(building *roofmodel.Building, minPoints int) bool {
	return len(building.FittablePixels()) > 5*minPoints
}

// Fit samples random pixel triples from the building's unclaimed pixels,
// applying detsac's acceptance-rule chain to each, until one is accepted
// or maxTrials is exhausted. seed makes the trial sequence reproducible:
// the same seed over the same building produces the same outcome. Returns
// (plane, true, nil) on success; (zero, false, nil) once trials run out
// without an acceptance.
func Fit(building *roofmodel.Building, seed int64, skipPlanes map[string]bool, azimuths []detsac.FootprintAzimuth) (roofmodel.RoofPlane, bool, error) {
	img, rasterPixels, err := raster.Rasterise(building.Pixels, building.Resolution)
	if err != nil {
		return roofmodel.RoofPlane{}, false, err
	}

	minPoints := building.MinPointsPerPlane()
	totalPixels := len(rasterPixels)

	var available []int
	for i, p := range rasterPixels {
		if p.Claimed() {
			continue
		}
		if building.MaxGroundHeight != nil && p.Z < *building.MaxGroundHeight {
			continue
		}
		available = append(available, i)
	}
	if len(available) < 3 {
		return roofmodel.RoofPlane{}, false, nil
	}

	maxTrials := maxTrialsFor(building.Area())
	rng := rand.New(rand.NewSource(seed))
	badSamples := map[[3]int]bool{}

	for trial := 0; trial < maxTrials; trial++ {
		triple := sampleTriple(rng, available)
		if badSamples[triple] {
			continue
		}

		candID := fmt.Sprintf("ransac_%d_%d_%d", triple[0], triple[1], triple[2])
		if skipPlanes[candID] {
			badSamples[triple] = true
			continue
		}

		cand := roofmodel.CandidatePlane{
			ID: candID,
			Pixels: []roofmodel.Pixel{
				rasterPixels[triple[0]],
				rasterPixels[triple[1]],
				rasterPixels[triple[2]],
			},
			Segment:                 "random",
			PlaneType:               "ransac",
			SampleResidualThreshold: sampleResidualThreshold,
		}

		eval := detsac.EvaluateCandidate(img, rasterPixels, cand, minPoints, totalPixels, azimuths)
		switch eval.Outcome {
		case detsac.Reject:
			skipPlanes[candID] = true
			badSamples[triple] = true
		case detsac.Skip:
			badSamples[triple] = true
		case detsac.Accept:
			eval.Plane.BuildingID = building.ID
			finalPlane, ok := detsac.Refit(img, rasterPixels, eval.Plane, minPoints)
			skipPlanes[finalPlane.PlaneID] = true
			if !ok {
				badSamples[triple] = true
				continue
			}
			for _, p := range finalPlane.Inliers {
				detsac.MarkClaimed(building, p.Row, p.Col)
			}
			return finalPlane, true, nil
		}
	}

	return roofmodel.RoofPlane{}, false, nil
}

// maxTrialsFor implements the area-tiered trial budget of spec §4.4 (named
// constants per internal/roofmodel; see DESIGN.md for the area-boundary
// Open Question decision).
func maxTrialsFor(areaM2 float64) int {
	if areaM2 < roofmodel.RansacSmallBuildingAreaM2 {
		return roofmodel.RansacSmallMaxTrials
	}
	if areaM2 < roofmodel.RansacLargeBuildingAreaM2 {
		return roofmodel.RansacMediumMaxTrials
	}
	return roofmodel.RansacLargeMaxTrials
}

// sampleTriple draws 3 distinct indices from available uniformly at
// random and returns them sorted, so the same unordered triple always
// produces the same badSamples key regardless of draw order.
func sampleTriple(rng *rand.Rand, available []int) [3]int {
	i := rng.Intn(len(available))
	j := i
	for j == i {
		j = rng.Intn(len(available))
	}
	k := i
	for k == i || k == j {
		k = rng.Intn(len(available))
	}

	triple := []int{available[i], available[j], available[k]}
	sort.Ints(triple)
	return [3]int{triple[0], triple[1], triple[2]}
}
