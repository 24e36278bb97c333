// Package premade implements the premade-plane generator: it partitions a
// building's pixels into height-continuous regions, sub-segments each by
// aspect (or slope) homogeneity, and emits the resulting regions as
// CandidatePlanes for the DETSAC fitter to consume.
package premade

import (
	"fmt"
	"sort"

	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// heightClusterEps and heightClusterMinSamples are the density-clustering
// parameters for the height-continuity step, taken from the domain
// partner's original constants (eps=0.6m, min_samples=5).
const (
	heightClusterEps        = 0.6
	heightClusterMinSamples = 5

	minRegionSize = 3 // regions of size <= 3 are dropped, matching spec §4.2
)

// SubSegmentSpec configures one sub-segmentation pass: the field to
// segment on, the merge threshold for that field, and the sample residual
// threshold assigned to candidates it produces.
type SubSegmentSpec struct {
	Field              string // "aspect" or "slope"
	SegmentingThreshold float64
	SampleResidual      float64
}

// DefaultSubSegmentSpecs is the default configuration from spec §4.2: four
// aspect passes, thresholds 29 and 15 degrees, each run once per residual
// band (0.25m and 2.0m).
func DefaultSubSegmentSpecs() []SubSegmentSpec {
	return []SubSegmentSpec{
		{Field: "aspect", SegmentingThreshold: 29, SampleResidual: 0.25},
		{Field: "aspect", SegmentingThreshold: 29, SampleResidual: 2.0},
		{Field: "aspect", SegmentingThreshold: 15, SampleResidual: 0.25},
		{Field: "aspect", SegmentingThreshold: 15, SampleResidual: 2.0},
	}
}

// Generate produces the building's candidate planes. Deterministic given
// the building's pixel order and the configured specs: height clusters are
// numbered by ascending mean elevation, sub-segments in the order
// raster.Components returns their regions, so two runs over the same input
// produce identical plane_ids
// in identical order.
func Generate(building *roofmodel.Building, specs []SubSegmentSpec) ([]roofmodel.CandidatePlane, error) {
	pixels := building.FittablePixels()
	if len(pixels) == 0 {
		return nil, nil
	}

	img, rasterPixels, err := raster.Rasterise(pixels, building.Resolution)
	if err != nil {
		return nil, err
	}

	heights := make([]float64, len(rasterPixels))
	for i, p := range rasterPixels {
		heights[i] = p.Z
	}
	labels := dbscan1D(heights, heightClusterEps, heightClusterMinSamples)

	clusterIdx := map[int][]int{} // cluster label -> pixel indices (noise excluded)
	for i, l := range labels {
		if l == noiseLabel {
			continue
		}
		clusterIdx[l] = append(clusterIdx[l], i)
	}

	// Order clusters deterministically by ascending mean elevation so
	// plane_id numbering is stable across runs.
	type clusterMean struct {
		label int
		mean  float64
	}
	var ordered []clusterMean
	for label, idxs := range clusterIdx {
		var sum float64
		for _, idx := range idxs {
			sum += heights[idx]
		}
		ordered = append(ordered, clusterMean{label: label, mean: sum / float64(len(idxs))})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].mean < ordered[j].mean })

	var candidates []roofmodel.CandidatePlane
	clusterNumber := 0
	for _, cm := range ordered {
		idxs := clusterIdx[cm.label]

		// Re-label the height cluster's mask by 4-connectivity; each
		// resulting component of size > minRegionSize is a cluster region.
		inCluster := make(map[int]bool, len(idxs))
		for _, idx := range idxs {
			inCluster[idx] = true
		}
		components := raster.Components(img, func(pixelIdx int) bool { return pixelIdx != raster.NoData && inCluster[pixelIdx] })

		for _, comp := range components {
			if len(comp) <= minRegionSize {
				continue
			}
			clusterNumber++
			compIdxs := raster.PixelIndices(comp)

			for _, spec := range specs {
				subCandidates := subSegment(img, rasterPixels, compIdxs, spec, clusterNumber)
				candidates = append(candidates, subCandidates...)
			}
		}
	}

	return candidates, nil
}

// subSegment performs SLIC-like superpixel segmentation of the component
// restricted to spec.Field, then merges superpixels that are consecutive in
// mean-field order and whose means differ by less than
// spec.SegmentingThreshold (image adjacency is not checked), re-labels by
// 4-connectivity, and emits one CandidatePlane per resulting region.
func subSegment(img *raster.Image, pixels []roofmodel.Pixel, compIdxs []int, spec SubSegmentSpec, clusterNumber int) []roofmodel.CandidatePlane {
	fieldOf := func(p roofmodel.Pixel) float64 {
		return pixelField(p, spec.Field)
	}

	superpixels := slicSuperpixels(img, pixels, compIdxs, fieldOf)
	merged := mergeByMeanThreshold(superpixels, spec.SegmentingThreshold)

	mask := make(map[int]int, len(compIdxs)) // pixel idx -> merged region id
	for regionID, region := range merged {
		for _, idx := range region {
			mask[idx] = regionID
		}
	}

	components := raster.Components(img, func(pixelIdx int) bool {
		_, ok := mask[pixelIdx]
		return ok
	})

	var out []roofmodel.CandidatePlane
	segmentNumber := 0
	for _, comp := range components {
		if len(comp) <= minRegionSize {
			continue
		}
		segmentNumber++
		idxs := raster.PixelIndices(comp)
		planeID := fmt.Sprintf("%s_%d_%g_%g_%d", spec.Field, clusterNumber, spec.SegmentingThreshold, spec.SampleResidual, segmentNumber)
		out = append(out, roofmodel.CandidatePlane{
			ID:                      planeID,
			Pixels:                  gatherPixels(pixels, idxs),
			Segment:                 spec.Field,
			PlaneType:               "segmented_" + spec.Field,
			SampleResidualThreshold: spec.SampleResidual,
		})
	}
	return out
}

func gatherPixels(pixels []roofmodel.Pixel, idxs []int) []roofmodel.Pixel {
	out := make([]roofmodel.Pixel, len(idxs))
	for i, idx := range idxs {
		out[i] = pixels[idx]
	}
	return out
}
