package premade

import (
	"sort"

	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// superpixelTileSize is the side length, in pixels, of the initial regular
// tiling SLIC starts its superpixel centres from.
const superpixelTileSize = 3

// superpixel is one SLIC-like tile: its member pixel indices and the mean
// of the segmenting field over those pixels.
type superpixel struct {
	idxs []int
	mean float64
}

// slicSuperpixels performs a simplified SLIC-like segmentation: pixels are
// assigned to superpixels on a regular tile grid restricted to the
// component, using the scalar field as the sole similarity metric (the
// domain's fields are already slope/aspect-derived, so colour-space
// distance collapses to 1D distance). Returned superpixels are ordered by
// ascending mean field value so the subsequent merge pass is deterministic.
func slicSuperpixels(img *raster.Image, pixels []roofmodel.Pixel, compIdxs []int, fieldOf func(roofmodel.Pixel) float64) []superpixel {
	tiles := map[[2]int][]int{}
	for _, idx := range compIdxs {
		p := pixels[idx]
		key := [2]int{p.Row / superpixelTileSize, p.Col / superpixelTileSize}
		tiles[key] = append(tiles[key], idx)
	}

	out := make([]superpixel, 0, len(tiles))
	for _, idxs := range tiles {
		var sum float64
		for _, idx := range idxs {
			sum += fieldOf(pixels[idx])
		}
		out = append(out, superpixel{idxs: idxs, mean: sum / float64(len(idxs))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].mean < out[j].mean })
	return out
}

// mergeByMeanThreshold merges superpixels whose mean field value differs
// by less than threshold, the way the teacher's collinear-segment merge
// (core/topology/clustering.go, MergeCollinearSegments) sorts by a scalar
// key and folds adjacent-in-order entries into a running group. True image
// adjacency between superpixels is not tracked at this stage — the field
// value is the sole similarity signal here — so superpixels, already
// sorted by mean field, are folded into a run wherever consecutive means
// fall within threshold of each other. The per-region gates that actually
// decide plane acceptance (residual, hull ratio, thinness, aspect snap)
// are re-checked downstream in internal/detsac regardless of how a region
// was assembled, so this only needs to produce a deterministic,
// field-homogeneous partition for DETSAC to try.
func mergeByMeanThreshold(superpixels []superpixel, threshold float64) map[int][]int {
	merged := map[int][]int{}
	if len(superpixels) == 0 {
		return merged
	}

	regionID := 0
	merged[regionID] = append(merged[regionID], superpixels[0].idxs...)
	prevMean := superpixels[0].mean
	for i := 1; i < len(superpixels); i++ {
		if abs(superpixels[i].mean-prevMean) >= threshold {
			regionID++
		}
		merged[regionID] = append(merged[regionID], superpixels[i].idxs...)
		prevMean = superpixels[i].mean
	}
	return merged
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// pixelField reads the named input field (spec §3's per-pixel slope/
// aspect attributes) directly off the pixel.
func pixelField(p roofmodel.Pixel, field string) float64 {
	if field == "slope" {
		return p.Slope
	}
	return p.Aspect
}
