// Package fixtures builds small synthetic roofmodel.Building inputs that
// exercise the boundary properties spec.md §8 names (a single flat plane,
// a cardinal-axis gable, a messy flat roof, a single-pixel building) in
// place of the real `roof_detection/` LiDAR corpus spec.md's scenario
// table references, which this retrieval pack does not carry. Shared by
// internal/integration's end-to-end tests and cmd/roofpv's bench
// subcommand.
package fixtures

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/arx-os/roofpv/internal/roofmodel"
)

// gradientFunc returns a synthetic pixel's analytic elevation gradient
// (dz/dx, dz/dy) at (x,y) — standing in for the DSM-wide slope/aspect
// raster an external collaborator derives per spec §1/§3; these fixtures
// fabricate that already-derived per-pixel input directly from the known
// piecewise-planar elevation function rather than leaving it unset.
type gradientFunc func(x, y float64) (dzdx, dzdy float64)

func flatGradient(float64, float64) (float64, float64) { return 0, 0 }

// squareFootprint returns an axis-aligned square ring from (0,0) to
// (side,side), whose edge bearings are exactly the four cardinal
// directions -- every synthetic building below relies on that to make
// aspect-snapping succeed deterministically (internal/detsac.SnapAspect).
func squareFootprint(side float64) orb.Polygon {
	return orb.Polygon{{
		{0, 0}, {side, 0}, {side, side}, {0, side}, {0, 0},
	}}
}

// grid calls elevation(x,y) and gradient(x,y) once per pixel centre on a
// resolution-r grid covering [0,side]x[0,side], producing pixels in
// row-major order with Slope/Aspect set from the analytic gradient.
func grid(side, resolution float64, elevation func(x, y float64) float64, gradient gradientFunc) []roofmodel.Pixel {
	n := int(side / resolution)
	pixels := make([]roofmodel.Pixel, 0, n*n)
	for row := 0; row < n; row++ {
		y := side - (float64(row)+0.5)*resolution
		for col := 0; col < n; col++ {
			x := (float64(col) + 0.5) * resolution
			dzdx, dzdy := gradient(x, y)
			slope, aspect := roofmodel.SlopeAspect(dzdx, dzdy)
			pixels = append(pixels, roofmodel.Pixel{
				Row: row, Col: col,
				X: x, Y: y, Z: elevation(x, y),
				Slope: slope, Aspect: aspect,
				WithinBuilding: true,
			})
		}
	}
	return pixels
}

// SinglePixelBuilding returns a building with exactly one pixel, far
// fewer than any resolution's min_points_per_plane floor (spec §8: "fewer
// than min_points_per_plane pixels produce no planes").
func SinglePixelBuilding() *roofmodel.Building {
	return &roofmodel.Building{
		ID:         "single-pixel",
		Footprint:  squareFootprint(10),
		Resolution: 1.0,
		Pixels: []roofmodel.Pixel{
			{Row: 5, Col: 5, X: 5.5, Y: 4.5, Z: 3.0, WithinBuilding: true},
		},
	}
}

// FlatRoofBuilding returns a perfectly flat 14x14m roof at 1m resolution:
// spec §8's boundary property that a perfect slope-0 plane produces
// exactly one flat plane spanning the whole footprint.
func FlatRoofBuilding() *roofmodel.Building {
	const side = 14.0
	pixels := grid(side, 1.0, func(x, y float64) float64 { return 5.0 }, flatGradient)
	return &roofmodel.Building{
		ID:         "flat-roof",
		Footprint:  squareFootprint(side),
		Resolution: 1.0,
		Pixels:     pixels,
	}
}

// GableBuilding returns a 10x10m roof with a ridge at x=5 and a pitch
// shallow enough to clear every DETSAC gate (roughly 31 degrees, well
// under the 75-degree hard reject): spec §8's "single cardinal-axis
// gable" boundary property, whose two planes' aspects should differ by
// 180 degrees.
func GableBuilding() *roofmodel.Building {
	const side = 10.0
	const ridgeHeight = 3.0
	a := ridgeHeight / (side / 2) // dz/dx magnitude on each pitch
	pixels := grid(side, 1.0, func(x, y float64) float64 {
		if x < side/2 {
			return ridgeHeight - a*(side/2-x)
		}
		return ridgeHeight - a*(x-side/2)
	}, func(x, y float64) (float64, float64) {
		if x < side/2 {
			return a, 0
		}
		return -a, 0
	})
	return &roofmodel.Building{
		ID:         "gable",
		Footprint:  squareFootprint(side),
		Resolution: 1.0,
		Pixels:     pixels,
	}
}

// MessyRoofBuilding returns a 14x14m flat roof interrupted by six small,
// spatially separated obstacle patches (simulated rooftop equipment), each
// sized below min_points_per_plane so none can become its own accepted
// plane, together covering well past both the per-plane (14%) and
// whole-building (85%) mess thresholds once the surrounding flat plane is
// fit: spec §8's messy-roof rejection boundary (scenarios 0029/0028/0033).
func MessyRoofBuilding() *roofmodel.Building {
	const side = 14.0
	const baseZ = 5.0
	const obstacleZ = 8.0

	// Six 1x7 patches, each one pixel under min_points_per_plane at 1m
	// resolution (8), so none can individually pass DETSAC's minimum-
	// inlier-count gate and become its own accepted plane; spaced two rows
	// apart (never touching the image boundary or each other) so each
	// rasterises into its own 4-connected height cluster and obstacle
	// group. Together they total 42 of the would-be plane's 196 pixels:
	// 42/154 =~ 27% per-plane mess (over the 14% per-plane threshold) and
	// (42+154)/154 =~ 127% total mess (over the 85% whole-building
	// threshold).
	patchRows := []int{2, 4, 6, 8, 10, 12}
	inPatch := func(row, col int) bool {
		if col < 3 || col > 9 {
			return false
		}
		for _, r := range patchRows {
			if row == r {
				return true
			}
		}
		return false
	}

	n := int(side)
	pixels := make([]roofmodel.Pixel, 0, n*n)
	for row := 0; row < n; row++ {
		y := side - (float64(row) + 0.5)
		for col := 0; col < n; col++ {
			x := float64(col) + 0.5
			z := baseZ
			if inPatch(row, col) {
				z = obstacleZ
			}
			pixels = append(pixels, roofmodel.Pixel{Row: row, Col: col, X: x, Y: y, Z: z, WithinBuilding: true})
		}
	}

	return &roofmodel.Building{
		ID:         "messy-roof",
		Footprint:  squareFootprint(side),
		Resolution: 1.0,
		Pixels:     pixels,
	}
}

// BenchCorpus returns every fixture building paired with a label, for
// cmd/roofpv's bench subcommand and table-driven integration tests to
// range over together.
func BenchCorpus() map[string]*roofmodel.Building {
	return map[string]*roofmodel.Building{
		"single_pixel": SinglePixelBuilding(),
		"flat_roof":    FlatRoofBuilding(),
		"gable":        GableBuilding(),
		"messy_roof":   MessyRoofBuilding(),
	}
}

// Describe renders a building's pixel/footprint size for bench/log output.
func Describe(b *roofmodel.Building) string {
	return fmt.Sprintf("%s (%d pixels, %.0fm^2 footprint)", b.ID, len(b.Pixels), b.Area())
}
