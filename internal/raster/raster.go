// Package raster converts a building's unordered pixel array into a 2D
// labelled image and back, and provides 4-connected component labelling
// over arbitrary boolean masks of that image. Every other pipeline stage
// moves between "array of pixels" and "image" views through this package.
package raster

import (
	"math"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/arx-os/roofpv/pkg/rooferrors"
)

// NoData is the back-reference sentinel for an image cell with no pixel.
const NoData = -1

// Image is the rasterised view of a building: row/col dimensions, a
// resolution in metres/pixel, and a back-reference grid mapping each cell
// to an index into the originating pixel slice (or NoData).
type Image struct {
	Rows, Cols int
	Resolution float64
	XMin, YMax float64

	// Index[row][col] is the position of the corresponding pixel in the
	// slice passed to Rasterise, or NoData.
	Index [][]int
}

// At returns the pixel index at (row,col), or NoData if out of bounds or
// empty.
func (img *Image) At(row, col int) int {
	if row < 0 || row >= img.Rows || col < 0 || col >= img.Cols {
		return NoData
	}
	return img.Index[row][col]
}

// Rasterise maps each pixel's (x,y) world coordinate to an integer
// (row,col) image index, per spec: col = floor((x-x_min)/r), row =
// floor((y_max-y)/r) (image rows increase downward as y decreases).
// Pixels are assumed to already have Row/Col populated by the caller's
// upstream ingestion; Rasterise (re)computes them from X/Y/Resolution and
// is the single source of truth for that mapping.
func Rasterise(pixels []roofmodel.Pixel, resolution float64) (*Image, []roofmodel.Pixel, error) {
	if len(pixels) == 0 {
		return nil, nil, rooferrors.InputInvalid("cannot rasterise an empty pixel set", nil)
	}
	if resolution <= 0 {
		return nil, nil, rooferrors.InputInvalid("resolution must be positive", nil)
	}

	xMin, xMax := pixels[0].X, pixels[0].X
	yMin, yMax := pixels[0].Y, pixels[0].Y
	for _, p := range pixels {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			return nil, nil, rooferrors.InputInvalid("pixel coordinate is NaN", nil)
		}
		xMin = math.Min(xMin, p.X)
		xMax = math.Max(xMax, p.X)
		yMin = math.Min(yMin, p.Y)
		yMax = math.Max(yMax, p.Y)
	}

	cols := int(math.Floor((xMax-xMin)/resolution)) + 1
	rows := int(math.Floor((yMax-yMin)/resolution)) + 1
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}

	index := make([][]int, rows)
	for r := range index {
		index[r] = make([]int, cols)
		for c := range index[r] {
			index[r][c] = NoData
		}
	}

	out := make([]roofmodel.Pixel, len(pixels))
	for i, p := range pixels {
		col := int(math.Floor((p.X - xMin) / resolution))
		row := int(math.Floor((yMax - p.Y) / resolution))
		if col < 0 {
			col = 0
		}
		if col >= cols {
			col = cols - 1
		}
		if row < 0 {
			row = 0
		}
		if row >= rows {
			row = rows - 1
		}
		p.Row, p.Col = row, col
		out[i] = p
		index[row][col] = i
	}

	return &Image{Rows: rows, Cols: cols, Resolution: resolution, XMin: xMin, YMax: yMax, Index: index}, out, nil
}

// Cell is one labelled image cell: its grid position and the pixel-slice
// index it back-references.
type Cell struct {
	Row, Col int
	PixelIdx int
}

// Components runs 4-connected component labelling over the cells for
// which mask reports true, using an iterative BFS queue the way the
// teacher's grid-based Euclidean clustering walks neighbour queues.
func Components(img *Image, mask func(pixelIdx int) bool) [][]Cell {
	visited := make([][]bool, img.Rows)
	for r := range visited {
		visited[r] = make([]bool, img.Cols)
	}

	var components [][]Cell
	for r := 0; r < img.Rows; r++ {
		for c := 0; c < img.Cols; c++ {
			if visited[r][c] {
				continue
			}
			pidx := img.Index[r][c]
			if pidx == NoData || !mask(pidx) {
				visited[r][c] = true
				continue
			}

			var component []Cell
			queue := [][2]int{{r, c}}
			visited[r][c] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				cr, cc := cur[0], cur[1]
				curIdx := img.Index[cr][cc]
				component = append(component, Cell{Row: cr, Col: cc, PixelIdx: curIdx})

				for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nr, nc := cr+d[0], cc+d[1]
					if nr < 0 || nr >= img.Rows || nc < 0 || nc >= img.Cols || visited[nr][nc] {
						continue
					}
					visited[nr][nc] = true
					nidx := img.Index[nr][nc]
					if nidx == NoData || !mask(nidx) {
						continue
					}
					queue = append(queue, [2]int{nr, nc})
				}
			}
			components = append(components, component)
		}
	}
	return components
}

// LargestComponent returns the component with the most cells, or nil if
// components is empty.
func LargestComponent(components [][]Cell) []Cell {
	var largest []Cell
	for _, c := range components {
		if len(c) > len(largest) {
			largest = c
		}
	}
	return largest
}

// PixelIndices extracts the pixel-slice indices from a component.
func PixelIndices(component []Cell) []int {
	out := make([]int, len(component))
	for i, cell := range component {
		out[i] = cell.PixelIdx
	}
	return out
}

// TouchesBoundary reports whether any cell in the component sits on the
// outer ring of the image — used by the messy-roof detector to tell
// interior obstacle groups from the moat, which always touches the edge
// of the rasterised building window.
func TouchesBoundary(img *Image, component []Cell) bool {
	for _, cell := range component {
		if cell.Row == 0 || cell.Row == img.Rows-1 || cell.Col == 0 || cell.Col == img.Cols-1 {
			return true
		}
	}
	return false
}
