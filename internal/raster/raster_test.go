package raster

import (
	"testing"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridPixels() []roofmodel.Pixel {
	// A 3x3 grid of 1m pixels.
	var pixels []roofmodel.Pixel
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			pixels = append(pixels, roofmodel.Pixel{X: float64(x), Y: float64(y), Z: 1.0})
		}
	}
	return pixels
}

func TestRasteriseDimensions(t *testing.T) {
	img, out, err := Rasterise(gridPixels(), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Rows)
	assert.Equal(t, 3, img.Cols)
	assert.Len(t, out, 9)
}

func TestRasteriseRejectsEmpty(t *testing.T) {
	_, _, err := Rasterise(nil, 1.0)
	assert.Error(t, err)
}

func TestRasteriseRejectsBadResolution(t *testing.T) {
	_, _, err := Rasterise(gridPixels(), 0)
	assert.Error(t, err)
}

func TestComponentsSingleBlock(t *testing.T) {
	img, _, err := Rasterise(gridPixels(), 1.0)
	require.NoError(t, err)

	components := Components(img, func(pixelIdx int) bool { return true })
	require.Len(t, components, 1)
	assert.Len(t, components[0], 9)
}

func TestComponentsSplitsDisconnectedRegions(t *testing.T) {
	img, out, err := Rasterise(gridPixels(), 1.0)
	require.NoError(t, err)

	// Exclude the centre pixel's row to split into two horizontal strips.
	excluded := map[int]bool{}
	for i, p := range out {
		if p.Row == 1 {
			excluded[i] = true
		}
	}
	components := Components(img, func(pixelIdx int) bool { return !excluded[pixelIdx] })
	assert.Len(t, components, 2)
}

func TestLargestComponent(t *testing.T) {
	components := [][]Cell{
		{{Row: 0, Col: 0, PixelIdx: 0}},
		{{Row: 1, Col: 0, PixelIdx: 1}, {Row: 1, Col: 1, PixelIdx: 2}},
	}
	largest := LargestComponent(components)
	assert.Len(t, largest, 2)
}

func TestTouchesBoundary(t *testing.T) {
	img := &Image{Rows: 3, Cols: 3}
	corner := []Cell{{Row: 0, Col: 0, PixelIdx: 0}}
	middle := []Cell{{Row: 1, Col: 1, PixelIdx: 0}}
	assert.True(t, TouchesBoundary(img, corner))
	assert.False(t, TouchesBoundary(img, middle))
}
