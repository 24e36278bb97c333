package detsac

import (
	"testing"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planePixels(a, b, d float64, n int) []roofmodel.Pixel {
	var out []roofmodel.Pixel
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			fx, fy := float64(x), float64(y)
			out = append(out, roofmodel.Pixel{Row: y, Col: x, X: fx, Y: fy, Z: a*fx + b*fy + d})
		}
	}
	return out
}

func TestFitPlaneRecoversKnownCoefficients(t *testing.T) {
	pixels := planePixels(0.3, -0.2, 5.0, 6)
	fit, err := FitPlane(pixels)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, fit.A, 1e-9)
	assert.InDelta(t, -0.2, fit.B, 1e-9)
	assert.InDelta(t, 5.0, fit.D, 1e-9)
}

func TestFitPlaneFlatRoofHasZeroSlope(t *testing.T) {
	pixels := planePixels(0, 0, 2.0, 4)
	fit, err := FitPlane(pixels)
	require.NoError(t, err)
	assert.InDelta(t, 0, fit.Slope, 1e-9)
}

func TestFitPlaneRejectsTooFewPoints(t *testing.T) {
	_, err := FitPlane(planePixels(0, 0, 0, 1))
	assert.Error(t, err)
}

func TestMeanAbsoluteErrorZeroOnExactFit(t *testing.T) {
	pixels := planePixels(0.1, 0.1, 1.0, 5)
	fit, err := FitPlane(pixels)
	require.NoError(t, err)
	assert.InDelta(t, 0, MeanAbsoluteError(fit, pixels), 1e-9)
}

func TestRSquaredIsOneOnExactFit(t *testing.T) {
	pixels := planePixels(0.2, -0.1, 3.0, 5)
	fit, err := FitPlane(pixels)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, RSquared(fit, pixels), 1e-6)
}

func TestComputeStatisticsOnNoisyFit(t *testing.T) {
	pixels := planePixels(0, 0, 1.0, 4)
	pixels[0].Z += 0.5 // perturb one pixel off-plane
	fit, err := FitPlane(pixels)
	require.NoError(t, err)
	stats := ComputeStatistics(fit, pixels)
	assert.Greater(t, stats.MAE, 0.0)
	assert.Greater(t, stats.RMSE, 0.0)
	assert.LessOrEqual(t, stats.R2, 1.0)
}
