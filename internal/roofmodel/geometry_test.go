package roofmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlopeAspectFlat(t *testing.T) {
	slope, aspect := SlopeAspect(0, 0)
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 0.0, aspect)
}

func TestSlopeAspectKnownPitch(t *testing.T) {
	// A=1, B=0 -> 45 degree slope, due-east-facing aspect (90 degrees).
	slope, aspect := SlopeAspect(1, 0)
	assert.InDelta(t, 45.0, slope, 1e-9)
	assert.InDelta(t, 90.0, aspect, 1e-9)
}

func TestSlopeAspectNegativeWrapsTo360(t *testing.T) {
	_, aspect := SlopeAspect(-1, 0)
	assert.InDelta(t, 270.0, aspect, 1e-9)
	assert.GreaterOrEqual(t, aspect, 0.0)
	assert.Less(t, aspect, 360.0)
}

func TestIsFlat(t *testing.T) {
	assert.True(t, IsFlat(5.0))
	assert.True(t, IsFlat(0))
	assert.False(t, IsFlat(5.01))
}

func TestCircularMeanSDTightCluster(t *testing.T) {
	mean, sd := CircularMeanSD([]float64{170, 180, 190})
	assert.InDelta(t, 180.0, radToDeg(mean), 1e-6)
	assert.Less(t, sd, 0.3)
}

func TestCircularMeanSDWrapAround(t *testing.T) {
	// Angles straddling 0/360 should average near 0, not 180.
	mean, _ := CircularMeanSD([]float64{350, 10})
	meanDeg := radToDeg(mean)
	if meanDeg > 180 {
		meanDeg -= 360
	}
	assert.InDelta(t, 0.0, meanDeg, 1e-6)
}

func TestCircularMeanSDSingleAngleIsZeroSpread(t *testing.T) {
	_, sd := CircularMeanSD([]float64{45})
	assert.Equal(t, 0.0, sd)
}

func TestAngularDistanceDegrees(t *testing.T) {
	assert.InDelta(t, 20.0, AngularDistanceDegrees(10, 350), 1e-9)
	assert.InDelta(t, 180.0, AngularDistanceDegrees(0, 180), 1e-9)
	assert.InDelta(t, 0.0, AngularDistanceDegrees(90, 90), 1e-9)
}

func TestMinPointsPerPlaneScaling(t *testing.T) {
	assert.Equal(t, 8, MinPointsPerPlane(1.0))
	assert.Equal(t, 4, MinPointsPerPlane(4.0))
	assert.Equal(t, 8, MinPointsPerPlane(0.25))
}

func TestFitResultResidual(t *testing.T) {
	fit := FitResult{A: 0, B: 0, D: 10}
	p := Pixel{X: 0, Y: 0, Z: 12}
	assert.Equal(t, 2.0, fit.Residual(p))
	assert.True(t, math.Abs(fit.Evaluate(5, 5)-10) < 1e-9)
}
