// Package detsac implements the deterministic sample-consensus plane
// fitter: given a building's candidate planes (from internal/premade), it
// fits each in turn, applies the LiDAR-specific acceptance rules, and
// accepts at most one plane per invocation.
package detsac

import (
	"math"

	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/arx-os/roofpv/pkg/rooferrors"
	"gonum.org/v1/gonum/mat"
)

// FitPlane performs an ordinary-least-squares fit of z = a*x + b*y + d over
// the given pixels, via gonum's Dense.Solve on the n x 3 design matrix
// (a QR least-squares solve for n > 3) — the design matrix is only 3
// columns wide, so a direct solve is cheap and the
// teacher's own plane fit (internal/lidar/processor.go fitPlane) solves
// small systems directly rather than reaching for an iterative method.
func FitPlane(pixels []roofmodel.Pixel) (roofmodel.FitResult, error) {
	n := len(pixels)
	if n < 3 {
		return roofmodel.FitResult{}, rooferrors.FitterNumeric("need at least 3 points to fit a plane", nil)
	}

	design := mat.NewDense(n, 3, nil)
	target := mat.NewDense(n, 1, nil)
	for i, p := range pixels {
		design.SetRow(i, []float64{p.X, p.Y, 1})
		target.Set(i, 0, p.Z)
	}

	var coeffs mat.Dense
	if err := coeffs.Solve(design, target); err != nil {
		return roofmodel.FitResult{}, rooferrors.FitterNumeric("singular design matrix", err)
	}

	a, b, d := coeffs.At(0, 0), coeffs.At(1, 0), coeffs.At(2, 0)
	if math.IsNaN(a) || math.IsNaN(b) || math.IsNaN(d) {
		return roofmodel.FitResult{}, rooferrors.FitterNumeric("fit produced NaN coefficients", nil)
	}

	slope, aspect := roofmodel.SlopeAspect(a, b)
	return roofmodel.FitResult{A: a, B: b, D: d, Slope: slope, Aspect: aspect}, nil
}

// MeanAbsoluteError returns the mean |residual| of fit over pixels.
func MeanAbsoluteError(fit roofmodel.FitResult, pixels []roofmodel.Pixel) float64 {
	if len(pixels) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for _, p := range pixels {
		sum += fit.Residual(p)
	}
	return sum / float64(len(pixels))
}

// RSquared returns the coefficient of determination of fit over pixels.
func RSquared(fit roofmodel.FitResult, pixels []roofmodel.Pixel) float64 {
	if len(pixels) == 0 {
		return 0
	}
	var meanZ float64
	for _, p := range pixels {
		meanZ += p.Z
	}
	meanZ /= float64(len(pixels))

	var ssRes, ssTot float64
	for _, p := range pixels {
		res := p.Z - fit.Evaluate(p.X, p.Y)
		ssRes += res * res
		d := p.Z - meanZ
		ssTot += d * d
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

// FitStatistics bundles the secondary quality metrics the output schema
// requires beyond MAE/R²: MSE, RMSE, MSLE, MAPE and the residual SD.
type FitStatistics struct {
	MAE, R2, MSE, RMSE, MSLE, MAPE, SD float64
}

// ComputeStatistics fills every fit-quality field spec §3 requires on an
// accepted RoofPlane.
func ComputeStatistics(fit roofmodel.FitResult, pixels []roofmodel.Pixel) FitStatistics {
	n := float64(len(pixels))
	if n == 0 {
		return FitStatistics{}
	}

	var sumAbs, sumSq, sumSqLog, sumAbsPct float64
	for _, p := range pixels {
		res := p.Z - fit.Evaluate(p.X, p.Y)
		sumAbs += math.Abs(res)
		sumSq += res * res
		if p.Z > 0 && fit.Evaluate(p.X, p.Y) > -1 {
			logRatio := math.Log1p(p.Z) - math.Log1p(fit.Evaluate(p.X, p.Y))
			sumSqLog += logRatio * logRatio
		}
		if p.Z != 0 {
			sumAbsPct += math.Abs(res / p.Z)
		}
	}

	mae := sumAbs / n
	mse := sumSq / n
	rmse := math.Sqrt(mse)
	msle := sumSqLog / n
	mape := sumAbsPct / n * 100

	var variance float64
	for _, p := range pixels {
		res := p.Z - fit.Evaluate(p.X, p.Y)
		d := math.Abs(res) - mae
		variance += d * d
	}
	sd := math.Sqrt(variance / n)

	return FitStatistics{MAE: mae, R2: RSquared(fit, pixels), MSE: mse, RMSE: rmse, MSLE: msle, MAPE: mape, SD: sd}
}
