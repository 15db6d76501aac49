// Package dsp provides the numeric building blocks shared by the detectors:
// Gaussian smoothing, normalization, peak analysis and power spectrograms.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// GaussianTruncate is the kernel half-width in standard deviations.
const GaussianTruncate = 4.0

// GaussianKernel returns a normalized Gaussian kernel of radius
// round(GaussianTruncate*sigma).
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(GaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// GaussianFilter1D smooths x with a Gaussian of the given standard deviation
// in samples. Edges are handled by half-sample reflection (d c b a | a b c d).
// A non-positive sigma returns a copy of x.
func GaussianFilter1D(x []float64, sigma float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2
	n := len(x)

	for i := range x {
		var acc float64
		for k, w := range kernel {
			acc += w * x[reflectIndex(i+k-radius, n)]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex folds i into [0, n) with half-sample symmetric reflection.
func reflectIndex(i, n int) int {
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

// MinMaxNormalize rescales x onto [0, 1]. It reports false when x is empty or
// has zero dynamic range, in which case the result is nil.
func MinMaxNormalize(x []float64) ([]float64, bool) {
	if len(x) == 0 {
		return nil, false
	}
	lo, hi := floats.Min(x), floats.Max(x)
	if !(hi > lo) {
		return nil, false
	}
	out := make([]float64, len(x))
	copy(out, x)
	floats.AddConst(-lo, out)
	floats.Scale(1/(hi-lo), out)
	return out, true
}
