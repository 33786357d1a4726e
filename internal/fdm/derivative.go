// Package fdm implements the central finite-difference derivative operator
// applied to trial solutions.
//
// A partial derivative of order k is described by k perturbation masks, one
// per differentiation level. Each mask is a vector with a single nonzero
// entry, Step, at the coordinate being perturbed at that level. Mixed
// partials place the nonzero entry at different coordinates across levels.
//
// Two evaluation modes exist: pointwise (one coordinate vector per call,
// used by quadrature-based training) and batch (a whole set of points per
// call, used by the sampling strategies). Both modes produce bit-identical
// values for the same point.
package fdm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Step is the finite-difference step: the cube root of the float32 machine
// epsilon, 2^(-23/3). The cube root balances truncation error against
// round-off error for a central difference. It is a fixed constant so that
// repeated evaluations are bit-identical.
const Step = 0.004921566601151848

// Mask returns the perturbation mask for one differentiation level: a
// dim-length vector with Step at 0-based index idx and zeros elsewhere.
func Mask(dim, idx int) []float64 {
	m := make([]float64, dim)
	m[idx] = Step
	return m
}

// Eval evaluates the trial solution (or any scalar field) at one point.
type Eval func(x []float64) float64

// BatchEval evaluates the trial solution at every row of pts, writing one
// value per row into dst.
type BatchEval func(pts *mat.Dense, dst []float64)

// Derivative computes the order-k partial derivative described by masks at
// the point x via recursively composed central differences:
//
//	d1(x, m)   = (f(x+m) - f(x-m)) / (2*Step)
//	dk(x, ms)  = (dk-1(x+ms[k-1], ms) - dk-1(x-ms[k-1], ms)) / (2*Step)
//
// len(masks) must equal order, and order must be at least 1. NaN or Inf
// from a diverging trial solution propagates to the result.
func Derivative(f Eval, x []float64, masks [][]float64, order int) float64 {
	m := masks[order-1]
	if order == 1 {
		return (f(shifted(x, m, 1)) - f(shifted(x, m, -1))) / (2 * Step)
	}
	plus := Derivative(f, shifted(x, m, 1), masks, order-1)
	minus := Derivative(f, shifted(x, m, -1), masks, order-1)
	return (plus - minus) / (2 * Step)
}

// DerivativeBatch is the batch-mode Derivative: it computes the same
// derivative at every row of pts, writing one value per row into dst.
// The recursion shifts the whole batch at once so that a single trial
// evaluation covers all points of a level.
func DerivativeBatch(f BatchEval, pts *mat.Dense, masks [][]float64, order int, dst []float64) {
	n, _ := pts.Dims()
	m := masks[order-1]

	plus := make([]float64, n)
	minus := make([]float64, n)
	if order == 1 {
		f(shiftedBatch(pts, m, 1), plus)
		f(shiftedBatch(pts, m, -1), minus)
	} else {
		DerivativeBatch(f, shiftedBatch(pts, m, 1), masks, order-1, plus)
		DerivativeBatch(f, shiftedBatch(pts, m, -1), masks, order-1, minus)
	}
	for i := 0; i < n; i++ {
		dst[i] = (plus[i] - minus[i]) / (2 * Step)
	}
}

// shifted returns x + sign*mask without touching x.
func shifted(x, mask []float64, sign float64) []float64 {
	out := make([]float64, len(x))
	floats.AddScaledTo(out, x, sign, mask)
	return out
}

// shiftedBatch returns a copy of pts with sign*mask added to every row.
func shiftedBatch(pts *mat.Dense, mask []float64, sign float64) *mat.Dense {
	n, d := pts.Dims()
	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		floats.AddScaledTo(out.RawRowView(i), pts.RawRowView(i), sign, mask)
	}
	return out
}
