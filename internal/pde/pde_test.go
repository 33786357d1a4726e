package pde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pinn-ml/pinn/internal/expr"
	"github.com/pinn-ml/pinn/internal/quadrature"
	"github.com/pinn-ml/pinn/internal/strategy"
	"github.com/pinn-ml/pinn/internal/symbol"
	"github.com/pinn-ml/pinn/internal/trial"
)

// linearPhi evaluates theta[0] + theta[1]*x[0] + theta[2]*x[1] + ... so
// that the finite-difference derivatives of the trial solution are exact.
type linearPhi struct {
	dim int
}

func (p linearPhi) NumParams() int { return p.dim + 1 }

func (p linearPhi) Eval(x, theta []float64) float64 {
	v := theta[0]
	for i, xi := range x {
		v += theta[i+1] * xi
	}
	return v
}

func (p linearPhi) EvalBatch(pts *mat.Dense, theta, dst []float64) {
	n, _ := pts.Dims()
	for i := 0; i < n; i++ {
		dst[i] = p.Eval(pts.RawRowView(i), theta)
	}
}

// linearODE is du/dt = 1 on [0,1] with u(0) = 0, solved exactly by the
// trial parameters theta = (0, 1).
func linearODE() Problem {
	u := func(arg expr.Node) expr.Node { return expr.Apply("u", arg) }
	return Problem{
		Domain:     []Interval{{Var: "t", Lo: 0, Hi: 1}},
		Dependents: []string{"u"},
		Equations: []expr.Equation{
			expr.Eq(expr.D(u(expr.Var("t")), "t"), expr.Num(1)),
		},
		BoundaryConditions: []expr.Equation{
			expr.Eq(u(expr.Num(0)), expr.Num(0)),
		},
	}
}

func allStrategies() map[string]strategy.Strategy {
	return map[string]strategy.Strategy{
		"grid":       strategy.GridTraining{Dx: []float64{0.1}},
		"stochastic": strategy.StochasticTraining{Points: 32, Seed: 7},
		"quasirandom": strategy.QuasiRandomTraining{
			Points: 32, Minibatch: 4, Sampler: strategy.SamplerHalton, Seed: 7,
		},
		"quadrature": strategy.QuadratureTraining{Algorithm: quadrature.GaussLegendre},
	}
}

func TestDiscretizeLinearODEZeroLoss(t *testing.T) {
	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			op, err := Discretize(linearODE(), []trial.Phi{linearPhi{dim: 1}}, [][]float64{{0, 1}}, s)
			require.NoError(t, err)
			require.Equal(t, []float64{0, 1}, op.InitParams)

			assert.InDelta(t, 0, op.Loss(op.InitParams), 1e-12)
			assert.InDelta(t, 0, op.PDELoss(op.InitParams), 1e-12)
			assert.InDelta(t, 0, op.BCLoss(op.InitParams), 1e-12)
		})
	}
}

func TestDiscretizeLossIsSumOfComponents(t *testing.T) {
	// theta = (0.3, 1) keeps du/dt exact but offsets the boundary value,
	// so both components and their sum are nonzero and well defined for
	// every strategy.
	theta := []float64{0.3, 1}
	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			op, err := Discretize(linearODE(), []trial.Phi{linearPhi{dim: 1}}, [][]float64{{0, 1}}, s)
			require.NoError(t, err)

			pde := op.PDELoss(theta)
			bc := op.BCLoss(theta)
			assert.InDelta(t, pde+bc, op.Loss(theta), 1e-12)
			assert.Greater(t, bc, 0.0)
		})
	}
}

func TestDiscretizeExtraParameters(t *testing.T) {
	// Inverse-style problem du/dt = a with a trained alongside the trial
	// parameters. The residual du/dt - a = 1 - a is constant over the
	// lattice {0.5, 1}, so the loss is 2*(1-a)^2.
	u := func(arg expr.Node) expr.Node { return expr.Apply("u", arg) }
	p := Problem{
		Domain:     []Interval{{Var: "t", Lo: 0, Hi: 1}},
		Dependents: []string{"u"},
		Equations: []expr.Equation{
			expr.Eq(expr.D(u(expr.Var("t")), "t"), expr.Var("a")),
		},
		BoundaryConditions: []expr.Equation{
			expr.Eq(u(expr.Num(0)), expr.Num(0)),
		},
		Parameters: []Param{{Name: "a", Init: 2}},
	}

	op, err := Discretize(p, []trial.Phi{linearPhi{dim: 1}}, [][]float64{{0, 1}}, strategy.GridTraining{Dx: []float64{0.5}})
	require.NoError(t, err)

	require.Equal(t, 2, op.ParamOffset)
	require.Equal(t, []float64{0, 1, 2}, op.InitParams)

	assert.InDelta(t, 2, op.Loss(op.InitParams), 1e-12)
	assert.InDelta(t, 0, op.Loss([]float64{0, 1, 1}), 1e-12)
}

func TestDiscretizeTwoDimensionalBoundary(t *testing.T) {
	// u(x, t) = x + t satisfies du/dx + du/dt = 2 with u(x, 0) = x and
	// u(0, t) = t, each boundary condition pinning one coordinate.
	u := func(a, b expr.Node) expr.Node { return expr.Apply("u", a, b) }
	p := Problem{
		Domain:     []Interval{{Var: "x", Lo: 0, Hi: 1}, {Var: "t", Lo: 0, Hi: 1}},
		Dependents: []string{"u"},
		Equations: []expr.Equation{
			expr.Eq(
				expr.Add(
					expr.D(u(expr.Var("x"), expr.Var("t")), "x"),
					expr.D(u(expr.Var("x"), expr.Var("t")), "t"),
				),
				expr.Num(2),
			),
		},
		BoundaryConditions: []expr.Equation{
			expr.Eq(u(expr.Var("x"), expr.Num(0)), expr.Var("x")),
			expr.Eq(u(expr.Num(0), expr.Var("t")), expr.Var("t")),
		},
	}

	theta := [][]float64{{0, 1, 1}}
	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			op, err := Discretize(p, []trial.Phi{linearPhi{dim: 2}}, theta, s)
			require.NoError(t, err)
			assert.InDelta(t, 0, op.Loss(op.InitParams), 1e-10)
		})
	}
}

func TestDiscretizeDimensionErrors(t *testing.T) {
	u := func(arg expr.Node) expr.Node { return expr.Apply("u", arg) }
	grid := strategy.GridTraining{Dx: []float64{0.1}}
	phis := []trial.Phi{linearPhi{dim: 1}}
	init := [][]float64{{0, 1}}

	t.Run("trial solution count", func(t *testing.T) {
		_, err := Discretize(linearODE(), nil, nil, grid)
		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
		assert.Equal(t, 1, dim.Want)
	})

	t.Run("segment length", func(t *testing.T) {
		_, err := Discretize(linearODE(), phis, [][]float64{{0}}, grid)
		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
		assert.Equal(t, 2, dim.Want)
	})

	t.Run("application arity", func(t *testing.T) {
		p := linearODE()
		p.Domain = append(p.Domain, Interval{Var: "y", Lo: 0, Hi: 1})
		_, err := Discretize(p, phis, init, grid)
		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
		assert.Equal(t, 2, dim.Want)
	})

	t.Run("boundary fixes nothing", func(t *testing.T) {
		p := linearODE()
		p.BoundaryConditions = []expr.Equation{
			expr.Eq(u(expr.Var("t")), expr.Num(0)),
		}
		_, err := Discretize(p, phis, init, grid)
		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
	})

	t.Run("duplicate variable", func(t *testing.T) {
		p := linearODE()
		p.Dependents = []string{"u", "u"}
		_, err := Discretize(p, []trial.Phi{linearPhi{dim: 1}, linearPhi{dim: 1}}, [][]float64{{0, 1}, {0, 1}}, grid)
		var dup *symbol.DuplicateVariableError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "u", dup.Name)
	})

	t.Run("conflicting pinned values", func(t *testing.T) {
		p := linearODE()
		p.BoundaryConditions = []expr.Equation{
			expr.Eq(expr.Sub(u(expr.Num(0)), u(expr.Num(1))), expr.Num(0)),
		}
		_, err := Discretize(p, phis, init, grid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pins")
	})
}
