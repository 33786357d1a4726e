// Package pde holds the symbolic problem description and the
// discretization driver that turns it into an optimization problem.
//
// Discretize is the only place that knows about every other component: it
// builds the variable registries, derives per-equation bounds, compiles
// residual closures, assembles the strategy-specific losses, and emits the
// (loss, initial parameters) pair consumed by an external optimizer.
package pde

import (
	"fmt"

	"github.com/pinn-ml/pinn/internal/expr"
	"github.com/pinn-ml/pinn/internal/loss"
	"github.com/pinn-ml/pinn/internal/strategy"
	"github.com/pinn-ml/pinn/internal/symbol"
	"github.com/pinn-ml/pinn/internal/transform"
	"github.com/pinn-ml/pinn/internal/trial"
)

// Interval is one independent variable with its domain interval.
type Interval = strategy.Interval

// Param declares one extra free parameter trained alongside the trial
// solution, for inverse problems. Its value lives at the tail of the flat
// parameter vector and equations may reference it by name.
type Param struct {
	Name string
	Init float64
}

// Problem is a symbolic boundary-value problem.
//
// The order of Domain defines the coordinate-vector layout; the order of
// Dependents defines the parameter-segment layout. Equations hold the
// interior constraints, BoundaryConditions the constraints restricted to a
// sub-manifold (expressed by fixing coordinates to literals inside the
// equations, e.g. u(0, t)).
type Problem struct {
	Domain             []Interval
	Dependents         []string
	Equations          []expr.Equation
	BoundaryConditions []expr.Equation
	Parameters         []Param
}

// OptimizationProblem is the discretization output: a scalar loss over one
// flat parameter vector, ready for an unconstrained minimizer.
//
// Loss is always the sum of PDELoss and BCLoss; the components are exposed
// for monitoring the two training pressures separately.
type OptimizationProblem struct {
	Loss       loss.Loss
	PDELoss    loss.Loss
	BCLoss     loss.Loss
	InitParams []float64

	// ParamOffset is the index where the extra free parameters start in
	// the flat vector; everything before it belongs to the trial
	// solutions.
	ParamOffset int
}

// DimensionMismatchError reports inconsistent dimensions in a problem
// description: wrong trial-solution count, wrong parameter-segment length,
// wrong equation arity, or a boundary condition with nothing fixed.
type DimensionMismatchError struct {
	Context   string
	Got, Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("pde: %s: got %d, want %d", e.Context, e.Got, e.Want)
}

// Discretize compiles the symbolic problem into an optimization problem.
//
// phis holds one trial solution per dependent variable and init the
// matching initial parameter segments. The flat vector is laid out as the
// concatenated segments followed by the extra parameters of
// p.Parameters, which are sliced off again before any trial evaluation.
func Discretize(p Problem, phis []trial.Phi, init [][]float64, s strategy.Strategy) (*OptimizationProblem, error) {
	indepNames := make([]string, len(p.Domain))
	for i, iv := range p.Domain {
		indepNames[i] = iv.Var
	}
	indep, err := symbol.New(indepNames...)
	if err != nil {
		return nil, err
	}
	dep, err := symbol.New(p.Dependents...)
	if err != nil {
		return nil, err
	}
	paramNames := make([]string, len(p.Parameters))
	for i, pr := range p.Parameters {
		paramNames[i] = pr.Name
	}
	params, err := symbol.New(paramNames...)
	if err != nil {
		return nil, err
	}

	if len(phis) != dep.Len() {
		return nil, &DimensionMismatchError{Context: "trial solutions", Got: len(phis), Want: dep.Len()}
	}
	if len(init) != len(phis) {
		return nil, &DimensionMismatchError{Context: "initial parameter segments", Got: len(init), Want: len(phis)}
	}
	for i, seg := range init {
		if len(seg) != phis[i].NumParams() {
			return nil, &DimensionMismatchError{
				Context: fmt.Sprintf("parameter segment for %q", dep.At(i+1)),
				Got:     len(seg), Want: phis[i].NumParams(),
			}
		}
	}

	ctx := transform.NewContext(indep, dep, params, phis)

	interior, err := buildTerms(ctx, p.Equations, p.Domain, indep, dep, false)
	if err != nil {
		return nil, err
	}
	boundary, err := buildTerms(ctx, p.BoundaryConditions, p.Domain, indep, dep, true)
	if err != nil {
		return nil, err
	}

	asm, err := loss.New(s, p.Domain)
	if err != nil {
		return nil, err
	}
	pdeLoss, bcLoss, err := asm.Assemble(interior, boundary)
	if err != nil {
		return nil, err
	}

	theta := make([]float64, 0, ctx.ParamOffset()+len(p.Parameters))
	for _, seg := range init {
		theta = append(theta, seg...)
	}
	for _, pr := range p.Parameters {
		theta = append(theta, pr.Init)
	}

	return &OptimizationProblem{
		Loss: func(theta []float64) float64 {
			return pdeLoss(theta) + bcLoss(theta)
		},
		PDELoss:     pdeLoss,
		BCLoss:      bcLoss,
		InitParams:  theta,
		ParamOffset: ctx.ParamOffset(),
	}, nil
}

// buildTerms compiles each equation to a residual and derives its bounds.
func buildTerms(ctx *transform.Context, eqs []expr.Equation, domain []Interval, indep, dep *symbol.Registry, isBoundary bool) ([]loss.Term, error) {
	terms := make([]loss.Term, 0, len(eqs))
	for _, eq := range eqs {
		bounds, err := equationBounds(eq, domain, indep, dep)
		if err != nil {
			return nil, err
		}
		if isBoundary && bounds.FreeDims() == len(domain) {
			return nil, &DimensionMismatchError{
				Context: fmt.Sprintf("boundary condition %q fixes no coordinate", eq.String()),
				Got:     bounds.FreeDims(), Want: len(domain) - 1,
			}
		}
		res, err := ctx.Residual(eq)
		if err != nil {
			return nil, err
		}
		terms = append(terms, loss.Term{Residual: res, Bounds: bounds})
	}
	return terms, nil
}

// equationBounds derives the per-coordinate bounds of one equation from
// the coordinate arguments of its dependent-variable applications: a
// literal argument pins the coordinate, the matching variable reference
// leaves it free over its domain interval. A coordinate is fixed only if
// every application agrees on the pinned value.
func equationBounds(eq expr.Equation, domain []Interval, indep, dep *symbol.Registry) (strategy.Bounds, error) {
	apps := transform.DepApplications(expr.Sub(eq.LHS, eq.RHS), dep)
	if len(apps) == 0 {
		return strategy.Bounds{}, fmt.Errorf("pde: equation %q references no dependent variable", eq.String())
	}

	dim := indep.Len()
	args := make([]strategy.Arg, dim)
	for d := range args {
		args[d] = strategy.Arg{Lo: domain[d].Lo, Hi: domain[d].Hi}
	}

	fixed := make([]bool, dim)
	free := make([]bool, dim)
	values := make([]float64, dim)

	for _, app := range apps {
		if len(app.Args) != dim {
			return strategy.Bounds{}, &DimensionMismatchError{
				Context: fmt.Sprintf("arguments of %q", app.Name),
				Got:     len(app.Args), Want: dim,
			}
		}
		for d, a := range app.Args {
			switch v := a.(type) {
			case expr.Literal:
				if fixed[d] && values[d] != v.Value {
					return strategy.Bounds{}, fmt.Errorf(
						"pde: equation %q pins %s to both %g and %g",
						eq.String(), indep.At(d+1), values[d], v.Value)
				}
				fixed[d] = true
				values[d] = v.Value
			case expr.VariableRef:
				if v.Name != indep.At(d+1) {
					return strategy.Bounds{}, fmt.Errorf(
						"pde: equation %q: argument %d of %q must be %s or a literal, got %s",
						eq.String(), d+1, app.Name, indep.At(d+1), v.Name)
				}
				free[d] = true
			default:
				// A composite coordinate expression keeps the full interval.
				free[d] = true
			}
		}
	}

	for d := range args {
		if fixed[d] && !free[d] {
			args[d] = strategy.Arg{Fixed: true, Value: values[d]}
		}
	}
	return strategy.Bounds{Args: args}, nil
}
