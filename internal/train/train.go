// Package train minimizes a discretized loss over the flat parameter
// vector. Gradients come from finite differences so any loss assembled by
// the discretization driver can be trained without an autodiff tape.
package train

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/pinn-ml/pinn/internal/optim"
	"github.com/pinn-ml/pinn/internal/pde"
)

// Result holds the trained parameters and the final loss value.
type Result struct {
	Params []float64
	Loss   float64

	// Iterations is the number of optimizer iterations actually run.
	Iterations int
}

// Minimize runs gonum's L-BFGS on the optimization problem until
// convergence or maxIterations, starting from op.InitParams.
func Minimize(op *pde.OptimizationProblem, maxIterations int) (*Result, error) {
	problem := optimize.Problem{
		Func: op.Loss,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, op.Loss, x, nil)
		},
	}
	settings := &optimize.Settings{MajorIterations: maxIterations}

	res, err := optimize.Minimize(problem, op.InitParams, settings, &optimize.LBFGS{})
	if err != nil {
		return nil, fmt.Errorf("minimize: %w", err)
	}
	return &Result{Params: res.X, Loss: res.F, Iterations: res.MajorIterations}, nil
}

// Config controls the first-order Fit loop. Zero values select Adam with
// its default rate, 100 iterations and no callback.
type Config struct {
	Optimizer  optim.Optimizer
	Iterations int

	// Callback, when set, observes every iteration and may stop the loop
	// early by returning false.
	Callback func(iter int, loss float64, params []float64) bool
}

// Fit runs a first-order optimizer with finite-difference gradients.
// Unlike Minimize it never terminates on its own convergence criteria,
// which makes it the better fit for the stochastic strategies where the
// loss value jitters between iterations.
func Fit(op *pde.OptimizationProblem, cfg Config) (*Result, error) {
	iterations := cfg.Iterations
	if iterations == 0 {
		iterations = 100
	}
	params := make([]float64, len(op.InitParams))
	copy(params, op.InitParams)

	opt := cfg.Optimizer
	if opt == nil {
		opt = optim.NewAdam(len(params), optim.AdamConfig{})
	}

	grad := make([]float64, len(params))
	iter := 0
	for ; iter < iterations; iter++ {
		fd.Gradient(grad, op.Loss, params, nil)
		opt.Step(params, grad)

		if cfg.Callback != nil && !cfg.Callback(iter, op.Loss(params), params) {
			iter++
			break
		}
	}
	return &Result{Params: params, Loss: op.Loss(params), Iterations: iter}, nil
}
