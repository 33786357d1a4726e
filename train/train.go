// Copyright 2026 PINN ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train minimizes a discretized physics-informed loss, either
// with L-BFGS or with a first-order optimizer loop.
package train

import (
	"github.com/pinn-ml/pinn/internal/pde"
	"github.com/pinn-ml/pinn/internal/train"
)

// Result holds the trained parameters, the final loss and the iteration
// count.
type Result = train.Result

// Config controls the Fit loop. Its Optimizer field accepts any optimizer
// from the optim package; Adam with default settings is used when nil.
type Config = train.Config

// Minimize runs L-BFGS with finite-difference gradients until convergence
// or maxIterations.
//
// Example:
//
//	op, _ := pde.Discretize(problem, phis, init, strat)
//	res, err := train.Minimize(op, 500)
func Minimize(op *pde.OptimizationProblem, maxIterations int) (*Result, error) {
	return train.Minimize(op, maxIterations)
}

// Fit runs a first-order optimizer loop, better suited to the resampling
// strategies than a line-search method.
func Fit(op *pde.OptimizationProblem, cfg Config) (*Result, error) {
	return train.Fit(op, cfg)
}
