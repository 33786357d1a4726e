// Copyright 2026 PINN ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides first-order optimizers over the flat parameter
// vector of a discretized problem.
//
// # Overview
//
// This package contains:
//   - SGD: stochastic gradient descent with momentum
//   - Adam: adaptive moment estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	optimizer := optim.NewAdam(len(op.InitParams), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	})
//
//	params := append([]float64(nil), op.InitParams...)
//	grad := make([]float64, len(params))
//	for iter := 0; iter < 500; iter++ {
//	    fd.Gradient(grad, op.Loss, params, nil)
//	    optimizer.Step(params, grad)
//	}
//
// The train package wraps this loop; use it unless you need custom
// gradient handling.
package optim

import (
	"github.com/pinn-ml/pinn/internal/optim"
)

// Optimizer updates parameters in place from a gradient of the same
// length.
type Optimizer = optim.Optimizer

// SGD (Stochastic Gradient Descent)

// SGD implements stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer for n parameters.
//
// Example:
//
//	optimizer := optim.NewSGD(n, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(n int, config SGDConfig) *SGD {
	return optim.NewSGD(n, config)
}

// Adam (Adaptive Moment Estimation)

// Adam implements the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for the Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction for n
// parameters.
//
// Example:
//
//	optimizer := optim.NewAdam(n, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	})
func NewAdam(n int, config AdamConfig) *Adam {
	return optim.NewAdam(n, config)
}
