// Copyright 2026 PINN ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package strategy selects how training points are produced from the
// problem domain: a fixed grid, per-call uniform resampling, precomputed
// quasi-random minibatches, or adaptive quadrature over the residual.
package strategy

import (
	"github.com/pinn-ml/pinn/internal/quadrature"
	"github.com/pinn-ml/pinn/internal/strategy"
)

// Strategy is one of the training-point strategies below.
type Strategy = strategy.Strategy

// GridTraining places points on a regular lattice with spacing Dx per
// dimension; a single entry is broadcast across all dimensions.
type GridTraining = strategy.GridTraining

// StochasticTraining draws Points fresh uniform samples on every loss
// evaluation.
type StochasticTraining = strategy.StochasticTraining

// QuasiRandomTraining precomputes Minibatch low-discrepancy point sets of
// Points samples each and picks one per loss evaluation.
type QuasiRandomTraining = strategy.QuasiRandomTraining

// QuadratureTraining integrates the squared residual over the equation
// bounds instead of sampling points.
type QuadratureTraining = strategy.QuadratureTraining

// Sampler selects the low-discrepancy sequence for QuasiRandomTraining.
type Sampler = strategy.Sampler

const (
	SamplerHalton         = strategy.SamplerHalton
	SamplerLatinHypercube = strategy.SamplerLatinHypercube
	SamplerUniform        = strategy.SamplerUniform
)

// Algorithm selects the integration rule for QuadratureTraining.
type Algorithm = quadrature.Algorithm

const (
	GaussLegendre = quadrature.GaussLegendre
	Cubature      = quadrature.Cubature
)
