// Copyright 2026 PINN ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trial provides trial solutions: parameterized functions trained
// to satisfy the discretized equations. The built-in MLP covers the usual
// case; any type implementing Phi can be supplied instead.
package trial

import (
	"golang.org/x/exp/rand"

	"github.com/pinn-ml/pinn/internal/trial"
)

// Phi is a trial solution over a flat parameter slice.
type Phi = trial.Phi

// MLP is a fully connected network with tanh hidden layers and a single
// linear output.
type MLP = trial.MLP

// NewMLP builds an MLP taking inputs coordinates through the given hidden
// layer sizes.
//
// Example:
//
//	phi := trial.NewMLP(2, 16, 16)
//	theta := phi.InitParams(rand.NewSource(1))
func NewMLP(inputs int, hidden ...int) *MLP {
	return trial.NewMLP(inputs, hidden...)
}

// InitParams draws Xavier-initialized parameters for phi.
func InitParams(phi *MLP, src rand.Source) []float64 {
	return phi.InitParams(src)
}
