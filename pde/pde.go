// Copyright 2026 PINN ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pde is the public surface for describing boundary-value
// problems symbolically and discretizing them into a physics-informed
// loss over the parameters of a trial solution.
//
// Equations are built from the expression constructors re-exported here:
//
//	u := func(t pde.Node) pde.Node { return pde.Apply("u", t) }
//	eq := pde.Eq(pde.D(u(pde.Var("t")), "t"), pde.Cos(pde.Var("t")))
package pde

import (
	"github.com/pinn-ml/pinn/internal/expr"
	"github.com/pinn-ml/pinn/internal/pde"
	"github.com/pinn-ml/pinn/internal/symbol"
	"github.com/pinn-ml/pinn/internal/transform"
	"github.com/pinn-ml/pinn/strategy"
	"github.com/pinn-ml/pinn/trial"
)

// Problem is a symbolic boundary-value problem over a hyperrectangular
// domain.
type Problem = pde.Problem

// Interval is one independent variable with its domain interval.
type Interval = pde.Interval

// Param declares an extra trainable parameter referenced by name in the
// equations, for inverse problems.
type Param = pde.Param

// OptimizationProblem is the discretization output: the total loss, its
// interior and boundary components, and the initial flat parameter vector.
type OptimizationProblem = pde.OptimizationProblem

// DimensionMismatchError reports inconsistent dimensions in a problem
// description.
type DimensionMismatchError = pde.DimensionMismatchError

// DuplicateVariableError reports a variable name declared twice.
type DuplicateVariableError = symbol.DuplicateVariableError

// UnrecognizedVariableError reports a symbol used in an equation that is
// neither an independent variable, a dependent variable, a declared
// parameter nor a builtin function.
type UnrecognizedVariableError = transform.UnrecognizedVariableError

// Discretize compiles the symbolic problem into an optimization problem
// using one trial solution and one initial parameter segment per
// dependent variable.
//
// Example:
//
//	phi := trial.NewMLP(1, 16, 16)
//	op, err := pde.Discretize(problem,
//	    []trial.Phi{phi},
//	    [][]float64{phi.InitParams(rand.NewSource(1))},
//	    strategy.GridTraining{Dx: []float64{0.05}},
//	)
func Discretize(p Problem, phis []trial.Phi, init [][]float64, s strategy.Strategy) (*OptimizationProblem, error) {
	return pde.Discretize(p, phis, init, s)
}

// Expression nodes and equations.

// Node is one node of a symbolic expression tree.
type Node = expr.Node

// Equation equates two expressions; the residual is LHS minus RHS.
type Equation = expr.Equation

// Eq builds an equation from its two sides.
func Eq(lhs, rhs Node) Equation { return expr.Eq(lhs, rhs) }

// Num is a numeric literal.
func Num(v float64) Node { return expr.Num(v) }

// Var references an independent variable or a declared parameter by name.
func Var(name string) Node { return expr.Var(name) }

// Apply applies a dependent variable or builtin function to arguments.
func Apply(name string, args ...Node) Node { return expr.Apply(name, args...) }

// D is the partial derivative of arg with respect to the named variables;
// repeat a name for higher orders: D(u, "x", "x") is the second
// derivative in x.
func D(arg Node, wrt ...string) Node { return expr.D(arg, wrt...) }

// Arithmetic constructors.

func Add(l, r Node) Node { return expr.Add(l, r) }
func Sub(l, r Node) Node { return expr.Sub(l, r) }
func Mul(l, r Node) Node { return expr.Mul(l, r) }
func Div(l, r Node) Node { return expr.Div(l, r) }
func Pow(l, r Node) Node { return expr.Pow(l, r) }
func Neg(n Node) Node    { return expr.Neg(n) }

// Builtin function constructors.

func Sin(n Node) Node  { return expr.Sin(n) }
func Cos(n Node) Node  { return expr.Cos(n) }
func Exp(n Node) Node  { return expr.Exp(n) }
func Log(n Node) Node  { return expr.Log(n) }
func Tanh(n Node) Node { return expr.Tanh(n) }
func Sqrt(n Node) Node { return expr.Sqrt(n) }
func Abs(n Node) Node  { return expr.Abs(n) }
