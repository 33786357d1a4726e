// Package expr defines the symbolic expression trees a PDE problem is
// written in.
//
// Trees are immutable tagged variants:
//   - Literal: a numeric constant
//   - VariableRef: a named independent variable or free parameter
//   - FunctionApply: a named function applied to argument trees; the name is
//     either a dependent variable ("u") or a builtin ("sin", "exp", ...)
//   - Derivative: a partial derivative of its argument with respect to one
//     independent variable; nest Derivative nodes for higher orders
//   - BinaryOp: +, -, *, /, ^
//
// Construction goes through the builder functions (Var, Num, Apply, D, Add,
// ...). An Equation pairs two trees and is read as "LHS - RHS = 0".
package expr

import (
	"fmt"
	"math"
	"strings"
)

// Node is a symbolic expression tree.
type Node interface {
	fmt.Stringer
	isNode()
}

// Literal is a numeric constant.
type Literal struct {
	Value float64
}

// VariableRef names an independent variable or a free parameter.
type VariableRef struct {
	Name string
}

// FunctionApply applies a named function to argument trees.
//
// When Name is a registered dependent variable, Args are the coordinate
// expressions it is evaluated at (one per independent variable, in
// declaration order). Otherwise Name must resolve to a builtin.
type FunctionApply struct {
	Name string
	Args []Node
}

// Derivative differentiates Arg with respect to the independent variable
// Wrt. Higher orders and mixed partials are written as nested Derivative
// nodes, innermost first.
type Derivative struct {
	Arg Node
	Wrt string
}

// Op identifies a binary arithmetic operator.
type Op int

// Binary operators.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

// BinaryOp combines two subtrees with an arithmetic operator.
type BinaryOp struct {
	Op          Op
	Left, Right Node
}

// Equation pairs a left- and right-hand side, read as "LHS - RHS = 0".
type Equation struct {
	LHS, RHS Node
}

func (Literal) isNode()       {}
func (VariableRef) isNode()   {}
func (FunctionApply) isNode() {}
func (Derivative) isNode()    {}
func (BinaryOp) isNode()      {}

// Builders.

// Num returns a literal constant node.
func Num(v float64) Node { return Literal{Value: v} }

// Var returns a reference to a named variable.
func Var(name string) Node { return VariableRef{Name: name} }

// Apply applies the named function to the given arguments.
func Apply(name string, args ...Node) Node {
	return FunctionApply{Name: name, Args: args}
}

// D differentiates arg with respect to the named variables in order.
// Repeat a name for higher orders: D(u, "x", "x") is the second
// derivative in x and nests the same tree as D(D(u, "x"), "x").
func D(arg Node, wrt ...string) Node {
	for _, w := range wrt {
		arg = Derivative{Arg: arg, Wrt: w}
	}
	return arg
}

// Add returns a + b.
func Add(a, b Node) Node { return BinaryOp{Op: OpAdd, Left: a, Right: b} }

// Sub returns a - b.
func Sub(a, b Node) Node { return BinaryOp{Op: OpSub, Left: a, Right: b} }

// Mul returns a * b.
func Mul(a, b Node) Node { return BinaryOp{Op: OpMul, Left: a, Right: b} }

// Div returns a / b.
func Div(a, b Node) Node { return BinaryOp{Op: OpDiv, Left: a, Right: b} }

// Pow returns a ^ b.
func Pow(a, b Node) Node { return BinaryOp{Op: OpPow, Left: a, Right: b} }

// Neg returns -a.
func Neg(a Node) Node { return BinaryOp{Op: OpMul, Left: Num(-1), Right: a} }

// Convenience wrappers for the builtin functions.

// Sin returns sin(a).
func Sin(a Node) Node { return Apply("sin", a) }

// Cos returns cos(a).
func Cos(a Node) Node { return Apply("cos", a) }

// Exp returns e^a.
func Exp(a Node) Node { return Apply("exp", a) }

// Log returns the natural logarithm of a.
func Log(a Node) Node { return Apply("log", a) }

// Tanh returns tanh(a).
func Tanh(a Node) Node { return Apply("tanh", a) }

// Sqrt returns the square root of a.
func Sqrt(a Node) Node { return Apply("sqrt", a) }

// Abs returns |a|.
func Abs(a Node) Node { return Apply("abs", a) }

// Eq builds the equation lhs = rhs.
func Eq(lhs, rhs Node) Equation { return Equation{LHS: lhs, RHS: rhs} }

// Builtin returns the scalar implementation of a builtin function name and
// whether the name is known. Builtins are unary.
func Builtin(name string) (func(float64) float64, bool) {
	f, ok := builtins[name]
	return f, ok
}

var builtins = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"log":  math.Log,
	"tanh": math.Tanh,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
}

// String renders the tree in infix form. Intended for error messages and
// debugging, not for round-tripping.
func (l Literal) String() string {
	return fmt.Sprintf("%g", l.Value)
}

func (v VariableRef) String() string { return v.Name }

func (f FunctionApply) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

func (d Derivative) String() string {
	return fmt.Sprintf("∂%s/∂%s", d.Arg, d.Wrt)
}

func (b BinaryOp) String() string {
	var op string
	switch b.Op {
	case OpAdd:
		op = "+"
	case OpSub:
		op = "-"
	case OpMul:
		op = "*"
	case OpDiv:
		op = "/"
	case OpPow:
		op = "^"
	}
	return fmt.Sprintf("(%s %s %s)", b.Left, op, b.Right)
}

func (e Equation) String() string {
	return fmt.Sprintf("%s = %s", e.LHS, e.RHS)
}
