// Package transform rewrites symbolic equations into executable residual
// closures.
//
// The transformation runs in two explicit passes over the immutable
// expression tree:
//
//  1. Rewrite: a depth-first walk that recognizes dependent-variable
//     applications and chains of nested derivative operators, and replaces
//     each match with a generated call node bound to the trial solution or
//     the finite-difference derivative operator. Temporary call names come
//     from a counter scoped to the Context, and a second Rewrite pass
//     leaves an already-rewritten tree untouched.
//  2. Compile: the rewritten tree is folded into a closure. No code is
//     generated or compiled at run time; the tree is only an intermediate
//     representation for pattern recognition.
//
// Every residual supports two evaluation modes with identical numerics:
// pointwise (for quadrature training, which probes single points) and
// batch (for the sampling strategies, which evaluate whole point sets).
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pinn-ml/pinn/internal/expr"
	"github.com/pinn-ml/pinn/internal/fdm"
	"github.com/pinn-ml/pinn/internal/symbol"
	"github.com/pinn-ml/pinn/internal/trial"
)

// UnrecognizedVariableError reports a function symbol that is neither a
// registered dependent variable, a registered independent variable or
// parameter, nor a builtin operator.
type UnrecognizedVariableError struct {
	Name string
}

func (e *UnrecognizedVariableError) Error() string {
	return fmt.Sprintf("transform: unrecognized variable %q", e.Name)
}

// boundCall is the numeric target of a rewritten pattern: a trial-solution
// evaluation or a finite-difference derivative of one.
type boundCall struct {
	scalar func(coords, theta []float64) float64
	batch  func(coords *mat.Dense, theta []float64, dst []float64)
}

// Context carries the registries, trial solutions, and parameter layout one
// problem's equations are compiled against.
type Context struct {
	indep  *symbol.Registry
	dep    *symbol.Registry
	params *symbol.Registry // named free parameters; may be empty

	phis       []trial.Phi
	segOffsets []int // per-dependent-variable segment starts, plus total
	calls      map[string]*boundCall
	tmp        int // locally-scoped temporary-name counter
}

// NewContext builds a compilation context. phis must hold one trial
// solution per dependent variable; the flat parameter vector is laid out as
// the concatenated per-variable segments followed by the named parameters.
func NewContext(indep, dep, params *symbol.Registry, phis []trial.Phi) *Context {
	offsets := make([]int, len(phis)+1)
	for i, p := range phis {
		offsets[i+1] = offsets[i] + p.NumParams()
	}
	return &Context{
		indep:      indep,
		dep:        dep,
		params:     params,
		phis:       phis,
		segOffsets: offsets,
		calls:      make(map[string]*boundCall),
	}
}

// ParamOffset returns the index where the named free parameters start in
// the flat parameter vector.
func (c *Context) ParamOffset() int { return c.segOffsets[len(c.phis)] }

// segment slices the parameter segment of dependent variable k (1-based)
// out of the flat vector.
func (c *Context) segment(k int, theta []float64) []float64 {
	return theta[c.segOffsets[k-1]:c.segOffsets[k]]
}

// Rewrite returns a new tree with every derivative and trial-application
// pattern replaced by a bound call node. Running Rewrite on its own output
// is a no-op: bound call names are recognized and skipped, so no pattern is
// matched twice.
func (c *Context) Rewrite(n expr.Node) (expr.Node, error) {
	switch v := n.(type) {
	case expr.Literal, expr.VariableRef:
		return n, nil

	case expr.BinaryOp:
		left, err := c.Rewrite(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.Rewrite(v.Right)
		if err != nil {
			return nil, err
		}
		return expr.BinaryOp{Op: v.Op, Left: left, Right: right}, nil

	case expr.Derivative:
		return c.rewriteDerivative(v)

	case expr.FunctionApply:
		if _, ok := c.calls[v.Name]; ok {
			// Already rewritten; halt matching on this subtree.
			return n, nil
		}
		args, err := c.rewriteAll(v.Args)
		if err != nil {
			return nil, err
		}
		if k, ok := c.dep.Index(v.Name); ok {
			return c.bindTrial(v.Name, k, args)
		}
		if _, ok := expr.Builtin(v.Name); ok {
			return expr.FunctionApply{Name: v.Name, Args: args}, nil
		}
		return nil, &UnrecognizedVariableError{Name: v.Name}
	}
	return nil, fmt.Errorf("transform: unhandled node %T", n)
}

func (c *Context) rewriteAll(args []expr.Node) ([]expr.Node, error) {
	out := make([]expr.Node, len(args))
	for i, a := range args {
		r, err := c.Rewrite(a)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// rewriteDerivative unwinds a chain of nested Derivative nodes. The nesting
// depth is the derivative order; the differentiation variable at each level
// contributes one perturbation mask.
func (c *Context) rewriteDerivative(d expr.Derivative) (expr.Node, error) {
	var wrts []string // innermost differentiation variable first
	node := expr.Node(d)
	for {
		dv, ok := node.(expr.Derivative)
		if !ok {
			break
		}
		wrts = append([]string{dv.Wrt}, wrts...)
		node = dv.Arg
	}

	apply, ok := node.(expr.FunctionApply)
	if !ok {
		return nil, fmt.Errorf("transform: derivative of non-trial expression %s", node)
	}
	k, ok := c.dep.Index(apply.Name)
	if !ok {
		if _, bound := c.calls[apply.Name]; bound {
			// The inner application was already rewritten; the tree has
			// been transformed before. Leave it alone.
			return d, nil
		}
		return nil, &UnrecognizedVariableError{Name: apply.Name}
	}

	args, err := c.rewriteAll(apply.Args)
	if err != nil {
		return nil, err
	}

	order := len(wrts)
	masks := make([][]float64, order)
	for i, wrt := range wrts {
		idx, ok := c.indep.Index(wrt)
		if !ok {
			return nil, &UnrecognizedVariableError{Name: wrt}
		}
		masks[i] = fdm.Mask(c.indep.Len(), idx-1)
	}

	phi := c.phis[k-1]
	bound := &boundCall{
		scalar: func(coords, theta []float64) float64 {
			seg := c.segment(k, theta)
			return fdm.Derivative(func(y []float64) float64 {
				return phi.Eval(y, seg)
			}, coords, masks, order)
		},
		batch: func(coords *mat.Dense, theta []float64, dst []float64) {
			seg := c.segment(k, theta)
			fdm.DerivativeBatch(func(p *mat.Dense, out []float64) {
				phi.EvalBatch(p, seg, out)
			}, coords, masks, order, dst)
		},
	}
	return c.register("deriv", apply.Name, bound, args), nil
}

// bindTrial rewrites a dependent-variable application into a bound trial
// evaluation.
func (c *Context) bindTrial(name string, k int, args []expr.Node) (expr.Node, error) {
	phi := c.phis[k-1]
	bound := &boundCall{
		scalar: func(coords, theta []float64) float64 {
			return phi.Eval(coords, c.segment(k, theta))
		},
		batch: func(coords *mat.Dense, theta []float64, dst []float64) {
			phi.EvalBatch(coords, c.segment(k, theta), dst)
		},
	}
	return c.register("phi", name, bound, args), nil
}

// register stores the bound call under a fresh temporary name and returns
// the replacement node. With a single dependent variable the name is flat;
// with several, the variable name is kept as a suffix.
func (c *Context) register(kind, varName string, bound *boundCall, args []expr.Node) expr.Node {
	c.tmp++
	name := fmt.Sprintf("%s#%d", kind, c.tmp)
	if c.dep.Len() > 1 {
		name = fmt.Sprintf("%s_%s#%d", kind, varName, c.tmp)
	}
	c.calls[name] = bound
	return expr.FunctionApply{Name: name, Args: args}
}

// Residual is one equation compiled to a callable residual, LHS minus RHS.
// Both modes are pure functions and safe for concurrent use.
type Residual struct {
	// Pointwise evaluates the residual at one coordinate vector.
	Pointwise func(x, theta []float64) float64

	// Batch evaluates the residual at every row of pts, one value per row
	// into dst.
	Batch func(pts *mat.Dense, theta []float64, dst []float64)
}

// Residual rewrites and compiles one equation into its residual closure.
func (c *Context) Residual(eq expr.Equation) (*Residual, error) {
	tree, err := c.Rewrite(expr.Sub(eq.LHS, eq.RHS))
	if err != nil {
		return nil, fmt.Errorf("equation %q: %w", eq.String(), err)
	}

	scalar, err := c.compileScalar(tree)
	if err != nil {
		return nil, fmt.Errorf("equation %q: %w", eq.String(), err)
	}
	batch, err := c.compileBatch(tree)
	if err != nil {
		return nil, fmt.Errorf("equation %q: %w", eq.String(), err)
	}

	return &Residual{
		Pointwise: scalar,
		Batch: func(pts *mat.Dense, theta []float64, dst []float64) {
			copy(dst, batch(pts, theta))
		},
	}, nil
}

// compileScalar folds a rewritten tree into a pointwise evaluator.
func (c *Context) compileScalar(n expr.Node) (func(x, theta []float64) float64, error) {
	switch v := n.(type) {
	case expr.Literal:
		val := v.Value
		return func(_, _ []float64) float64 { return val }, nil

	case expr.VariableRef:
		if idx, ok := c.indep.Index(v.Name); ok {
			i := idx - 1
			return func(x, _ []float64) float64 { return x[i] }, nil
		}
		if c.params != nil {
			if idx, ok := c.params.Index(v.Name); ok {
				i := c.ParamOffset() + idx - 1
				return func(_, theta []float64) float64 { return theta[i] }, nil
			}
		}
		return nil, &UnrecognizedVariableError{Name: v.Name}

	case expr.BinaryOp:
		left, err := c.compileScalar(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compileScalar(v.Right)
		if err != nil {
			return nil, err
		}
		op := scalarOp(v.Op)
		return func(x, theta []float64) float64 {
			return op(left(x, theta), right(x, theta))
		}, nil

	case expr.FunctionApply:
		args := make([]func(x, theta []float64) float64, len(v.Args))
		for i, a := range v.Args {
			f, err := c.compileScalar(a)
			if err != nil {
				return nil, err
			}
			args[i] = f
		}
		if bound, ok := c.calls[v.Name]; ok {
			return func(x, theta []float64) float64 {
				coords := make([]float64, len(args))
				for i, f := range args {
					coords[i] = f(x, theta)
				}
				return bound.scalar(coords, theta)
			}, nil
		}
		if f, ok := expr.Builtin(v.Name); ok {
			if len(args) != 1 {
				return nil, fmt.Errorf("transform: %s takes one argument, got %d", v.Name, len(args))
			}
			arg := args[0]
			return func(x, theta []float64) float64 {
				return f(arg(x, theta))
			}, nil
		}
		return nil, &UnrecognizedVariableError{Name: v.Name}

	case expr.Derivative:
		return nil, fmt.Errorf("transform: compile called on unrewritten derivative %s", v)
	}
	return nil, fmt.Errorf("transform: unhandled node %T", n)
}

// compileBatch folds a rewritten tree into a vectorized evaluator that
// computes one value per row of the point batch.
func (c *Context) compileBatch(n expr.Node) (func(pts *mat.Dense, theta []float64) []float64, error) {
	switch v := n.(type) {
	case expr.Literal:
		val := v.Value
		return func(pts *mat.Dense, _ []float64) []float64 {
			n, _ := pts.Dims()
			out := make([]float64, n)
			for i := range out {
				out[i] = val
			}
			return out
		}, nil

	case expr.VariableRef:
		if idx, ok := c.indep.Index(v.Name); ok {
			col := idx - 1
			return func(pts *mat.Dense, _ []float64) []float64 {
				n, _ := pts.Dims()
				out := make([]float64, n)
				for i := range out {
					out[i] = pts.At(i, col)
				}
				return out
			}, nil
		}
		if c.params != nil {
			if idx, ok := c.params.Index(v.Name); ok {
				i := c.ParamOffset() + idx - 1
				return func(pts *mat.Dense, theta []float64) []float64 {
					n, _ := pts.Dims()
					out := make([]float64, n)
					for j := range out {
						out[j] = theta[i]
					}
					return out
				}, nil
			}
		}
		return nil, &UnrecognizedVariableError{Name: v.Name}

	case expr.BinaryOp:
		left, err := c.compileBatch(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compileBatch(v.Right)
		if err != nil {
			return nil, err
		}
		op := scalarOp(v.Op)
		return func(pts *mat.Dense, theta []float64) []float64 {
			l := left(pts, theta)
			r := right(pts, theta)
			for i := range l {
				l[i] = op(l[i], r[i])
			}
			return l
		}, nil

	case expr.FunctionApply:
		args := make([]func(pts *mat.Dense, theta []float64) []float64, len(v.Args))
		for i, a := range v.Args {
			f, err := c.compileBatch(a)
			if err != nil {
				return nil, err
			}
			args[i] = f
		}
		if bound, ok := c.calls[v.Name]; ok {
			return func(pts *mat.Dense, theta []float64) []float64 {
				n, _ := pts.Dims()
				coords := mat.NewDense(n, len(args), nil)
				for j, f := range args {
					col := f(pts, theta)
					for i, v := range col {
						coords.Set(i, j, v)
					}
				}
				out := make([]float64, n)
				bound.batch(coords, theta, out)
				return out
			}, nil
		}
		if f, ok := expr.Builtin(v.Name); ok {
			if len(args) != 1 {
				return nil, fmt.Errorf("transform: %s takes one argument, got %d", v.Name, len(args))
			}
			arg := args[0]
			return func(pts *mat.Dense, theta []float64) []float64 {
				out := arg(pts, theta)
				for i := range out {
					out[i] = f(out[i])
				}
				return out
			}, nil
		}
		return nil, &UnrecognizedVariableError{Name: v.Name}

	case expr.Derivative:
		return nil, fmt.Errorf("transform: compile called on unrewritten derivative %s", v)
	}
	return nil, fmt.Errorf("transform: unhandled node %T", n)
}

func scalarOp(op expr.Op) func(a, b float64) float64 {
	switch op {
	case expr.OpAdd:
		return func(a, b float64) float64 { return a + b }
	case expr.OpSub:
		return func(a, b float64) float64 { return a - b }
	case expr.OpMul:
		return func(a, b float64) float64 { return a * b }
	case expr.OpDiv:
		return func(a, b float64) float64 { return a / b }
	case expr.OpPow:
		return math.Pow
	}
	panic("transform: unknown operator")
}

// DepApplications collects every dependent-variable application in the
// (unrewritten) tree, including those nested under derivative operators.
// The driver derives per-equation bounds from the literal coordinate
// arguments found here.
func DepApplications(n expr.Node, dep *symbol.Registry) []expr.FunctionApply {
	var out []expr.FunctionApply
	var walk func(expr.Node)
	walk = func(n expr.Node) {
		switch v := n.(type) {
		case expr.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case expr.Derivative:
			walk(v.Arg)
		case expr.FunctionApply:
			if dep.Contains(v.Name) {
				out = append(out, v)
				return
			}
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(n)
	return out
}
