package loss

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/pinn-ml/pinn/internal/expr"
	"github.com/pinn-ml/pinn/internal/quadrature"
	"github.com/pinn-ml/pinn/internal/strategy"
	"github.com/pinn-ml/pinn/internal/symbol"
	"github.com/pinn-ml/pinn/internal/transform"
	"github.com/pinn-ml/pinn/internal/trial"
)

// shiftPhi(t) = t + theta[0]. With the equation du/dt = 1 its PDE residual
// is identically zero and its u(0)=0 boundary residual is exactly theta[0],
// independent of where points land. That makes losses predictable even for
// the sampling strategies.
type shiftPhi struct{}

func (shiftPhi) Eval(x, theta []float64) float64 { return x[0] + theta[0] }
func (p shiftPhi) EvalBatch(pts *mat.Dense, theta []float64, dst []float64) {
	n, _ := pts.Dims()
	for i := 0; i < n; i++ {
		dst[i] = p.Eval(pts.RawRowView(i), theta)
	}
}
func (shiftPhi) NumParams() int { return 1 }

// odeTerms builds the terms for du/dt = 1, u(0) = 0 on t in [0,1].
func odeTerms(t *testing.T) (interior, boundary []Term, domain []strategy.Interval) {
	t.Helper()
	indep, _ := symbol.New("t")
	dep, _ := symbol.New("u")
	params, _ := symbol.New()
	ctx := transform.NewContext(indep, dep, params, []trial.Phi{shiftPhi{}})

	u := expr.Apply("u", expr.Var("t"))
	eqRes, err := ctx.Residual(expr.Eq(expr.D(u, "t"), expr.Num(1)))
	if err != nil {
		t.Fatal(err)
	}
	bcRes, err := ctx.Residual(expr.Eq(expr.Apply("u", expr.Num(0)), expr.Num(0)))
	if err != nil {
		t.Fatal(err)
	}

	domain = []strategy.Interval{{Var: "t", Lo: 0, Hi: 1}}
	full := strategy.Bounds{Args: []strategy.Arg{{Lo: 0, Hi: 1}}}
	pinned := strategy.Bounds{Args: []strategy.Arg{{Fixed: true, Value: 0}}}

	interior = []Term{{Residual: eqRes, Bounds: full}}
	boundary = []Term{{Residual: bcRes, Bounds: pinned}}
	return interior, boundary, domain
}

func strategies() map[string]strategy.Strategy {
	return map[string]strategy.Strategy{
		"grid":       strategy.GridTraining{Dx: []float64{0.1}},
		"stochastic": strategy.StochasticTraining{Points: 64, Seed: 5},
		"quasirandom": strategy.QuasiRandomTraining{
			Points: 64, Minibatch: 4, Sampler: strategy.SamplerHalton, Seed: 5,
		},
		"quadrature": strategy.QuadratureTraining{Algorithm: quadrature.GaussLegendre},
	}
}

func TestAssemble_ExactSolutionZeroPDELoss(t *testing.T) {
	interior, boundary, domain := odeTerms(t)

	for name, s := range strategies() {
		asm, err := New(s, domain)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		pde, bc, err := asm.Assemble(interior, boundary)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		// theta[0] = 0: u(t) = t solves the problem exactly.
		theta := []float64{0}
		if got := pde(theta); math.Abs(got) > 1e-12 {
			t.Errorf("%s: pde loss %g, want 0", name, got)
		}
		if got := bc(theta); math.Abs(got) > 1e-12 {
			t.Errorf("%s: bc loss %g, want 0", name, got)
		}
	}
}

func TestAssemble_BCLossSeesShift(t *testing.T) {
	interior, boundary, domain := odeTerms(t)

	// theta[0] = 0.5: pde residual still zero, bc residual 0.5 at the one
	// boundary point.
	theta := []float64{0.5}

	for name, s := range strategies() {
		asm, err := New(s, domain)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		pde, bc, err := asm.Assemble(interior, boundary)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if got := pde(theta); math.Abs(got) > 1e-12 {
			t.Errorf("%s: pde loss %g, want 0", name, got)
		}

		got := bc(theta)
		// Every strategy reduces the zero-dimensional boundary to a single
		// point; quadrature additionally applies its weight of
		// 1/(bcCount * tau^0) = 1. The expected value is 0.25 throughout.
		if math.Abs(got-0.25) > 1e-12 {
			t.Errorf("%s: bc loss %g, want 0.25", name, got)
		}
	}
}

func TestAssemble_GridCounts(t *testing.T) {
	interior, boundary, domain := odeTerms(t)

	asm, err := New(strategy.GridTraining{Dx: []float64{0.25}}, domain)
	if err != nil {
		t.Fatal(err)
	}
	pde, _, err := asm.Assemble(interior, boundary)
	if err != nil {
		t.Fatal(err)
	}

	// With u(t) = t + 1 the equation residual stays 0; use a residual-free
	// probe to confirm the loss only counts interior points: constant
	// residual 1 would give loss = #points. Instead check that the pde
	// loss of the exact solution is zero on the 4-point interior lattice.
	if got := pde([]float64{0}); got != 0 {
		t.Errorf("grid pde loss: got %g, want 0", got)
	}
}

func TestNew_UnknownStrategy(t *testing.T) {
	type weird struct{ strategy.Strategy }
	_, err := New(weird{}, nil)
	if err == nil {
		t.Fatal("expected error for unknown strategy type")
	}
}

func TestQuadratureWeights(t *testing.T) {
	// 2-D interior with one 1-D boundary condition: tau_interior = 10^-2,
	// tau_boundary = 1/(1 * (10^-2)^(-1/2)) = 1/10. Verify through a
	// residual that is constant 1 everywhere: the interior integral over
	// the unit square is 1, the boundary integral over the unit edge is 1.
	indep, _ := symbol.New("x", "y")
	dep, _ := symbol.New("u")
	params, _ := symbol.New()
	ctx := transform.NewContext(indep, dep, params, []trial.Phi{constPhi{}})

	// u(x,y) - (-1) = 1 for constPhi == 0.
	res, err := ctx.Residual(expr.Eq(expr.Apply("u", expr.Var("x"), expr.Var("y")), expr.Num(-1)))
	if err != nil {
		t.Fatal(err)
	}

	domain := []strategy.Interval{{Var: "x", Lo: 0, Hi: 1}, {Var: "y", Lo: 0, Hi: 1}}
	interior := []Term{{Residual: res, Bounds: strategy.Bounds{Args: []strategy.Arg{
		{Lo: 0, Hi: 1}, {Lo: 0, Hi: 1},
	}}}}
	boundary := []Term{{Residual: res, Bounds: strategy.Bounds{Args: []strategy.Arg{
		{Fixed: true, Value: 0}, {Lo: 0, Hi: 1},
	}}}}

	asm, err := New(strategy.QuadratureTraining{Algorithm: quadrature.Cubature}, domain)
	if err != nil {
		t.Fatal(err)
	}
	pde, bc, err := asm.Assemble(interior, boundary)
	if err != nil {
		t.Fatal(err)
	}

	if got := pde(nil); math.Abs(got-0.01) > 1e-8 {
		t.Errorf("pde loss: got %g, want 0.01", got)
	}
	if got := bc(nil); math.Abs(got-0.1) > 1e-8 {
		t.Errorf("bc loss: got %g, want 0.1", got)
	}
}

// constPhi is identically zero with no parameters.
type constPhi struct{}

func (constPhi) Eval(_, _ []float64) float64 { return 0 }
func (constPhi) EvalBatch(pts *mat.Dense, _ []float64, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
}
func (constPhi) NumParams() int { return 0 }
