package trial

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestMLP_NumParams(t *testing.T) {
	// 2 -> 4 -> 3 -> 1: (2*4+4) + (4*3+3) + (3*1+1) = 12 + 15 + 4 = 31.
	m := NewMLP(2, 4, 3)
	if got := m.NumParams(); got != 31 {
		t.Errorf("NumParams: got %d, want 31", got)
	}
	if got := m.Inputs(); got != 2 {
		t.Errorf("Inputs: got %d, want 2", got)
	}
}

func TestMLP_InitDeterministic(t *testing.T) {
	m := NewMLP(1, 8)

	a := m.InitParams(rand.NewSource(7))
	b := m.InitParams(rand.NewSource(7))

	if len(a) != m.NumParams() {
		t.Fatalf("InitParams length: got %d, want %d", len(a), m.NumParams())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different parameters at %d", i)
		}
	}
}

func TestMLP_BatchMatchesPointwise(t *testing.T) {
	m := NewMLP(2, 6, 6)
	theta := m.InitParams(rand.NewSource(1))

	points := [][]float64{{0, 0}, {1, -1}, {0.3, 0.7}, {-2, 0.1}}
	pts := mat.NewDense(len(points), 2, nil)
	for i, p := range points {
		pts.SetRow(i, p)
	}

	dst := make([]float64, len(points))
	m.EvalBatch(pts, theta, dst)

	for i, p := range points {
		want := m.Eval(p, theta)
		if dst[i] != want {
			t.Errorf("point %v: batch %g != pointwise %g", p, dst[i], want)
		}
	}
}

func TestMLP_ZeroParamsIsZero(t *testing.T) {
	// With all weights and biases zero the network output is tanh-chained
	// zeros, hence exactly zero.
	m := NewMLP(1, 4)
	theta := make([]float64, m.NumParams())

	if got := m.Eval([]float64{3.5}, theta); got != 0 {
		t.Errorf("zero network: got %g, want 0", got)
	}
}

func TestMLP_Bounded(t *testing.T) {
	// Hidden activations are tanh, so for a single hidden layer the output
	// magnitude is bounded by sum(|w_out|) + |b_out|.
	m := NewMLP(1, 16)
	theta := m.InitParams(rand.NewSource(42))

	var bound float64
	out := theta[len(theta)-17 : len(theta)-1] // last layer weights
	for _, w := range out {
		bound += math.Abs(w)
	}
	bound += math.Abs(theta[len(theta)-1])

	for _, x := range []float64{-100, -1, 0, 1, 100} {
		v := m.Eval([]float64{x}, theta)
		if math.Abs(v) > bound+1e-12 {
			t.Errorf("output %g at x=%g exceeds bound %g", v, x, bound)
		}
	}
}
