// Package trial defines the trial solution: the parametric function
// approximator trained to satisfy a differential equation.
//
// The solver core only depends on the Phi interface; MLP is the default
// implementation. For systems with several dependent variables, each
// variable gets its own Phi and the flat parameter vector is partitioned
// into contiguous per-variable segments.
package trial

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/pinn-ml/pinn/internal/parallel"
)

// Phi is a trial solution: a scalar-valued parametric function of a
// coordinate vector. Implementations must be pure in both arguments so
// that evaluations can run concurrently.
type Phi interface {
	// Eval returns the value at one coordinate vector under the
	// parameter vector theta. len(theta) must be NumParams().
	Eval(x, theta []float64) float64

	// EvalBatch evaluates every row of pts, writing one value per row
	// into dst. It must agree with Eval exactly on every point.
	EvalBatch(pts *mat.Dense, theta []float64, dst []float64)

	// NumParams returns the length of the flat parameter vector.
	NumParams() int
}

// MLP is a fully connected feed-forward network with tanh hidden
// activations and a linear scalar output. All weights and biases live in
// one flat parameter vector laid out layer by layer, weights before
// biases, so an external optimizer can treat the network as a plain
// vector-to-scalar function.
type MLP struct {
	sizes    []int // layer widths, input first, output (1) last
	nparams  int
	parallel parallel.Config
}

// NewMLP builds a network with the given input dimension and hidden layer
// widths. The output layer is always scalar.
//
// Example:
//
//	phi := trial.NewMLP(2, 16, 16) // 2 coordinates, two hidden layers of 16
func NewMLP(inputs int, hidden ...int) *MLP {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, inputs)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, 1)

	n := 0
	for l := 0; l < len(sizes)-1; l++ {
		n += sizes[l]*sizes[l+1] + sizes[l+1]
	}
	return &MLP{sizes: sizes, nparams: n, parallel: parallel.DefaultConfig()}
}

// NumParams returns the total number of weights and biases.
func (m *MLP) NumParams() int { return m.nparams }

// Inputs returns the coordinate dimension the network expects.
func (m *MLP) Inputs() int { return m.sizes[0] }

// InitParams returns a freshly initialized flat parameter vector.
// Weights use Xavier/Glorot uniform initialization,
// U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))); biases start at
// zero. The explicit source makes initialization reproducible.
func (m *MLP) InitParams(src rand.Source) []float64 {
	rnd := rand.New(src)
	theta := make([]float64, m.nparams)

	off := 0
	for l := 0; l < len(m.sizes)-1; l++ {
		fanIn, fanOut := m.sizes[l], m.sizes[l+1]
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		for i := 0; i < fanIn*fanOut; i++ {
			theta[off+i] = (rnd.Float64()*2 - 1) * bound
		}
		off += fanIn*fanOut + fanOut // biases stay zero
	}
	return theta
}

// Eval runs the forward pass at one point.
func (m *MLP) Eval(x, theta []float64) float64 {
	// Scratch buffers are per call; Eval stays safe for concurrent use.
	cur := make([]float64, len(x))
	copy(cur, x)

	off := 0
	for l := 0; l < len(m.sizes)-1; l++ {
		fanIn, fanOut := m.sizes[l], m.sizes[l+1]
		w := theta[off : off+fanIn*fanOut]
		b := theta[off+fanIn*fanOut : off+fanIn*fanOut+fanOut]
		off += fanIn*fanOut + fanOut

		next := make([]float64, fanOut)
		for j := 0; j < fanOut; j++ {
			// Row-major weights: w[j*fanIn+i] connects input i to unit j.
			sum := b[j]
			row := w[j*fanIn : (j+1)*fanIn]
			for i, xi := range cur {
				sum += row[i] * xi
			}
			if l < len(m.sizes)-2 {
				sum = math.Tanh(sum)
			}
			next[j] = sum
		}
		cur = next
	}
	return cur[0]
}

// EvalBatch evaluates every row of pts. Rows are independent, so large
// batches run in parallel.
func (m *MLP) EvalBatch(pts *mat.Dense, theta []float64, dst []float64) {
	n, _ := pts.Dims()
	parallel.For(n, func(i int) {
		dst[i] = m.Eval(pts.RawRowView(i), theta)
	}, m.parallel)
}
