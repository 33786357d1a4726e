// Package strategy implements the four policies for choosing where in the
// domain a PDE residual is penalized:
//
//   - GridTraining: deterministic uniform lattice
//   - StochasticTraining: uniform random points, re-sampled per evaluation
//   - QuasiRandomTraining: precomputed low-discrepancy minibatches
//   - QuadratureTraining: adaptive integration over continuous bounds
//
// Each equation of a problem carries Bounds: per independent variable
// either the full domain interval (free) or a pinned coordinate value
// (fixed, for boundary conditions). Point-producing strategies turn Bounds
// into point sets; QuadratureTraining hands the bounds to an integrator.
package strategy

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/pinn-ml/pinn/internal/quadrature"
)

// Interval is one independent variable together with its closed domain
// interval [Lo, Hi]. A problem's ordered Interval sequence defines the
// coordinate-vector layout everywhere.
type Interval struct {
	Var    string
	Lo, Hi float64
}

// Arg is the bound of one coordinate of one equation: either free over
// [Lo, Hi] or fixed at Value.
type Arg struct {
	Fixed  bool
	Value  float64
	Lo, Hi float64
}

// Bounds is the ordered per-coordinate bound list of one equation.
type Bounds struct {
	Args []Arg
}

// FreeDims counts the non-fixed coordinates: the dimensionality of the
// sub-manifold the equation is restricted to.
func (b Bounds) FreeDims() int {
	n := 0
	for _, a := range b.Args {
		if !a.Fixed {
			n++
		}
	}
	return n
}

// Point returns the fully fixed coordinate vector of a zero-dimensional
// bound. Free coordinates are filled with their lower bound; callers must
// check FreeDims first.
func (b Bounds) Point() []float64 {
	x := make([]float64, len(b.Args))
	for i, a := range b.Args {
		if a.Fixed {
			x[i] = a.Value
		} else {
			x[i] = a.Lo
		}
	}
	return x
}

// Intervals converts the bounds into r1 intervals, with fixed coordinates
// as degenerate (zero-width) intervals, as the gonum samplers expect.
func (b Bounds) Intervals() []r1.Interval {
	out := make([]r1.Interval, len(b.Args))
	for i, a := range b.Args {
		if a.Fixed {
			out[i] = r1.Interval{Min: a.Value, Max: a.Value}
		} else {
			out[i] = r1.Interval{Min: a.Lo, Max: a.Hi}
		}
	}
	return out
}

// Strategy is one of the four training-point policies.
type Strategy interface {
	isStrategy()
}

// GridTraining places collocation points on a uniform lattice.
//
// Dx holds the lattice step per dimension; a single entry is broadcast to
// every dimension. The lattice is deterministic: every loss evaluation sees
// the same points.
type GridTraining struct {
	Dx []float64
}

// StochasticTraining draws Points uniform samples per equation from the
// equation's bounds on every loss evaluation. The loss landscape is
// stochastic by design: points are never memoized.
type StochasticTraining struct {
	Points int
	Seed   uint64 // Seed for the sampling source; 0 picks a fixed default.
}

// Sampler selects the low-discrepancy sequence used by QuasiRandomTraining.
type Sampler int

const (
	// SamplerHalton is an Owen-scrambled Halton sequence.
	SamplerHalton Sampler = iota
	// SamplerLatinHypercube is Latin hypercube sampling.
	SamplerLatinHypercube
	// SamplerUniform is plain independent uniform sampling.
	SamplerUniform
)

// QuasiRandomTraining precomputes Minibatch independent low-discrepancy
// point sets of size Points per equation; each loss evaluation uses one
// minibatch chosen uniformly at random.
type QuasiRandomTraining struct {
	Points    int
	Minibatch int
	Sampler   Sampler
	Seed      uint64 // Seed for set generation and minibatch choice; 0 picks a fixed default.
}

// QuadratureTraining integrates the squared residual over each equation's
// bounds with an adaptive routine instead of sampling points.
type QuadratureTraining struct {
	Algorithm quadrature.Algorithm
	RelTol    float64
	AbsTol    float64
	MaxIters  int
	Batch     int
}

func (GridTraining) isStrategy()        {}
func (StochasticTraining) isStrategy()  {}
func (QuasiRandomTraining) isStrategy() {}
func (QuadratureTraining) isStrategy()  {}

// BoundaryPoints is the per-boundary-condition sample count used by the
// sampling strategies: round(points^(boundaryDim/interiorDim)). A boundary
// of lower dimensionality needs proportionally fewer samples to keep the
// estimator variance comparable to the interior. A zero-dimensional
// boundary is exactly one point, no sampling.
func BoundaryPoints(points, boundaryDim, interiorDim int) int {
	if boundaryDim == 0 {
		return 1
	}
	return int(math.Round(math.Pow(float64(points), float64(boundaryDim)/float64(interiorDim))))
}

// Lattice produces the grid point sets: the interior lattice and one
// boundary sub-lattice per boundary equation. Boundary points are computed
// first, and the interior set is the full Cartesian lattice minus every
// boundary point, so no point is counted twice.
func (g GridTraining) Lattice(domain []Interval, boundary []Bounds) (interior *mat.Dense, boundarySets []*mat.Dense) {
	dim := len(domain)
	axes := make([][]float64, dim)
	for d, iv := range domain {
		axes[d] = axis(iv.Lo, iv.Hi, g.step(d))
	}

	seen := make(map[string]bool)
	boundarySets = make([]*mat.Dense, len(boundary))
	for e, b := range boundary {
		sub := make([][]float64, dim)
		for d, a := range b.Args {
			if a.Fixed {
				sub[d] = []float64{a.Value}
			} else {
				sub[d] = axes[d]
			}
		}
		pts := cartesian(sub)
		boundarySets[e] = pts
		n, _ := pts.Dims()
		for i := 0; i < n; i++ {
			seen[pointKey(pts.RawRowView(i))] = true
		}
	}

	full := cartesian(axes)
	n, _ := full.Dims()
	var keep []int
	for i := 0; i < n; i++ {
		if !seen[pointKey(full.RawRowView(i))] {
			keep = append(keep, i)
		}
	}
	interior = mat.NewDense(len(keep), dim, nil)
	for j, i := range keep {
		interior.SetRow(j, full.RawRowView(i))
	}
	return interior, boundarySets
}

func (g GridTraining) step(d int) float64 {
	if len(g.Dx) == 1 {
		return g.Dx[0]
	}
	return g.Dx[d]
}

// axis returns the uniform lattice values lo, lo+dx, ..., hi. The last
// value is clamped to hi so the upper bound is always included exactly.
func axis(lo, hi, dx float64) []float64 {
	n := int(math.Round((hi-lo)/dx)) + 1
	if n < 2 {
		n = 2
	}
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = lo + float64(i)*dx
	}
	vals[n-1] = hi
	return vals
}

// cartesian builds the full product lattice of the per-dimension values,
// one point per row.
func cartesian(axes [][]float64) *mat.Dense {
	dim := len(axes)
	n := 1
	for _, a := range axes {
		n *= len(a)
	}
	pts := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		k := i
		row := pts.RawRowView(i)
		for d := 0; d < dim; d++ {
			row[d] = axes[d][k%len(axes[d])]
			k /= len(axes[d])
		}
	}
	return pts
}

// pointKey builds an exact lookup key from the coordinate bit patterns.
// Lattice and boundary points come from identical arithmetic, so exact
// comparison is the right equality here.
func pointKey(x []float64) string {
	buf := make([]byte, 8*len(x))
	for i, v := range x {
		bits := math.Float64bits(v)
		for b := 0; b < 8; b++ {
			buf[8*i+b] = byte(bits >> (8 * b))
		}
	}
	return string(buf)
}

// Sample draws n fresh uniform points from the bounds. Fixed coordinates
// become constant columns through their degenerate intervals.
func (StochasticTraining) Sample(b Bounds, n int, src rand.Source) *mat.Dense {
	dist := distmv.NewUniform(b.Intervals(), src)
	batch := mat.NewDense(n, len(b.Args), nil)
	samplemv.IID{Dist: dist}.Sample(batch)
	return batch
}

// Batches precomputes the minibatch point sets for one equation. Each of
// the Minibatch sets holds n low-discrepancy points from the bounds.
func (q QuasiRandomTraining) Batches(b Bounds, n int, src rand.Source) []*mat.Dense {
	dist := distmv.NewUniform(b.Intervals(), src)

	var sampler samplemv.Sampler
	switch q.Sampler {
	case SamplerLatinHypercube:
		sampler = samplemv.LatinHypercube{Q: dist, Src: src}
	case SamplerUniform:
		sampler = samplemv.IID{Dist: dist}
	default:
		sampler = samplemv.Halton{Kind: samplemv.Owen, Q: dist, Src: src}
	}

	sets := make([]*mat.Dense, q.Minibatch)
	for i := range sets {
		batch := mat.NewDense(n, len(b.Args), nil)
		sampler.Sample(batch)
		sets[i] = batch
	}
	return sets
}
