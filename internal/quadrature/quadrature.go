// Package quadrature implements adaptive numerical integration of residual
// norms over hyperrectangular domains.
//
// One-dimensional integrals use adaptive panel subdivision with nested
// Gauss-Legendre estimates; multi-dimensional integrals use adaptive region
// bisection with tensor-product Gauss-Legendre rules. Node locations and
// weights come from gonum's integrate/quad.
package quadrature

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/pinn-ml/pinn/internal/parallel"
)

// Algorithm selects the integration rule family.
type Algorithm int

const (
	// GaussLegendre is adaptive Gauss-Legendre panel integration.
	// It only supports one-dimensional domains.
	GaussLegendre Algorithm = iota

	// Cubature is adaptive tensor-product integration over regions of two
	// or more dimensions. It does not support one-dimensional domains.
	Cubature
)

func (a Algorithm) String() string {
	switch a {
	case GaussLegendre:
		return "GaussLegendre"
	case Cubature:
		return "Cubature"
	}
	return "unknown"
}

// Supports1D reports whether the algorithm can integrate over a
// one-dimensional domain.
func (a Algorithm) Supports1D() bool { return a == GaussLegendre }

// Settings bounds the adaptive refinement.
type Settings struct {
	RelTol   float64 // Relative tolerance (default 1e-6).
	AbsTol   float64 // Absolute tolerance (default 1e-8).
	MaxIters int     // Maximum number of subdivisions (default 1000).
	Batch    int     // Concurrent integrand evaluations; <=1 is sequential.
}

func (s Settings) withDefaults() Settings {
	if s.RelTol == 0 {
		s.RelTol = 1e-6
	}
	if s.AbsTol == 0 {
		s.AbsTol = 1e-8
	}
	if s.MaxIters == 0 {
		s.MaxIters = 1000
	}
	return s
}

// Nested rule orders. The error estimate of a panel or region is the
// difference between the coarse and fine estimates.
const (
	coarseNodes = 7
	fineNodes   = 15
)

// Integrate approximates the integral of f over the box [lo, hi].
// Refinement stops when the accumulated error estimate drops below
// max(AbsTol, RelTol*|integral|) or after MaxIters subdivisions.
//
// The dimension is len(lo); the caller is responsible for picking an
// algorithm that supports it (see Supports1D).
func Integrate(f func(x []float64) float64, lo, hi []float64, s Settings) float64 {
	s = s.withDefaults()
	if len(lo) == 1 {
		return integrate1D(f, lo[0], hi[0], s)
	}
	return integrateND(f, lo, hi, s)
}

type panel struct {
	lo, hi []float64
	value  float64
	errEst float64
}

func integrate1D(f func(x []float64) float64, lo, hi float64, s Settings) float64 {
	g := func(t float64) float64 { return f([]float64{t}) }
	concurrent := 0
	if s.Batch > 1 {
		concurrent = s.Batch
	}
	estimate := func(a, b float64) (val, err float64) {
		coarse := quad.Fixed(g, a, b, coarseNodes, quad.Legendre{}, concurrent)
		fine := quad.Fixed(g, a, b, fineNodes, quad.Legendre{}, concurrent)
		return fine, math.Abs(fine - coarse)
	}

	v, e := estimate(lo, hi)
	panels := []panel{{lo: []float64{lo}, hi: []float64{hi}, value: v, errEst: e}}

	for iter := 0; iter < s.MaxIters; iter++ {
		total, totalErr := sumPanels(panels)
		if totalErr <= math.Max(s.AbsTol, s.RelTol*math.Abs(total)) {
			break
		}
		worst := worstPanel(panels)
		p := panels[worst]
		mid := 0.5 * (p.lo[0] + p.hi[0])

		lv, le := estimate(p.lo[0], mid)
		rv, re := estimate(mid, p.hi[0])
		panels[worst] = panel{lo: p.lo, hi: []float64{mid}, value: lv, errEst: le}
		panels = append(panels, panel{lo: []float64{mid}, hi: p.hi, value: rv, errEst: re})
	}

	total, _ := sumPanels(panels)
	return total
}

func integrateND(f func(x []float64) float64, lo, hi []float64, s Settings) float64 {
	estimate := func(lo, hi []float64) (val, err float64) {
		coarse := tensorRule(f, lo, hi, coarseNodes, s.Batch)
		fine := tensorRule(f, lo, hi, fineNodes, s.Batch)
		return fine, math.Abs(fine - coarse)
	}

	v, e := estimate(lo, hi)
	panels := []panel{{lo: lo, hi: hi, value: v, errEst: e}}

	for iter := 0; iter < s.MaxIters; iter++ {
		total, totalErr := sumPanels(panels)
		if totalErr <= math.Max(s.AbsTol, s.RelTol*math.Abs(total)) {
			break
		}
		worst := worstPanel(panels)
		p := panels[worst]

		// Bisect along the widest dimension.
		dim := 0
		width := p.hi[0] - p.lo[0]
		for d := 1; d < len(p.lo); d++ {
			if w := p.hi[d] - p.lo[d]; w > width {
				width, dim = w, d
			}
		}
		mid := 0.5 * (p.lo[dim] + p.hi[dim])

		leftHi := append([]float64(nil), p.hi...)
		leftHi[dim] = mid
		rightLo := append([]float64(nil), p.lo...)
		rightLo[dim] = mid

		lv, le := estimate(p.lo, leftHi)
		rv, re := estimate(rightLo, p.hi)
		panels[worst] = panel{lo: p.lo, hi: leftHi, value: lv, errEst: le}
		panels = append(panels, panel{lo: rightLo, hi: p.hi, value: rv, errEst: re})
	}

	total, _ := sumPanels(panels)
	return total
}

// tensorRule evaluates a tensor-product Gauss-Legendre rule with n nodes
// per dimension over the box [lo, hi].
func tensorRule(f func(x []float64) float64, lo, hi []float64, n int, batch int) float64 {
	dim := len(lo)
	nodes := make([][]float64, dim)
	weights := make([][]float64, dim)
	for d := 0; d < dim; d++ {
		x := make([]float64, n)
		w := make([]float64, n)
		quad.Legendre{}.FixedLocations(x, w, lo[d], hi[d])
		nodes[d], weights[d] = x, w
	}

	// Enumerate the full grid of node indices.
	total := 1
	for range nodes {
		total *= n
	}
	values := make([]float64, total)

	eval := func(k int) float64 {
		x := make([]float64, dim)
		w := 1.0
		for d := 0; d < dim; d++ {
			i := k % n
			k /= n
			x[d] = nodes[d][i]
			w *= weights[d][i]
		}
		return w * f(x)
	}

	if batch > 1 {
		cfg := parallel.Config{Enabled: true, NumWorkers: batch, MinChunkSize: 1}
		parallel.For(total, func(k int) { values[k] = eval(k) }, cfg)
	} else {
		for k := 0; k < total; k++ {
			values[k] = eval(k)
		}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

func sumPanels(panels []panel) (total, errEst float64) {
	for _, p := range panels {
		total += p.value
		errEst += p.errEst
	}
	return total, errEst
}

func worstPanel(panels []panel) int {
	worst := 0
	for i, p := range panels {
		if p.errEst > panels[worst].errEst {
			worst = i
		}
	}
	return worst
}
