// Package loss assembles per-equation residual closures and a training
// strategy into scalar loss functions of the flat parameter vector.
//
// Every strategy variant implements the same Assembler contract: given the
// interior and boundary equation terms, produce the PDE loss and the BC
// loss. The two are kept separate; the discretization driver adds them,
// and that additive composition is the PINN objective.
package loss

import (
	"fmt"
	"log"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/pinn-ml/pinn/internal/parallel"
	"github.com/pinn-ml/pinn/internal/quadrature"
	"github.com/pinn-ml/pinn/internal/strategy"
	"github.com/pinn-ml/pinn/internal/transform"
)

// Term is one equation ready for assembly: its compiled residual and its
// per-coordinate bounds.
type Term struct {
	Residual *transform.Residual
	Bounds   strategy.Bounds
}

// Loss maps a flat parameter vector to a non-negative scalar.
type Loss = func(theta []float64) float64

// Assembler builds the PDE (interior) and BC (boundary) losses for one
// strategy variant.
type Assembler interface {
	Assemble(interior, boundary []Term) (pde, bc Loss, err error)
}

// New returns the assembler for the given strategy.
func New(s strategy.Strategy, domain []strategy.Interval) (Assembler, error) {
	switch cfg := s.(type) {
	case strategy.GridTraining:
		return &gridAssembler{cfg: cfg, domain: domain}, nil
	case strategy.StochasticTraining:
		return newStochasticAssembler(cfg, domain), nil
	case strategy.QuasiRandomTraining:
		return newQuasiRandomAssembler(cfg, domain), nil
	case strategy.QuadratureTraining:
		return &quadratureAssembler{cfg: cfg, domain: domain}, nil
	}
	return nil, fmt.Errorf("loss: unknown strategy %T", s)
}

// sumSquares evaluates the residual over the whole batch and accumulates
// the squared values.
func sumSquares(res *transform.Residual, pts *mat.Dense, theta []float64) float64 {
	n, _ := pts.Dims()
	if n == 0 {
		return 0
	}
	dst := make([]float64, n)
	res.Batch(pts, theta, dst)
	return parallel.Sum(n, func(i int) float64 { return dst[i] * dst[i] }, parallel.DefaultConfig())
}

// gridAssembler trains on a fixed uniform lattice. The same points are used
// on every evaluation, so the loss is deterministic.
type gridAssembler struct {
	cfg    strategy.GridTraining
	domain []strategy.Interval
}

func (g *gridAssembler) Assemble(interior, boundary []Term) (Loss, Loss, error) {
	bcBounds := make([]strategy.Bounds, len(boundary))
	for i, term := range boundary {
		bcBounds[i] = term.Bounds
	}
	interiorSet, boundarySets := g.cfg.Lattice(g.domain, bcBounds)

	pde := func(theta []float64) float64 {
		var total float64
		for _, term := range interior {
			total += sumSquares(term.Residual, interiorSet, theta)
		}
		return total
	}
	bc := func(theta []float64) float64 {
		var total float64
		for e, term := range boundary {
			total += sumSquares(term.Residual, boundarySets[e], theta)
		}
		return total
	}
	return pde, bc, nil
}

// stochasticAssembler re-samples uniform points from each equation's bounds
// on every loss evaluation. The loss landscape is a Monte-Carlo estimate of
// the residual norm and is stochastic by design.
type stochasticAssembler struct {
	cfg    strategy.StochasticTraining
	domain []strategy.Interval

	mu  sync.Mutex // guards src across concurrent loss evaluations
	src rand.Source
}

func newStochasticAssembler(cfg strategy.StochasticTraining, domain []strategy.Interval) *stochasticAssembler {
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &stochasticAssembler{cfg: cfg, domain: domain, src: rand.NewSource(seed)}
}

func (s *stochasticAssembler) sample(b strategy.Bounds, n int) *mat.Dense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Sample(b, n, s.src)
}

func (s *stochasticAssembler) Assemble(interior, boundary []Term) (Loss, Loss, error) {
	dim := len(s.domain)

	pde := func(theta []float64) float64 {
		var total float64
		for _, term := range interior {
			pts := s.sample(term.Bounds, s.cfg.Points)
			total += sumSquares(term.Residual, pts, theta)
		}
		return total
	}
	bc := func(theta []float64) float64 {
		var total float64
		for _, term := range boundary {
			bdim := term.Bounds.FreeDims()
			if bdim == 0 {
				// A fully pinned boundary is a single point; nothing to sample.
				r := term.Residual.Pointwise(term.Bounds.Point(), theta)
				total += r * r
				continue
			}
			n := strategy.BoundaryPoints(s.cfg.Points, bdim, dim)
			pts := s.sample(term.Bounds, n)
			total += sumSquares(term.Residual, pts, theta)
		}
		return total
	}
	return pde, bc, nil
}

// quasiRandomAssembler precomputes low-discrepancy minibatches at assembly
// time; each loss evaluation picks one minibatch uniformly at random. The
// point sets themselves are immutable, so concurrent evaluations only
// contend on the minibatch choice.
type quasiRandomAssembler struct {
	cfg    strategy.QuasiRandomTraining
	domain []strategy.Interval

	seed uint64

	mu  sync.Mutex
	rnd *rand.Rand
}

func newQuasiRandomAssembler(cfg strategy.QuasiRandomTraining, domain []strategy.Interval) *quasiRandomAssembler {
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	if cfg.Minibatch == 0 {
		cfg.Minibatch = 1
	}
	return &quasiRandomAssembler{cfg: cfg, domain: domain, seed: seed, rnd: rand.New(rand.NewSource(seed))}
}

func (q *quasiRandomAssembler) pick() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rnd.Intn(q.cfg.Minibatch)
}

func (q *quasiRandomAssembler) Assemble(interior, boundary []Term) (Loss, Loss, error) {
	dim := len(q.domain)
	src := rand.NewSource(q.seed + 1)

	interiorSets := make([][]*mat.Dense, len(interior))
	for i, term := range interior {
		interiorSets[i] = q.cfg.Batches(term.Bounds, q.cfg.Points, src)
	}
	boundarySets := make([][]*mat.Dense, len(boundary))
	for i, term := range boundary {
		bdim := term.Bounds.FreeDims()
		if bdim == 0 {
			pt := term.Bounds.Point()
			single := mat.NewDense(1, len(pt), nil)
			single.SetRow(0, pt)
			boundarySets[i] = []*mat.Dense{single}
			continue
		}
		n := strategy.BoundaryPoints(q.cfg.Points, bdim, dim)
		boundarySets[i] = q.cfg.Batches(term.Bounds, n, src)
	}

	pde := func(theta []float64) float64 {
		idx := q.pick()
		var total float64
		for i, term := range interior {
			total += sumSquares(term.Residual, interiorSets[i][idx], theta)
		}
		return total
	}
	bc := func(theta []float64) float64 {
		idx := q.pick()
		var total float64
		for i, term := range boundary {
			sets := boundarySets[i]
			total += sumSquares(term.Residual, sets[idx%len(sets)], theta)
		}
		return total
	}
	return pde, bc, nil
}

// quadratureAssembler integrates the squared residual over each equation's
// bounds instead of sampling points. Interior and boundary contributions
// are rebalanced by dimension-dependent weights so that integrals over
// domains of different dimensionality stay comparable in magnitude.
type quadratureAssembler struct {
	cfg    strategy.QuadratureTraining
	domain []strategy.Interval
}

func (a *quadratureAssembler) Assemble(interior, boundary []Term) (Loss, Loss, error) {
	dim := len(a.domain)
	settings := quadrature.Settings{
		RelTol:   a.cfg.RelTol,
		AbsTol:   a.cfg.AbsTol,
		MaxIters: a.cfg.MaxIters,
		Batch:    a.cfg.Batch,
	}

	tauInterior := math.Pow(10, -float64(dim))

	pdeTerms := make([]Loss, len(interior))
	for i, term := range interior {
		pdeTerms[i] = a.termLoss(term, settings)
	}
	pde := func(theta []float64) float64 {
		var total float64
		for _, f := range pdeTerms {
			total += tauInterior * math.Abs(f(theta))
		}
		return total
	}

	bcTerms := make([]Loss, len(boundary))
	bcWeights := make([]float64, len(boundary))
	for i, term := range boundary {
		bdim := term.Bounds.FreeDims()
		bcTerms[i] = a.termLoss(term, settings)
		bcWeights[i] = 1 / (float64(len(boundary)) * math.Pow(tauInterior, -float64(bdim)/float64(dim)))
	}
	bc := func(theta []float64) float64 {
		var total float64
		for i, f := range bcTerms {
			total += bcWeights[i] * math.Abs(f(theta))
		}
		return total
	}
	return pde, bc, nil
}

// termLoss builds the unweighted squared-residual integral of one equation.
func (a *quadratureAssembler) termLoss(term Term, settings quadrature.Settings) Loss {
	fdims := term.Bounds.FreeDims()

	if fdims == 0 {
		// A zero-dimensional domain cannot be integrated over; evaluate
		// the residual at the single fixed point exactly.
		pt := term.Bounds.Point()
		return func(theta []float64) float64 {
			r := term.Residual.Pointwise(pt, theta)
			return r * r
		}
	}

	if fdims == 1 && !a.cfg.Algorithm.Supports1D() {
		log.Printf("pinn: %v does not support one-dimensional domains; substituting %v",
			a.cfg.Algorithm, quadrature.GaussLegendre)
	}

	// Split the coordinates into integration variables and pinned values.
	var free []int
	lo := make([]float64, 0, fdims)
	hi := make([]float64, 0, fdims)
	base := make([]float64, len(term.Bounds.Args))
	for d, arg := range term.Bounds.Args {
		if arg.Fixed {
			base[d] = arg.Value
			continue
		}
		free = append(free, d)
		lo = append(lo, arg.Lo)
		hi = append(hi, arg.Hi)
	}

	return func(theta []float64) float64 {
		integrand := func(y []float64) float64 {
			x := make([]float64, len(base))
			copy(x, base)
			for i, d := range free {
				x[d] = y[i]
			}
			r := term.Residual.Pointwise(x, theta)
			return r * r
		}
		return quadrature.Integrate(integrand, lo, hi, settings)
	}
}
