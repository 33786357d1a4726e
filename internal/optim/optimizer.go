// Package optim implements first-order optimizers over flat parameter
// vectors.
//
// The discretization driver hands out a loss over one flat []float64; the
// optimizers here update that vector in place from a gradient of the same
// shape. Gradients come from the caller (typically gonum's diff/fd applied
// to the loss), never from this package.
package optim

// Optimizer updates a flat parameter vector in place from a gradient of
// the same length. Implementations own whatever per-coordinate state the
// update rule needs (momentum, moment estimates) and are not safe for
// concurrent Step calls.
type Optimizer interface {
	// Step applies one update of params from grad. Both slices must have
	// the length the optimizer was created with.
	Step(params, grad []float64)

	// LR returns the current learning rate, for monitoring.
	LR() float64
}
