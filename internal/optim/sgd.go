package optim

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * grad
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + grad
//	param = param - lr * velocity
type SGD struct {
	lr       float64
	momentum float64
	velocity []float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0, range: [0, 1))
}

// NewSGD creates an SGD optimizer for a parameter vector of length n.
func NewSGD(n int, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	s := &SGD{lr: config.LR, momentum: config.Momentum}
	if config.Momentum != 0 {
		s.velocity = make([]float64, n)
	}
	return s
}

// Step applies one gradient-descent update in place.
func (s *SGD) Step(params, grad []float64) {
	if s.momentum == 0 {
		for i := range params {
			params[i] -= s.lr * grad[i]
		}
		return
	}
	for i := range params {
		s.velocity[i] = s.momentum*s.velocity[i] + grad[i]
		params[i] -= s.lr * s.velocity[i]
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float64 { return s.lr }
