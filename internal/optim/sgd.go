// Package optim applies parameter updates computed by the engine's backward
// pass.
package optim

// Params is one parameter group: a weight/bias pair and the gradients the
// backward pass populated for them. Slices are owned by the engine; Step
// mutates the parameters in place.
type Params struct {
	Weights []float64
	Biases  []float64
	GradW   []float64
	GradB   []float64
}

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	lr       float64
	momentum float64

	// Velocity buffers, lazily created per parameter group on first Step.
	vw [][]float64
	vb [][]float64
}

// NewSGD creates an optimizer. A zero learning rate defaults to 0.01.
func NewSGD(lr, momentum float64) *SGD {
	if lr == 0 {
		lr = 0.01
	}
	return &SGD{lr: lr, momentum: momentum}
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 { return s.lr }

// SetLR updates the learning rate; useful for scheduling.
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// Step applies one update to every parameter group. Groups must be passed in
// a stable order across calls so velocity buffers stay associated with the
// same parameters.
func (s *SGD) Step(groups []Params) {
	if s.momentum != 0 && len(s.vw) < len(groups) {
		s.growVelocities(groups)
	}

	for gi, g := range groups {
		if s.momentum == 0 {
			for i, gw := range g.GradW {
				g.Weights[i] -= s.lr * gw
			}
			for i, gb := range g.GradB {
				g.Biases[i] -= s.lr * gb
			}
			continue
		}

		vw := s.vw[gi]
		vb := s.vb[gi]
		for i, gw := range g.GradW {
			vw[i] = s.momentum*vw[i] + gw
			g.Weights[i] -= s.lr * vw[i]
		}
		for i, gb := range g.GradB {
			vb[i] = s.momentum*vb[i] + gb
			g.Biases[i] -= s.lr * vb[i]
		}
	}
}

func (s *SGD) growVelocities(groups []Params) {
	for gi := len(s.vw); gi < len(groups); gi++ {
		s.vw = append(s.vw, make([]float64, len(groups[gi].Weights)))
		s.vb = append(s.vb, make([]float64, len(groups[gi].Biases)))
	}
}
