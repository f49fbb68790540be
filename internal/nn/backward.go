package nn

import (
	"fmt"

	"github.com/cortex-ml/cortex/internal/activation"
	"github.com/cortex-ml/cortex/internal/kernels"
	"github.com/cortex-ml/cortex/internal/optim"
)

// Loss computes mean squared error over the leading OutputSize elements:
// sum((target - output)^2) / OutputSize. Identical buffers yield exactly 0.
func (n *Network) Loss(output, target []float64) (float64, error) {
	if err := n.checkLive(); err != nil {
		return 0, err
	}
	if output == nil || target == nil {
		return 0, ErrNilInput
	}
	size := n.cfg.OutputSize
	if len(output) < size || len(target) < size {
		return 0, fmt.Errorf("%w: buffer too small", ErrInvalidArgument)
	}
	return mse(output[:size], target[:size]), nil
}

func mse(output, target []float64) float64 {
	var sum float64
	for i := range output {
		d := target[i] - output[i]
		sum += d * d
	}
	return sum / float64(len(output))
}

// Backward propagates the loss gradient from output back through every
// layer, filling each layer's GradW and GradB. It must follow a Forward
// call on the same input; layer caches from that pass drive the chain rule.
//
// grad receives the raw residual target - output for each output unit.
// output may alias grad.
//
// Batch normalization is treated as pass-through here; only the affine
// weights and biases receive gradients.
func (n *Network) Backward(output, target, grad []float64) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	if output == nil || target == nil || grad == nil {
		return ErrNilInput
	}
	size := n.cfg.OutputSize
	if len(output) < size || len(target) < size || len(grad) < size {
		return fmt.Errorf("%w: buffer too small", ErrInvalidArgument)
	}

	n.timer.Start("backward")
	defer n.timer.Stop("backward")

	// Forward scratch is dead between passes; reuse it for the deltas.
	delta, work := n.scratchIn, n.scratchOut

	// dL/dy for MSE, and the exposed residual. Reads happen before the
	// write so grad may alias output.
	inv := 2.0 / float64(size)
	for i := 0; i < size; i++ {
		y, t := output[i], target[i]
		delta[i] = inv * (y - t)
		grad[i] = t - y
	}

	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]

		if l.mask != nil && l.Training {
			if err := kernels.Mul(delta[:l.OutSize], delta[:l.OutSize], l.mask); err != nil {
				return err
			}
		}

		// delta_z = delta_a (.) f'(z)
		if err := activation.Derivative(work[:l.OutSize], l.preAct, l.Act); err != nil {
			return err
		}
		if err := kernels.Mul(delta[:l.OutSize], delta[:l.OutSize], work[:l.OutSize]); err != nil {
			return err
		}

		// Weight and bias gradients from the cached layer input.
		for i := 0; i < l.OutSize; i++ {
			dz := delta[i]
			row := l.GradW[i*l.InSize : (i+1)*l.InSize]
			for j, x := range l.input[:l.InSize] {
				row[j] = dz * x
			}
			l.GradB[i] = dz
		}

		if li == 0 {
			break
		}

		// delta_prev = W^T delta_z, written into the spare buffer.
		for j := 0; j < l.InSize; j++ {
			var s float64
			for i := 0; i < l.OutSize; i++ {
				s += l.Weights[i*l.InSize+j] * delta[i]
			}
			work[j] = s
		}
		delta, work = work, delta
	}

	return nil
}

// paramGroups adapts the layers to the optimizer's update interface.
func (n *Network) paramGroups() []optim.Params {
	groups := make([]optim.Params, len(n.layers))
	for i, l := range n.layers {
		groups[i] = optim.Params{
			Weights: l.Weights,
			Biases:  l.Biases,
			GradW:   l.GradW,
			GradB:   l.GradB,
		}
	}
	return groups
}

// TrainBatch runs one training step on a single sample: forward, MSE loss,
// backward, SGD update. It returns the pre-update loss, or -1.0 when the
// network or either buffer is nil or the network is destroyed.
func (n *Network) TrainBatch(input, target []float64) float64 {
	if n == nil || input == nil || target == nil || n.st != stateBuilt {
		return -1.0
	}
	if len(input) < n.cfg.InputSize || len(target) < n.cfg.OutputSize {
		return -1.0
	}

	n.timer.Start("train")
	defer n.timer.Stop("train")

	n.setTraining(true)
	defer n.setTraining(false)

	out := n.gradient[:n.cfg.OutputSize]
	if err := n.Forward(input, out); err != nil {
		return -1.0
	}
	loss := mse(out, target[:n.cfg.OutputSize])

	if err := n.Backward(out, target, out); err != nil {
		return -1.0
	}
	n.sgd.Step(n.paramGroups())

	return loss
}
