package nn

import (
	"math"

	"github.com/cortex-ml/cortex/internal/activation"
)

const bnEpsilon = 1e-5

// bnMomentum controls the running-statistics update during training.
const bnMomentum = 0.9

// Layer is one affine transform plus activation. All float64 buffers are
// allocated through the network's tracker at build time and released by
// Destroy.
type Layer struct {
	InSize  int
	OutSize int
	Act     activation.Func

	// Weights is row-major OutSize x InSize; Weights[i*InSize+j] connects
	// input j to output i.
	Weights []float64
	Biases  []float64

	// Gradient accumulators written by the backward pass.
	GradW []float64
	GradB []float64

	// Batch-normalization state; nil unless the network enables it.
	BNMean  []float64
	BNVar   []float64
	BNScale []float64
	BNShift []float64

	// Backward-pass caches populated during forward: the layer's input and
	// the pre-activation values z = Wx + b.
	input  []float64
	preAct []float64

	// Dropout mask applied post-activation in training mode; nil when
	// dropout is disabled.
	mask []float64

	// Training switches dropout sampling and batch-norm statistic updates
	// on. Inference leaves cached statistics untouched.
	Training bool
}

func applyActivation(buf []float64, f activation.Func) error {
	return activation.Apply(buf, buf, f)
}

// batchNorm normalizes buf in place using running statistics. In training
// mode the running mean and variance are first nudged toward the current
// values.
func (l *Layer) batchNorm(buf []float64) {
	for i := 0; i < l.OutSize; i++ {
		x := buf[i]
		if l.Training {
			l.BNMean[i] = bnMomentum*l.BNMean[i] + (1-bnMomentum)*x
			d := x - l.BNMean[i]
			l.BNVar[i] = bnMomentum*l.BNVar[i] + (1-bnMomentum)*d*d
		}
		norm := (x - l.BNMean[i]) / math.Sqrt(l.BNVar[i]+bnEpsilon)
		buf[i] = l.BNScale[i]*norm + l.BNShift[i]
	}
}

// applyDropout samples a fresh inverted-scale mask and applies it to buf.
// The mask is cached so the backward pass can replay it.
func (l *Layer) applyDropout(buf []float64, rate float64, uniform func() float64) {
	keep := 1.0 - rate
	for i := 0; i < l.OutSize; i++ {
		if uniform() < rate {
			l.mask[i] = 0
		} else {
			l.mask[i] = 1.0 / keep
		}
		buf[i] *= l.mask[i]
	}
}
