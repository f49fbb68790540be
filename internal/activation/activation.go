// Package activation implements the stateless elementwise transforms the
// engine applies after each affine layer, together with their pointwise
// derivatives with respect to the pre-activation input.
//
// An unrecognized function tag copies the input through unchanged rather
// than failing. This identity fallback can mask a caller passing a garbage
// tag; it is deliberate, matching the engine's contract that activation
// application is total once the buffers exist.
package activation

import (
	"errors"
	"math"
)

// ErrNilInput is returned when either buffer argument is nil.
var ErrNilInput = errors.New("activation: nil input")

// Func selects an activation function.
type Func int

// Supported activation functions.
const (
	Sigmoid Func = iota
	Tanh
	ReLU
	LeakyReLU
	Swish
	GELU
	Softmax
)

// leakySlope is the negative-side slope of LeakyReLU.
const leakySlope = 0.01

// String returns the function's conventional name.
func (f Func) String() string {
	switch f {
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case ReLU:
		return "relu"
	case LeakyReLU:
		return "leaky_relu"
	case Swish:
		return "swish"
	case GELU:
		return "gelu"
	case Softmax:
		return "softmax"
	default:
		return "identity"
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// geluInner is the tanh-approximation argument: sqrt(2/pi)*(x + 0.044715*x^3).
func geluInner(x float64) float64 {
	return math.Sqrt(2.0/math.Pi) * (x + 0.044715*x*x*x)
}

// Apply computes dst[i] = f(src[i]) over len(src) elements. dst may alias
// src. Softmax is computed in two passes over dst: exponentials (shifted by
// the input maximum for stability), then a normalizing division.
func Apply(dst, src []float64, f Func) error {
	if dst == nil || src == nil {
		return ErrNilInput
	}

	switch f {
	case Sigmoid:
		for i, x := range src {
			dst[i] = sigmoid(x)
		}
	case Tanh:
		for i, x := range src {
			dst[i] = math.Tanh(x)
		}
	case ReLU:
		for i, x := range src {
			dst[i] = math.Max(0, x)
		}
	case LeakyReLU:
		for i, x := range src {
			if x > 0 {
				dst[i] = x
			} else {
				dst[i] = leakySlope * x
			}
		}
	case Swish:
		for i, x := range src {
			dst[i] = x * sigmoid(x)
		}
	case GELU:
		for i, x := range src {
			dst[i] = 0.5 * x * (1.0 + math.Tanh(geluInner(x)))
		}
	case Softmax:
		softmax(dst, src)
	default:
		// Identity fallback for unknown tags.
		copy(dst, src)
	}
	return nil
}

func softmax(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	maxVal := src[0]
	for _, x := range src[1:] {
		if x > maxVal {
			maxVal = x
		}
	}

	var sum float64
	for i, x := range src {
		e := math.Exp(x - maxVal)
		dst[i] = e
		sum += e
	}
	for i := range src {
		dst[i] /= sum
	}
}

// Derivative computes dst[i] = f'(src[i]), the pointwise derivative with
// respect to the pre-activation input. Each formula matches its forward
// counterpart exactly; Softmax and unknown tags yield 1.0 (the engine's
// gradient path treats them as pass-through).
func Derivative(dst, src []float64, f Func) error {
	if dst == nil || src == nil {
		return ErrNilInput
	}

	switch f {
	case Sigmoid:
		for i, x := range src {
			s := sigmoid(x)
			dst[i] = s * (1.0 - s)
		}
	case Tanh:
		for i, x := range src {
			th := math.Tanh(x)
			dst[i] = 1.0 - th*th
		}
	case ReLU:
		for i, x := range src {
			if x > 0 {
				dst[i] = 1.0
			} else {
				dst[i] = 0.0
			}
		}
	case LeakyReLU:
		for i, x := range src {
			if x > 0 {
				dst[i] = 1.0
			} else {
				dst[i] = leakySlope
			}
		}
	case Swish:
		for i, x := range src {
			s := sigmoid(x)
			dst[i] = s + x*s*(1.0-s)
		}
	case GELU:
		// Simplified derivative matching the original engine.
		for i, x := range src {
			dst[i] = 0.5 * (1.0 + math.Tanh(geluInner(x)))
		}
	default:
		for i := range src {
			dst[i] = 1.0
		}
	}
	return nil
}
