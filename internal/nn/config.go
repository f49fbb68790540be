package nn

import (
	"fmt"

	"github.com/cortex-ml/cortex/internal/activation"
)

// Config describes a fully connected network before it is built. The zero
// value is invalid; InputSize and OutputSize must be positive.
type Config struct {
	InputSize   int   `json:"input_size"`
	HiddenSizes []int `json:"hidden_sizes"`
	OutputSize  int   `json:"output_size"`

	LearningRate float64 `json:"learning_rate"`
	Momentum     float64 `json:"momentum"`

	BatchNorm   bool    `json:"batch_norm"`
	Dropout     bool    `json:"dropout"`
	DropoutRate float64 `json:"dropout_rate"`

	// Activations optionally assigns one function per layer. Empty means
	// ReLU everywhere. Non-empty slices must have exactly LayerCount
	// entries.
	Activations []activation.Func `json:"activations,omitempty"`

	// Seed fixes weight initialization and dropout sampling. Zero draws a
	// seed from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// LayerCount returns the number of layers a built network will have: the
// configured hidden layers plus an input adapter and an output layer.
func (c Config) LayerCount() int {
	return len(c.HiddenSizes) + 2
}

// layerDims returns the (in, out) widths of layer i.
//
// Layer 0 adapts the input to the first hidden width, layers 1..h are the
// configured hidden layers, and the final layer projects to the output
// width. Each layer's input width equals the previous layer's output width.
func (c Config) layerDims(i int) (in, out int) {
	h := len(c.HiddenSizes)
	switch {
	case i == 0:
		return c.InputSize, c.HiddenSizes[0]
	case i <= h:
		if i == 1 {
			in = c.HiddenSizes[0]
		} else {
			in = c.HiddenSizes[i-2]
		}
		return in, c.HiddenSizes[i-1]
	default:
		return c.HiddenSizes[h-1], c.OutputSize
	}
}

// maxWidth returns the largest buffer width any layer needs.
func (c Config) maxWidth() int {
	w := c.InputSize
	if c.OutputSize > w {
		w = c.OutputSize
	}
	for _, h := range c.HiddenSizes {
		if h > w {
			w = h
		}
	}
	return w
}

// Validate checks structural invariants before Build allocates anything.
func (c Config) Validate() error {
	if c.InputSize <= 0 {
		return fmt.Errorf("%w: input size %d", ErrInvalidArgument, c.InputSize)
	}
	if c.OutputSize <= 0 {
		return fmt.Errorf("%w: output size %d", ErrInvalidArgument, c.OutputSize)
	}
	if len(c.HiddenSizes) == 0 {
		return fmt.Errorf("%w: at least one hidden layer required", ErrInvalidArgument)
	}
	for i, h := range c.HiddenSizes {
		if h <= 0 {
			return fmt.Errorf("%w: hidden layer %d size %d", ErrInvalidArgument, i, h)
		}
	}
	if c.LearningRate < 0 {
		return fmt.Errorf("%w: learning rate %v", ErrInvalidArgument, c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: momentum %v", ErrInvalidArgument, c.Momentum)
	}
	if c.Dropout && (c.DropoutRate < 0 || c.DropoutRate >= 1) {
		return fmt.Errorf("%w: dropout rate %v", ErrInvalidArgument, c.DropoutRate)
	}
	if n := len(c.Activations); n != 0 && n != c.LayerCount() {
		return fmt.Errorf("%w: %d activations for %d layers", ErrInvalidArgument, n, c.LayerCount())
	}
	return nil
}

// activationFor returns the activation assigned to layer i, defaulting to
// ReLU when none was configured.
func (c Config) activationFor(i int) activation.Func {
	if len(c.Activations) == c.LayerCount() {
		return c.Activations[i]
	}
	return activation.ReLU
}
