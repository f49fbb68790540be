// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package activation provides the public API for the engine's activation
// functions and their derivatives.
//
// Example:
//
//	out := make([]float64, len(in))
//	_ = activation.Apply(out, in, activation.ReLU)
package activation

import (
	"github.com/cortex-ml/cortex/internal/activation"
)

// Func selects an activation function.
type Func = activation.Func

// Supported activation functions.
const (
	Sigmoid   = activation.Sigmoid
	Tanh      = activation.Tanh
	ReLU      = activation.ReLU
	LeakyReLU = activation.LeakyReLU
	Swish     = activation.Swish
	GELU      = activation.GELU
	Softmax   = activation.Softmax
)

// ErrNilInput is returned when either buffer argument is nil.
var ErrNilInput = activation.ErrNilInput

// Apply computes dst[i] = f(src[i]). Unknown tags copy the input through
// unchanged.
func Apply(dst, src []float64, f Func) error { return activation.Apply(dst, src, f) }

// Derivative computes dst[i] = f'(src[i]) with respect to the
// pre-activation input.
func Derivative(dst, src []float64, f Func) error { return activation.Derivative(dst, src, f) }
