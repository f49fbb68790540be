// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernels provides the public API for the engine's numeric
// primitives. Every operation dispatches to an accelerated path when the
// CPU supports one and the optimization configuration allows it, and
// otherwise to a scalar loop with identical results.
//
// Example:
//
//	dst := make([]float64, 4)
//	_ = kernels.Add(dst, a, b)
//	sum := kernels.Dot(a, b)
package kernels

import (
	"github.com/cortex-ml/cortex/internal/kernels"
)

// Kernel errors.
var (
	ErrNilInput        = kernels.ErrNilInput
	ErrInvalidArgument = kernels.ErrInvalidArgument
)

// Add computes dst[i] = a[i] + b[i]. dst may alias either operand.
func Add(dst, a, b []float64) error { return kernels.Add(dst, a, b) }

// Sub computes dst[i] = a[i] - b[i]. dst may alias either operand.
func Sub(dst, a, b []float64) error { return kernels.Sub(dst, a, b) }

// Mul computes the elementwise product dst[i] = a[i] * b[i].
func Mul(dst, a, b []float64) error { return kernels.Mul(dst, a, b) }

// Scale computes dst[i] = a[i] * s.
func Scale(dst, a []float64, s float64) error { return kernels.Scale(dst, a, s) }

// Dot returns the inner product of a and b over their common length.
// Nil inputs yield 0.
func Dot(a, b []float64) float64 { return kernels.Dot(a, b) }

// MatVec computes dst = w * x for a row-major rows x cols matrix.
func MatVec(dst, w, x []float64, rows, cols int) error {
	return kernels.MatVec(dst, w, x, rows, cols)
}

// MatMul computes dst = a * b for row-major matrices, where a is m x k and
// b is k x n.
func MatMul(dst, a, b []float64, m, k, n int) error {
	return kernels.MatMul(dst, a, b, m, k, n)
}
