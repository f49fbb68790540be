// Package kernels implements the float64 vector and matrix primitives the
// engine is built from.
//
// Elementwise operations write into a caller-supplied destination, which may
// alias either input: every element is computed independently. The matrix
// multiply dispatches to a 4-wide unrolled path when the active hardware
// capability set reports wide SIMD, and falls back silently to an exact
// scalar loop otherwise — numeric results never depend on hardware, only
// throughput does.
package kernels

import (
	"github.com/cortex-ml/cortex/internal/hardware"
)

// Add computes dst[i] = a[i] + b[i] over len(dst) elements.
// dst may alias a or b.
func Add(dst, a, b []float64) error {
	if dst == nil || a == nil || b == nil {
		return ErrNilInput
	}
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
	return nil
}

// Sub computes dst[i] = a[i] - b[i] over len(dst) elements.
// dst may alias a or b.
func Sub(dst, a, b []float64) error {
	if dst == nil || a == nil || b == nil {
		return ErrNilInput
	}
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
	return nil
}

// Mul computes the elementwise product dst[i] = a[i] * b[i].
// dst may alias a or b.
func Mul(dst, a, b []float64) error {
	if dst == nil || a == nil || b == nil {
		return ErrNilInput
	}
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
	return nil
}

// Scale computes dst[i] = s * a[i]. dst may alias a.
func Scale(dst, a []float64, s float64) error {
	if dst == nil || a == nil {
		return ErrNilInput
	}
	for i := range dst {
		dst[i] = s * a[i]
	}
	return nil
}

// Dot returns the sum of products of a and b. A nil input yields 0.0: the
// operation returns a value, not a status, so absence maps to the additive
// identity rather than an error.
func Dot(a, b []float64) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if hardware.Active().Has(hardware.CapWideSIMD) {
		return dotUnrolled(a, b, n)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// dotUnrolled accumulates in four independent lanes, the shape a 4-wide
// double-precision FMA unit executes.
func dotUnrolled(a, b []float64, n int) float64 {
	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// MatVec computes dst = w·x for a row-major (rows × cols) weight matrix.
// This is the engine's per-layer affine step.
func MatVec(dst, w, x []float64, rows, cols int) error {
	if dst == nil || w == nil || x == nil {
		return ErrNilInput
	}
	if rows <= 0 || cols <= 0 || len(w) < rows*cols || len(x) < cols || len(dst) < rows {
		return ErrInvalidArgument
	}
	for i := 0; i < rows; i++ {
		dst[i] = Dot(w[i*cols:(i+1)*cols], x[:cols])
	}
	return nil
}
