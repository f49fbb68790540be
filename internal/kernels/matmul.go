package kernels

import (
	"github.com/cortex-ml/cortex/internal/hardware"
)

// blockThreshold is the smallest dimension product worth cache blocking.
const blockThreshold = 64 * 64 * 64

// MatMul computes dst = a·b where a is (m × k) and b is (k × n), both
// row-major: dst[i,j] = Σ_t a[i,t]·b[t,j].
//
// The path taken depends on the capability set detected at startup and the
// process optimization configuration. Hardware without wide SIMD falls back
// to the scalar loop silently; the two paths agree to floating-point
// accumulation-order tolerance.
func MatMul(dst, a, b []float64, m, k, n int) error {
	if dst == nil || a == nil || b == nil {
		return ErrNilInput
	}
	if m <= 0 || k <= 0 || n <= 0 {
		return ErrInvalidArgument
	}
	if len(a) < m*k || len(b) < k*n || len(dst) < m*n {
		return ErrInvalidArgument
	}

	switch {
	case hardware.Active().Has(hardware.CapWideSIMD):
		matmulWide(dst, a, b, m, k, n)
	case hardware.GetConfig().UseCacheBlocking && m*k*n >= blockThreshold:
		matmulBlocked(dst, a, b, m, k, n)
	default:
		matmulScalar(dst, a, b, m, k, n)
	}
	return nil
}

// matmulScalar is the exact reference implementation.
func matmulScalar(dst, a, b []float64, m, k, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for t := 0; t < k; t++ {
				sum += a[i*k+t] * b[t*n+j]
			}
			dst[i*n+j] = sum
		}
	}
}

// matmulWide processes four output columns per inner iteration with
// independent accumulators, broadcasting a[i,t] across the lane group. This
// is the Go rendition of a 4-wide double-precision broadcast-FMA loop.
func matmulWide(dst, a, b []float64, m, k, n int) {
	for i := 0; i < m; i++ {
		arow := a[i*k : (i+1)*k]
		drow := dst[i*n : (i+1)*n]

		j := 0
		for ; j+4 <= n; j += 4 {
			var s0, s1, s2, s3 float64
			for t := 0; t < k; t++ {
				av := arow[t]
				brow := b[t*n+j:]
				s0 += av * brow[0]
				s1 += av * brow[1]
				s2 += av * brow[2]
				s3 += av * brow[3]
			}
			drow[j] = s0
			drow[j+1] = s1
			drow[j+2] = s2
			drow[j+3] = s3
		}
		for ; j < n; j++ {
			var sum float64
			for t := 0; t < k; t++ {
				sum += arow[t] * b[t*n+j]
			}
			drow[j] = sum
		}
	}
}

// matmulBlocked tiles the loops so working sets stay cache resident. Used on
// scalar hardware for large problems when cache blocking is enabled.
func matmulBlocked(dst, a, b []float64, m, k, n int) {
	const bs = 32

	for i := range dst[:m*n] {
		dst[i] = 0
	}
	for ii := 0; ii < m; ii += bs {
		iEnd := min(ii+bs, m)
		for tt := 0; tt < k; tt += bs {
			tEnd := min(tt+bs, k)
			for jj := 0; jj < n; jj += bs {
				jEnd := min(jj+bs, n)
				for i := ii; i < iEnd; i++ {
					for t := tt; t < tEnd; t++ {
						av := a[i*k+t]
						for j := jj; j < jEnd; j++ {
							dst[i*n+j] += av * b[t*n+j]
						}
					}
				}
			}
		}
	}
}
