package activation

import (
	"math"
	"math/rand"
	"testing"
)

func apply1(t *testing.T, f Func, x float64) float64 {
	t.Helper()
	dst := make([]float64, 1)
	if err := Apply(dst, []float64{x}, f); err != nil {
		t.Fatalf("Apply(%v) failed: %v", f, err)
	}
	return dst[0]
}

func TestForwardKnownPoints(t *testing.T) {
	tests := []struct {
		f    Func
		x    float64
		want float64
	}{
		{Sigmoid, 0, 0.5},
		{Sigmoid, 2, 0.8807970779778823},
		{Tanh, 0, 0},
		{Tanh, 1, math.Tanh(1)},
		{ReLU, -3, 0},
		{ReLU, 3, 3},
		{LeakyReLU, -2, -0.02},
		{LeakyReLU, 2, 2},
		{Swish, 0, 0},
		{Swish, 2, 2 * 0.8807970779778823},
		{GELU, 0, 0},
	}

	for _, tt := range tests {
		got := apply1(t, tt.f, tt.x)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%v(%v) = %v, want %v", tt.f, tt.x, got, tt.want)
		}
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, n := range []int{1, 2, 5, 64} {
		src := make([]float64, n)
		for i := range src {
			src[i] = rng.NormFloat64() * 5
		}
		dst := make([]float64, n)
		if err := Apply(dst, src, Softmax); err != nil {
			t.Fatalf("softmax failed: %v", err)
		}

		var sum float64
		for _, v := range dst {
			if v < 0 {
				t.Errorf("softmax produced negative probability %v", v)
			}
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("n=%d: softmax sum = %v, want 1", n, sum)
		}
	}
}

func TestSoftmaxShiftInvariant(t *testing.T) {
	src := []float64{0.3, -1.2, 4.5, 2.2, -0.7}
	shifted := make([]float64, len(src))
	for i, v := range src {
		shifted[i] = v + 123.0
	}

	a := make([]float64, len(src))
	b := make([]float64, len(src))
	if err := Apply(a, src, Softmax); err != nil {
		t.Fatal(err)
	}
	if err := Apply(b, shifted, Softmax); err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Errorf("shift changed softmax at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

// TestSigmoidDerivativeIdentity checks s'(x) == s(x)(1-s(x)) pointwise over
// a sampled range.
func TestSigmoidDerivativeIdentity(t *testing.T) {
	for x := -10.0; x <= 10.0; x += 0.25 {
		d := make([]float64, 1)
		if err := Derivative(d, []float64{x}, Sigmoid); err != nil {
			t.Fatal(err)
		}
		s := apply1(t, Sigmoid, x)
		want := s * (1 - s)
		if math.Abs(d[0]-want) > 1e-12 {
			t.Errorf("sigmoid'(%v) = %v, want %v", x, d[0], want)
		}
	}
}

func TestDerivativeFormulas(t *testing.T) {
	xs := []float64{-4, -1, -0.1, 0.1, 1, 4}
	for _, x := range xs {
		d := make([]float64, 1)

		if err := Derivative(d, []float64{x}, Tanh); err != nil {
			t.Fatal(err)
		}
		th := math.Tanh(x)
		if math.Abs(d[0]-(1-th*th)) > 1e-12 {
			t.Errorf("tanh'(%v) = %v", x, d[0])
		}

		if err := Derivative(d, []float64{x}, ReLU); err != nil {
			t.Fatal(err)
		}
		want := 0.0
		if x > 0 {
			want = 1.0
		}
		if d[0] != want {
			t.Errorf("relu'(%v) = %v, want %v", x, d[0], want)
		}

		if err := Derivative(d, []float64{x}, Swish); err != nil {
			t.Fatal(err)
		}
		s := 1 / (1 + math.Exp(-x))
		if math.Abs(d[0]-(s+x*s*(1-s))) > 1e-12 {
			t.Errorf("swish'(%v) = %v", x, d[0])
		}
	}
}

// TestUnknownTagIdentity documents the identity fallback: an unrecognized
// tag passes input through unchanged instead of failing.
func TestUnknownTagIdentity(t *testing.T) {
	src := []float64{1.5, -2.5, 0}
	dst := make([]float64, 3)
	if err := Apply(dst, src, Func(99)); err != nil {
		t.Fatalf("unknown tag must not fail: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("identity fallback at %d: got %v, want %v", i, dst[i], src[i])
		}
	}

	if err := Derivative(dst, src, Func(99)); err != nil {
		t.Fatal(err)
	}
	for i := range dst {
		if dst[i] != 1.0 {
			t.Errorf("unknown tag derivative at %d: got %v, want 1", i, dst[i])
		}
	}
}

func TestNilInput(t *testing.T) {
	buf := make([]float64, 2)
	if err := Apply(nil, buf, ReLU); err != ErrNilInput {
		t.Errorf("Apply(nil dst): got %v", err)
	}
	if err := Apply(buf, nil, ReLU); err != ErrNilInput {
		t.Errorf("Apply(nil src): got %v", err)
	}
	if err := Derivative(nil, buf, ReLU); err != ErrNilInput {
		t.Errorf("Derivative(nil dst): got %v", err)
	}
	if err := Derivative(buf, nil, ReLU); err != ErrNilInput {
		t.Errorf("Derivative(nil src): got %v", err)
	}
}

func TestApplyInPlace(t *testing.T) {
	buf := []float64{-1, 2, -3}
	if err := Apply(buf, buf, ReLU); err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 2, 0}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("in-place ReLU at %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestFuncString(t *testing.T) {
	if Sigmoid.String() != "sigmoid" || Softmax.String() != "softmax" {
		t.Error("unexpected Func names")
	}
	if Func(42).String() != "identity" {
		t.Error("unknown tags stringify as identity")
	}
}
