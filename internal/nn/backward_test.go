package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortex-ml/cortex/internal/activation"
	"github.com/cortex-ml/cortex/internal/memory"
)

// smoothConfig uses sigmoid everywhere so finite differences are well
// behaved.
func smoothConfig() Config {
	return Config{
		InputSize:    3,
		HiddenSizes:  []int{5},
		OutputSize:   2,
		LearningRate: 0.1,
		Activations: []activation.Func{
			activation.Sigmoid, activation.Sigmoid, activation.Sigmoid,
		},
		Seed: 7,
	}
}

func lossAt(t *testing.T, net *Network, input, target []float64) float64 {
	t.Helper()
	out := make([]float64, net.Config().OutputSize)
	require.NoError(t, net.Forward(input, out))
	l, err := net.Loss(out, target)
	require.NoError(t, err)
	return l
}

func TestLossExactZeroOnMatch(t *testing.T) {
	net, err := Build(testConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	out := make([]float64, 2)
	require.NoError(t, net.Forward([]float64{1, 0.5, -0.5}, out))

	l, err := net.Loss(out, out)
	require.NoError(t, err)
	assert.Equal(t, 0.0, l, "loss against own output must be exactly zero")
}

func TestLossKnownValue(t *testing.T) {
	net, err := Build(testConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	l, err := net.Loss([]float64{1, 2}, []float64{2, 4})
	require.NoError(t, err)
	assert.InDelta(t, (1.0+4.0)/2.0, l, 1e-15)
}

func TestBackwardResidual(t *testing.T) {
	net, err := Build(testConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	in := []float64{0.2, -0.4, 0.6}
	out := make([]float64, 2)
	require.NoError(t, net.Forward(in, out))

	target := []float64{1.0, -1.0}
	grad := make([]float64, 2)
	require.NoError(t, net.Backward(out, target, grad))

	for i := range grad {
		assert.InDelta(t, target[i]-out[i], grad[i], 1e-15, "residual %d", i)
	}
}

// TestBackwardFiniteDifference checks every analytic weight and bias
// gradient against a central finite difference of the loss.
func TestBackwardFiniteDifference(t *testing.T) {
	net, err := Build(smoothConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	in := []float64{0.3, -0.7, 1.1}
	target := []float64{0.8, 0.2}

	out := make([]float64, 2)
	require.NoError(t, net.Forward(in, out))
	grad := make([]float64, 2)
	require.NoError(t, net.Backward(out, target, grad))

	const eps = 1e-6
	check := func(li int, params, analytic []float64, name string) {
		for i := range params {
			saved := params[i]
			params[i] = saved + eps
			up := lossAt(t, net, in, target)
			params[i] = saved - eps
			down := lossAt(t, net, in, target)
			params[i] = saved

			numeric := (up - down) / (2 * eps)
			tol := 1e-6 + 1e-4*math.Abs(numeric)
			assert.InDelta(t, numeric, analytic[i], tol,
				"layer %d %s[%d]", li, name, i)
		}
	}

	for li, l := range net.Layers() {
		check(li, l.Weights, l.GradW, "weight")
		check(li, l.Biases, l.GradB, "bias")
	}
}

func TestBackwardErrors(t *testing.T) {
	net, err := Build(testConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	buf := make([]float64, 2)
	assert.ErrorIs(t, net.Backward(nil, buf, buf), ErrNilInput)
	assert.ErrorIs(t, net.Backward(buf, nil, buf), ErrNilInput)
	assert.ErrorIs(t, net.Backward(buf, buf, nil), ErrNilInput)
	assert.ErrorIs(t, net.Backward(make([]float64, 1), buf, buf), ErrInvalidArgument)
}

func TestTrainBatchNilSentinel(t *testing.T) {
	net, err := Build(testConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	assert.Equal(t, -1.0, net.TrainBatch(nil, []float64{0, 0}))
	assert.Equal(t, -1.0, net.TrainBatch([]float64{1, 2, 3}, nil))
	assert.Equal(t, -1.0, net.TrainBatch([]float64{1}, []float64{0, 0}))

	var gone *Network
	assert.Equal(t, -1.0, gone.TrainBatch([]float64{1, 2, 3}, []float64{0, 0}))
}

func TestTrainBatchZeroLossOnOwnOutput(t *testing.T) {
	net, err := Build(testConfig(), memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	in := []float64{0.5, 0.25, -0.75}
	out := make([]float64, 2)
	require.NoError(t, net.Forward(in, out))

	target := append([]float64(nil), out...)
	assert.Equal(t, 0.0, net.TrainBatch(in, target))
}

func TestTrainBatchReducesLoss(t *testing.T) {
	cfg := smoothConfig()
	cfg.LearningRate = 0.5
	net, err := Build(cfg, memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	in := []float64{0.1, 0.9, -0.3}
	target := []float64{0.75, 0.25}

	first := net.TrainBatch(in, target)
	require.GreaterOrEqual(t, first, 0.0)

	var last float64
	for i := 0; i < 200; i++ {
		last = net.TrainBatch(in, target)
		require.GreaterOrEqual(t, last, 0.0)
	}
	assert.Less(t, last, first, "repeated training on one sample must reduce loss")
}

func TestTrainBatchWithMomentum(t *testing.T) {
	cfg := smoothConfig()
	cfg.LearningRate = 0.2
	cfg.Momentum = 0.9
	net, err := Build(cfg, memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	in := []float64{0.4, -0.2, 0.6}
	target := []float64{0.3, 0.7}

	first := net.TrainBatch(in, target)
	var last float64
	for i := 0; i < 100; i++ {
		last = net.TrainBatch(in, target)
	}
	assert.Less(t, last, first)
}

func TestDropoutTrainingStillConverges(t *testing.T) {
	cfg := smoothConfig()
	cfg.LearningRate = 0.5
	cfg.Dropout = true
	cfg.DropoutRate = 0.2
	net, err := Build(cfg, memory.New())
	require.NoError(t, err)
	defer net.Destroy()

	in := []float64{0.1, 0.9, -0.3}
	target := []float64{0.6, 0.4}

	first := net.TrainBatch(in, target)
	require.GreaterOrEqual(t, first, 0.0)
	var sum float64
	for i := 0; i < 300; i++ {
		sum = net.TrainBatch(in, target)
		require.GreaterOrEqual(t, sum, 0.0)
	}
	// Loss is noisy under dropout; inference loss should still improve.
	assert.Less(t, lossAt(t, net, in, target), first)
}
