// Package nn implements the feed-forward network engine: configuration,
// building, forward inference, backpropagation, and batch training. Buffers
// live in an instrumented tracker so callers can observe engine memory and
// verify that Destroy releases everything it built.
package nn

import (
	"fmt"
	"math"
	"time"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cortex-ml/cortex/internal/kernels"
	"github.com/cortex-ml/cortex/internal/memory"
	"github.com/cortex-ml/cortex/internal/optim"
)

type state int

const (
	stateBuilt state = iota + 1
	stateDestroyed
)

// Network is a built feed-forward network. It is created by Build and must
// be released with Destroy. Forward and TrainBatch are not safe for
// concurrent use on the same network; ForwardBatch partitions work
// internally and is safe to call from one goroutine at a time.
type Network struct {
	cfg     Config
	layers  []*Layer
	tracker *memory.Tracker
	timer   Timer

	// Shared scratch, each sized to the widest layer: two forward
	// ping-pong buffers and one gradient buffer.
	scratchIn  []float64
	scratchOut []float64
	gradient   []float64

	rng *exprand.Rand
	sgd *optim.SGD

	st state
}

// Build validates cfg, allocates every layer through tracker and
// initializes weights with Xavier uniform draws. A nil tracker uses the
// process-wide default. On any allocation failure everything already
// allocated is released before the error is returned.
func Build(cfg Config, tracker *memory.Tracker) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = memory.Default()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	n := &Network{
		cfg:     cfg,
		tracker: tracker,
		timer:   nopTimer{},
		rng:     exprand.New(exprand.NewSource(uint64(seed) + 1)),
		sgd:     optim.NewSGD(cfg.LearningRate, cfg.Momentum),
		st:      stateBuilt,
	}

	var owned [][]float64
	alloc := func(size int) ([]float64, error) {
		buf, err := tracker.AllocFloat64(size)
		if err != nil {
			return nil, err
		}
		owned = append(owned, buf)
		return buf, nil
	}
	fail := func(err error) (*Network, error) {
		for _, buf := range owned {
			tracker.FreeFloat64(buf)
		}
		return nil, fmt.Errorf("nn: build: %w", err)
	}

	src := exprand.NewSource(uint64(seed))
	count := cfg.LayerCount()
	for i := 0; i < count; i++ {
		in, out := cfg.layerDims(i)
		l := &Layer{InSize: in, OutSize: out, Act: cfg.activationFor(i)}

		var err error
		if l.Weights, err = alloc(in * out); err != nil {
			return fail(err)
		}
		if l.Biases, err = alloc(out); err != nil {
			return fail(err)
		}
		if l.GradW, err = alloc(in * out); err != nil {
			return fail(err)
		}
		if l.GradB, err = alloc(out); err != nil {
			return fail(err)
		}
		if l.input, err = alloc(in); err != nil {
			return fail(err)
		}
		if l.preAct, err = alloc(out); err != nil {
			return fail(err)
		}
		if cfg.Dropout {
			if l.mask, err = alloc(out); err != nil {
				return fail(err)
			}
		}
		if cfg.BatchNorm {
			if l.BNMean, err = alloc(out); err != nil {
				return fail(err)
			}
			if l.BNVar, err = alloc(out); err != nil {
				return fail(err)
			}
			if l.BNScale, err = alloc(out); err != nil {
				return fail(err)
			}
			if l.BNShift, err = alloc(out); err != nil {
				return fail(err)
			}
			for j := range l.BNVar {
				l.BNVar[j] = 1.0
				l.BNScale[j] = 1.0
			}
		}

		xavierInit(l.Weights, in, out, src)
		n.layers = append(n.layers, l)
	}

	width := cfg.maxWidth()
	var err error
	if n.scratchIn, err = alloc(width); err != nil {
		return fail(err)
	}
	if n.scratchOut, err = alloc(width); err != nil {
		return fail(err)
	}
	if n.gradient, err = alloc(width); err != nil {
		return fail(err)
	}

	return n, nil
}

// xavierInit fills w with uniform draws in [-b, b] where
// b = sqrt(2 / (fanIn + fanOut)).
func xavierInit(w []float64, fanIn, fanOut int, src exprand.Source) {
	bound := math.Sqrt(2.0 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
	for i := range w {
		w[i] = dist.Rand()
	}
}

// Config returns the configuration the network was built from.
func (n *Network) Config() Config { return n.cfg }

// Layers exposes the built layers. Callers may read or overwrite weights
// and biases in place; the slices stay owned by the network.
func (n *Network) Layers() []*Layer { return n.layers }

// Tracker returns the tracker the network allocates from.
func (n *Network) Tracker() *memory.Tracker { return n.tracker }

// SetTimer installs a stage timer. A nil timer restores the no-op default.
func (n *Network) SetTimer(t Timer) {
	if t == nil {
		t = nopTimer{}
	}
	n.timer = t
}

func (n *Network) checkLive() error {
	if n == nil {
		return ErrNilInput
	}
	if n.st != stateBuilt {
		return fmt.Errorf("%w: network is destroyed", ErrInvalidOperation)
	}
	return nil
}

// Forward runs inference: input is propagated through every layer and the
// final activations are copied into output. input must hold at least
// InputSize values and output at least OutputSize.
func (n *Network) Forward(input, output []float64) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	if input == nil || output == nil {
		return ErrNilInput
	}
	if len(input) < n.cfg.InputSize || len(output) < n.cfg.OutputSize {
		return fmt.Errorf("%w: buffer too small", ErrInvalidArgument)
	}

	n.timer.Start("forward")
	defer n.timer.Stop("forward")

	cur, next := n.scratchIn, n.scratchOut
	copy(cur, input[:n.cfg.InputSize])

	for _, l := range n.layers {
		copy(l.input, cur[:l.InSize])

		if err := kernels.MatVec(next[:l.OutSize], l.Weights, cur[:l.InSize], l.OutSize, l.InSize); err != nil {
			return err
		}
		if err := kernels.Add(next[:l.OutSize], next[:l.OutSize], l.Biases); err != nil {
			return err
		}
		copy(l.preAct, next[:l.OutSize])

		if n.cfg.BatchNorm {
			l.batchNorm(next[:l.OutSize])
		}
		if err := applyActivation(next[:l.OutSize], l.Act); err != nil {
			return err
		}
		if n.cfg.Dropout && l.Training {
			l.applyDropout(next[:l.OutSize], n.cfg.DropoutRate, n.rng.Float64)
		}

		cur, next = next, cur
	}

	copy(output[:n.cfg.OutputSize], cur[:n.cfg.OutputSize])
	return nil
}

func (n *Network) setTraining(on bool) {
	for _, l := range n.layers {
		l.Training = on
	}
}

// Optimize applies a learning-rate decay step: the rate is multiplied by
// 0.95 with a floor of 1e-4. Repeated calls anneal training over time.
func (n *Network) Optimize() error {
	if err := n.checkLive(); err != nil {
		return err
	}
	lr := n.sgd.LR() * 0.95
	if lr < 1e-4 {
		lr = 1e-4
	}
	n.sgd.SetLR(lr)
	return nil
}

// LearningRate returns the optimizer's current learning rate, which decays
// as Optimize is called.
func (n *Network) LearningRate() float64 { return n.sgd.LR() }

// Destroy releases every buffer the network allocated. A second call
// returns ErrInvalidOperation; the first free already returned the memory.
func (n *Network) Destroy() error {
	if n == nil {
		return ErrNilInput
	}
	if n.st == stateDestroyed {
		return fmt.Errorf("%w: already destroyed", ErrInvalidOperation)
	}
	n.st = stateDestroyed

	var firstErr error
	free := func(buf []float64) {
		if buf == nil {
			return
		}
		if err := n.tracker.FreeFloat64(buf); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, l := range n.layers {
		free(l.Weights)
		free(l.Biases)
		free(l.GradW)
		free(l.GradB)
		free(l.input)
		free(l.preAct)
		free(l.mask)
		free(l.BNMean)
		free(l.BNVar)
		free(l.BNScale)
		free(l.BNShift)
	}
	free(n.scratchIn)
	free(n.scratchOut)
	free(n.gradient)

	n.layers = nil
	n.scratchIn, n.scratchOut, n.gradient = nil, nil, nil
	return firstErr
}
