package nn

import (
	"fmt"
	"sync"

	"github.com/cortex-ml/cortex/internal/activation"
	"github.com/cortex-ml/cortex/internal/kernels"
	"github.com/cortex-ml/cortex/internal/parallel"
)

// inferRow runs a cache-free forward pass for one sample using caller-owned
// scratch. It never touches the per-layer backward caches, so concurrent
// calls with distinct scratch are safe while weights are read-only.
func (n *Network) inferRow(input, output, bufA, bufB []float64) error {
	cur, next := bufA, bufB
	copy(cur, input[:n.cfg.InputSize])

	for _, l := range n.layers {
		if err := kernels.MatVec(next[:l.OutSize], l.Weights, cur[:l.InSize], l.OutSize, l.InSize); err != nil {
			return err
		}
		if err := kernels.Add(next[:l.OutSize], next[:l.OutSize], l.Biases); err != nil {
			return err
		}
		if n.cfg.BatchNorm {
			l.batchNorm(next[:l.OutSize])
		}
		if err := applyActivation(next[:l.OutSize], l.Act); err != nil {
			return err
		}
		cur, next = next, cur
	}

	copy(output[:n.cfg.OutputSize], cur[:n.cfg.OutputSize])
	return nil
}

// ForwardBatch runs inference over batch samples laid out contiguously:
// inputs holds batch*InputSize values and outputs batch*OutputSize. Rows
// are partitioned across workers, each with its own tracker-allocated
// scratch; all workers are joined before return.
func (n *Network) ForwardBatch(inputs, outputs []float64, batch int) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	if inputs == nil || outputs == nil {
		return ErrNilInput
	}
	if batch <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidArgument, batch)
	}
	if len(inputs) < batch*n.cfg.InputSize || len(outputs) < batch*n.cfg.OutputSize {
		return fmt.Errorf("%w: buffer too small for batch %d", ErrInvalidArgument, batch)
	}

	n.timer.Start("forward_batch")
	defer n.timer.Stop("forward_batch")

	width := n.cfg.maxWidth()
	inW, outW := n.cfg.InputSize, n.cfg.OutputSize

	var mu sync.Mutex
	var firstErr error
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	parallel.ForChunks(batch, func(start, end int) {
		bufA, err := n.tracker.AllocFloat64(width)
		if err != nil {
			setErr(err)
			return
		}
		defer n.tracker.FreeFloat64(bufA)
		bufB, err := n.tracker.AllocFloat64(width)
		if err != nil {
			setErr(err)
			return
		}
		defer n.tracker.FreeFloat64(bufB)

		for r := start; r < end; r++ {
			in := inputs[r*inW : (r+1)*inW]
			out := outputs[r*outW : (r+1)*outW]
			if err := n.inferRow(in, out, bufA, bufB); err != nil {
				setErr(err)
				return
			}
		}
	}, parallel.DefaultConfig())

	return firstErr
}

// workerGrads holds one worker's private accumulation state for parallel
// training: per-layer forward caches plus gradient sums.
type workerGrads struct {
	layerIn [][]float64
	preAct  [][]float64
	gradW   [][]float64
	gradB   [][]float64
	delta   []float64
	work    []float64
	loss    float64
	rows    int
}

func (n *Network) newWorkerGrads() *workerGrads {
	w := &workerGrads{
		layerIn: make([][]float64, len(n.layers)),
		preAct:  make([][]float64, len(n.layers)),
		gradW:   make([][]float64, len(n.layers)),
		gradB:   make([][]float64, len(n.layers)),
		delta:   make([]float64, n.cfg.maxWidth()),
		work:    make([]float64, n.cfg.maxWidth()),
	}
	for i, l := range n.layers {
		w.layerIn[i] = make([]float64, l.InSize)
		w.preAct[i] = make([]float64, l.OutSize)
		w.gradW[i] = make([]float64, l.InSize*l.OutSize)
		w.gradB[i] = make([]float64, l.OutSize)
	}
	return w
}

// accumulate runs forward and backward for one sample against frozen
// weights, adding this sample's gradients into the worker's sums. Dropout
// and batch-norm statistics stay frozen during parallel training.
func (n *Network) accumulate(w *workerGrads, input, target []float64) error {
	cur, next := w.delta, w.work
	copy(cur, input[:n.cfg.InputSize])

	for i, l := range n.layers {
		copy(w.layerIn[i], cur[:l.InSize])
		if err := kernels.MatVec(next[:l.OutSize], l.Weights, cur[:l.InSize], l.OutSize, l.InSize); err != nil {
			return err
		}
		if err := kernels.Add(next[:l.OutSize], next[:l.OutSize], l.Biases); err != nil {
			return err
		}
		copy(w.preAct[i], next[:l.OutSize])
		if n.cfg.BatchNorm {
			l.batchNorm(next[:l.OutSize])
		}
		if err := applyActivation(next[:l.OutSize], l.Act); err != nil {
			return err
		}
		cur, next = next, cur
	}

	size := n.cfg.OutputSize
	w.loss += mse(cur[:size], target[:size])
	w.rows++

	// Deltas reuse the forward ping-pong buffers.
	delta, work := cur, next
	inv := 2.0 / float64(size)
	for i := 0; i < size; i++ {
		delta[i] = inv * (delta[i] - target[i])
	}

	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]

		if err := activation.Derivative(work[:l.OutSize], w.preAct[li], l.Act); err != nil {
			return err
		}
		if err := kernels.Mul(delta[:l.OutSize], delta[:l.OutSize], work[:l.OutSize]); err != nil {
			return err
		}

		gw := w.gradW[li]
		in := w.layerIn[li]
		for i := 0; i < l.OutSize; i++ {
			dz := delta[i]
			row := gw[i*l.InSize : (i+1)*l.InSize]
			for j, x := range in[:l.InSize] {
				row[j] += dz * x
			}
			w.gradB[li][i] += dz
		}

		if li == 0 {
			break
		}
		for j := 0; j < l.InSize; j++ {
			var s float64
			for i := 0; i < l.OutSize; i++ {
				s += l.Weights[i*l.InSize+j] * delta[i]
			}
			work[j] = s
		}
		delta, work = work, delta
	}

	return nil
}

// TrainBatchParallel runs one optimizer step over a whole batch. Workers
// compute per-sample gradients against frozen weights; after the join the
// averaged gradients drive a single SGD update. Returns the mean pre-update
// loss, or -1.0 on nil buffers, a bad batch size, or a destroyed network.
func (n *Network) TrainBatchParallel(inputs, targets []float64, batch int) float64 {
	if n == nil || inputs == nil || targets == nil || n.st != stateBuilt {
		return -1.0
	}
	if batch <= 0 {
		return -1.0
	}
	inW, outW := n.cfg.InputSize, n.cfg.OutputSize
	if len(inputs) < batch*inW || len(targets) < batch*outW {
		return -1.0
	}

	n.timer.Start("train_batch")
	defer n.timer.Stop("train_batch")

	var mu sync.Mutex
	var workers []*workerGrads
	var firstErr error

	parallel.ForChunks(batch, func(start, end int) {
		w := n.newWorkerGrads()
		for r := start; r < end; r++ {
			in := inputs[r*inW : (r+1)*inW]
			tg := targets[r*outW : (r+1)*outW]
			if err := n.accumulate(w, in, tg); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
		}
		mu.Lock()
		workers = append(workers, w)
		mu.Unlock()
	}, parallel.DefaultConfig())

	if firstErr != nil {
		return -1.0
	}

	// Merge worker sums into the layer gradient buffers, averaged over the
	// batch, then take one optimizer step.
	invBatch := 1.0 / float64(batch)
	var totalLoss float64
	for li, l := range n.layers {
		gw, gb := l.GradW, l.GradB
		for i := range gw {
			gw[i] = 0
		}
		for i := range gb {
			gb[i] = 0
		}
		for _, w := range workers {
			for i, v := range w.gradW[li] {
				gw[i] += v * invBatch
			}
			for i, v := range w.gradB[li] {
				gb[i] += v * invBatch
			}
		}
	}
	for _, w := range workers {
		totalLoss += w.loss
	}
	n.sgd.Step(n.paramGroups())

	return totalLoss / float64(batch)
}
