// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public API of the Cortex feed-forward engine.
//
// # Overview
//
// This package covers the full network lifecycle:
//   - Config: network shape, training hyperparameters, regularization
//   - Build: validated construction with tracked, Xavier-initialized buffers
//   - Forward / ForwardBatch: single-sample and parallel batch inference
//   - TrainBatch / TrainBatchParallel: MSE training with SGD and momentum
//   - Save / Load: checksummed model persistence
//   - Destroy: deterministic release of every engine buffer
//
// # Basic Usage
//
//	cfg := nn.Config{
//	    InputSize:    4,
//	    HiddenSizes:  []int{8, 8},
//	    OutputSize:   2,
//	    LearningRate: 0.05,
//	}
//	net, err := nn.Build(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer net.Destroy()
//
//	out := make([]float64, 2)
//	_ = net.Forward(input, out)
//
// # Training
//
// TrainBatch runs one forward/backward/update cycle on a single sample and
// returns the pre-update loss (or -1.0 on invalid input):
//
//	loss := net.TrainBatch(input, target)
//
// TrainBatchParallel fans a whole batch out across workers and applies one
// averaged update.
//
// # Persistence
//
//	_ = nn.Save(net, "model.ctx")
//	restored, err := nn.Load("model.ctx", nil)
package nn
