// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	cortex "github.com/cortex-ml/cortex"
	"github.com/cortex-ml/cortex/internal/memory"
	"github.com/cortex-ml/cortex/internal/nn"
	"github.com/cortex-ml/cortex/internal/serialization"
)

// Type aliases for public API

// Config describes a network before it is built.
type Config = nn.Config

// Network is a built network; see Build.
type Network = nn.Network

// Layer is one affine transform plus activation.
type Layer = nn.Layer

// Timer observes named engine stages.
type Timer = nn.Timer

// StageTimer records wall-clock durations per stage.
type StageTimer = nn.StageTimer

// NewStageTimer returns an empty stage timer.
func NewStageTimer() *StageTimer { return nn.NewStageTimer() }

// Engine errors.
var (
	ErrNilInput         = nn.ErrNilInput
	ErrInvalidArgument  = nn.ErrInvalidArgument
	ErrInvalidOperation = nn.ErrInvalidOperation
)

// Build constructs a network from cfg, allocating through tracker. A nil
// tracker uses the process-wide default. Failures are also recorded on the
// package error side channel (cortex.LastError).
func Build(cfg Config, tracker *memory.Tracker) (*Network, error) {
	net, err := nn.Build(cfg, tracker)
	return net, cortex.Capture(err)
}

// Save persists a built network to path.
func Save(net *Network, path string) error {
	return cortex.Capture(serialization.Save(net, path))
}

// Load restores a network saved with Save, allocating through tracker.
func Load(path string, tracker *memory.Tracker) (*Network, error) {
	net, err := serialization.Load(path, tracker)
	return net, cortex.Capture(err)
}
