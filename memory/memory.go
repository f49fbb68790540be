// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package memory provides the public API for the instrumented allocator
// the engine draws its buffers from.
//
// Example:
//
//	tr := memory.New()
//	buf, err := tr.AllocFloat64(1024)
//	...
//	_ = tr.FreeFloat64(buf)
//	fmt.Println(tr.Stats().Peak)
package memory

import (
	"github.com/cortex-ml/cortex/internal/memory"
)

// Type aliases for public API

// Tracker is an aligned allocator that accounts for every outstanding
// buffer.
type Tracker = memory.Tracker

// Stats is a point-in-time snapshot of a tracker's accounting.
type Stats = memory.Stats

// Allocator errors.
var (
	ErrNilInput        = memory.ErrNilInput
	ErrInvalidArgument = memory.ErrInvalidArgument
	ErrAllocFailed     = memory.ErrAllocFailed
)

// New returns an empty tracker.
func New() *Tracker { return memory.New() }

// Default returns the shared process-wide tracker.
func Default() *Tracker { return memory.Default() }
