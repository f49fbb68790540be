// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cortex exposes engine-wide services: version and system
// information, the optimization configuration consumed by the numeric
// kernels, and the last-error side channel shared by the public API.
package cortex

import (
	"runtime"
	"sync"

	"github.com/cortex-ml/cortex/internal/hardware"
)

// Version is the engine release string.
const Version = "1.0.0"

// Info describes the runtime environment and detected CPU capabilities.
type Info struct {
	Version      string
	GoVersion    string
	OS           string
	Arch         string
	CPUs         int
	Capabilities string
	WideSIMD     bool
	FMA          bool
}

// SystemInfo reports the environment the engine is running in. Capability
// detection runs once; repeated calls are cheap.
func SystemInfo() Info {
	caps := hardware.Detect()
	return Info{
		Version:      Version,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		CPUs:         runtime.NumCPU(),
		Capabilities: caps.String(),
		WideSIMD:     caps.Has(hardware.CapWideSIMD),
		FMA:          caps.Has(hardware.CapFMA),
	}
}

// OptConfig tunes which acceleration paths the kernels take.
type OptConfig = hardware.Config

// DefaultOptConfig enables every path the hardware supports.
func DefaultOptConfig() OptConfig { return hardware.DefaultConfig() }

// Configure installs a new optimization configuration after validating it.
// Kernels pick up the change on their next dispatch.
func Configure(cfg OptConfig) error {
	return Capture(hardware.SetConfig(cfg))
}

// CurrentConfig returns the active optimization configuration.
func CurrentConfig() OptConfig { return hardware.GetConfig() }

var (
	errMu   sync.Mutex
	lastErr error
)

// Capture records err on the side channel when it is non-nil and returns
// it unchanged. Public API entry points route their errors through here.
func Capture(err error) error {
	if err != nil {
		errMu.Lock()
		lastErr = err
		errMu.Unlock()
	}
	return err
}

// LastError returns the message of the most recent captured error, or the
// empty string when none occurred since the last ClearError.
func LastError() string {
	errMu.Lock()
	defer errMu.Unlock()
	if lastErr == nil {
		return ""
	}
	return lastErr.Error()
}

// ClearError resets the side channel.
func ClearError() {
	errMu.Lock()
	lastErr = nil
	errMu.Unlock()
}
