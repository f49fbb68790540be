// Package hardware detects CPU acceleration capabilities and holds the
// process-wide optimization configuration.
//
// Detection runs once; kernels query the active capability set at dispatch
// time and never re-detect mid-computation. The optimization configuration
// can only mask detected capabilities off, never invent ones the hardware
// lacks.
package hardware

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Capability is a bitset of hardware acceleration features.
type Capability uint32

// Supported acceleration features.
const (
	// CapWideSIMD indicates 4-wide double-precision vector units
	// (AVX2 on amd64, ASIMD on arm64).
	CapWideSIMD Capability = 1 << iota
	// CapFMA indicates fused multiply-add support.
	CapFMA
)

// Has reports whether all features in want are present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// String returns a human-readable feature list.
func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	s := ""
	if c.Has(CapWideSIMD) {
		s += "simd,"
	}
	if c.Has(CapFMA) {
		s += "fma,"
	}
	return s[:len(s)-1]
}

// Config controls which acceleration paths the kernels may take.
// Fields mirror the tuning surface accepted by the engine; alignment and
// cache-line values are consumed by the memory tracker and blocked kernels.
type Config struct {
	UseSIMD          bool
	UseParallel      bool
	UseCacheBlocking bool
	UseAlignedAlloc  bool
	CacheLineSize    int
	Alignment        int
	Workers          int
}

// DefaultConfig enables every path the hardware supports.
func DefaultConfig() Config {
	return Config{
		UseSIMD:          true,
		UseParallel:      true,
		UseCacheBlocking: true,
		UseAlignedAlloc:  true,
		CacheLineSize:    64,
		Alignment:        32,
		Workers:          runtime.NumCPU(),
	}
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.Alignment != 0 && (c.Alignment&(c.Alignment-1)) != 0 {
		return fmt.Errorf("hardware: alignment %d is not a power of two", c.Alignment)
	}
	if c.CacheLineSize < 0 || c.Workers < 0 {
		return fmt.Errorf("hardware: negative tuning value")
	}
	return nil
}

var (
	detectOnce sync.Once
	detected   Capability

	mu  sync.RWMutex
	cfg = DefaultConfig()
)

// Detect returns the capabilities of the running CPU. The probe runs once.
func Detect() Capability {
	detectOnce.Do(func() {
		switch runtime.GOARCH {
		case "amd64":
			if cpu.X86.HasAVX2 {
				detected |= CapWideSIMD
			}
			if cpu.X86.HasFMA {
				detected |= CapFMA
			}
		case "arm64":
			if cpu.ARM64.HasASIMD {
				detected |= CapWideSIMD
			}
			if cpu.ARM64.HasFP {
				detected |= CapFMA
			}
		}
	})
	return detected
}

// SetConfig replaces the process-wide optimization configuration.
func SetConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	return nil
}

// GetConfig returns a copy of the current optimization configuration.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Active returns the capabilities the kernels may actually use: the detected
// set masked by the configuration. Requesting SIMD on hardware without it
// yields a scalar-only view; it never fails.
func Active() Capability {
	mu.RLock()
	useSIMD := cfg.UseSIMD
	mu.RUnlock()

	caps := Detect()
	if !useSIMD {
		caps &^= CapWideSIMD | CapFMA
	}
	return caps
}
