// Package memory provides an instrumented aligned allocator.
//
// Every buffer the engine owns is obtained from a Tracker, which maintains
// running statistics: bytes ever allocated, bytes currently in use, peak
// usage, allocation/deallocation counts, and a coarse fragmentation ratio.
// A side table keyed by each region's base address records its size, so
// frees decrement the in-use figure exactly.
//
// Trackers are safe for concurrent use; parallel batch workers allocating
// scratch buffers serialize only on the internal mutex.
package memory

import (
	"sync"
	"unsafe"
)

// DefaultAlignment is used when a caller passes a zero alignment.
const DefaultAlignment = 8

// Stats is a point-in-time snapshot of a tracker's counters.
type Stats struct {
	TotalAllocated uint64 // bytes ever handed out
	InUse          uint64 // bytes currently live
	Peak           uint64 // high-water mark of InUse
	Allocations    uint64
	Deallocations  uint64
	// FragmentationRatio is (Peak - InUse) / Peak, or 0 when Peak is 0.
	FragmentationRatio float64
}

type region struct {
	backing []byte // full over-allocated block, pins the memory
	size    int
}

// Tracker is an instrumented aligned allocator. The zero value is not
// usable; create one with New.
type Tracker struct {
	mu      sync.Mutex
	regions map[uintptr]region

	total  uint64
	used   uint64
	peak   uint64
	allocs uint64
	frees  uint64
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{regions: make(map[uintptr]region)}
}

var defaultTracker = New()

// Default returns the process-wide shared tracker. Engines that are not
// handed an explicit tracker fall back to this one.
func Default() *Tracker {
	return defaultTracker
}

// Alloc returns a zeroed region of size bytes whose first byte is aligned
// to align. A zero align means DefaultAlignment.
func (t *Tracker) Alloc(size, align int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidArgument
	}
	if align == 0 {
		align = DefaultAlignment
	}
	if align < 0 || align&(align-1) != 0 {
		return nil, ErrInvalidArgument
	}

	// Over-allocate so an aligned window always fits.
	backing := make([]byte, size+align)
	if backing == nil {
		return nil, ErrAllocFailed
	}
	base := uintptr(unsafe.Pointer(&backing[0]))
	off := 0
	if rem := int(base) & (align - 1); rem != 0 {
		off = align - rem
	}
	buf := backing[off : off+size : off+size]

	t.mu.Lock()
	t.regions[base+uintptr(off)] = region{backing: backing, size: size}
	t.total += uint64(size)
	t.used += uint64(size)
	t.allocs++
	if t.used > t.peak {
		t.peak = t.used
	}
	t.mu.Unlock()

	return buf, nil
}

// Free releases a region previously returned by Alloc. Freeing a buffer the
// tracker does not know is ErrInvalidArgument; freeing nil is ErrNilInput.
func (t *Tracker) Free(buf []byte) error {
	if buf == nil {
		return ErrNilInput
	}
	key := uintptr(unsafe.Pointer(&buf[0]))

	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.regions[key]
	if !ok {
		return ErrInvalidArgument
	}
	delete(t.regions, key)
	t.used -= uint64(r.size)
	t.frees++
	return nil
}

// AllocFloat64 returns a zeroed, aligned []float64 of n elements backed by
// tracked memory.
func (t *Tracker) AllocFloat64(n int) ([]float64, error) {
	if n <= 0 {
		return nil, ErrInvalidArgument
	}
	buf, err := t.Alloc(n*8, 32)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&buf[0])), n), nil
}

// FreeFloat64 releases a slice obtained from AllocFloat64.
func (t *Tracker) FreeFloat64(xs []float64) error {
	if xs == nil {
		return ErrNilInput
	}
	return t.Free(unsafe.Slice((*byte)(unsafe.Pointer(&xs[0])), len(xs)*8))
}

// Stats returns a snapshot copy of the counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		TotalAllocated: t.total,
		InUse:          t.used,
		Peak:           t.peak,
		Allocations:    t.allocs,
		Deallocations:  t.frees,
	}
	if t.peak > 0 {
		s.FragmentationRatio = float64(t.peak-t.used) / float64(t.peak)
	}
	return s
}

// Live returns the number of regions currently outstanding.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.regions)
}

// Optimize is a reserved extension point for future compaction. It always
// succeeds.
func (t *Tracker) Optimize() error {
	return nil
}
