package memory

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAlignment(t *testing.T) {
	tr := New()

	for _, align := range []int{8, 16, 32, 64, 128} {
		buf, err := tr.Alloc(100, align)
		require.NoError(t, err)
		require.Len(t, buf, 100)

		addr := uintptr(unsafe.Pointer(&buf[0]))
		assert.Zero(t, int(addr)&(align-1), "alignment %d", align)

		require.NoError(t, tr.Free(buf))
	}
}

func TestAllocZeroed(t *testing.T) {
	tr := New()
	buf, err := tr.Alloc(64, 0)
	require.NoError(t, err)
	for i, b := range buf {
		require.Zerof(t, b, "byte %d", i)
	}
	require.NoError(t, tr.Free(buf))
}

func TestStatsAccounting(t *testing.T) {
	tr := New()

	a, err := tr.Alloc(1000, 8)
	require.NoError(t, err)
	b, err := tr.Alloc(500, 8)
	require.NoError(t, err)

	s := tr.Stats()
	assert.Equal(t, uint64(1500), s.TotalAllocated)
	assert.Equal(t, uint64(1500), s.InUse)
	assert.Equal(t, uint64(1500), s.Peak)
	assert.Equal(t, uint64(2), s.Allocations)
	assert.Equal(t, uint64(0), s.Deallocations)
	assert.Equal(t, 0.0, s.FragmentationRatio)

	require.NoError(t, tr.Free(a))

	s = tr.Stats()
	assert.Equal(t, uint64(1500), s.TotalAllocated, "total never decreases")
	assert.Equal(t, uint64(500), s.InUse, "frees decrement in-use")
	assert.Equal(t, uint64(1500), s.Peak)
	assert.Equal(t, uint64(1), s.Deallocations)
	assert.InDelta(t, 1000.0/1500.0, s.FragmentationRatio, 1e-12)

	require.NoError(t, tr.Free(b))
	assert.Equal(t, 0, tr.Live())
}

func TestStatsEmptyTracker(t *testing.T) {
	s := New().Stats()
	assert.Zero(t, s.Peak)
	assert.Equal(t, 0.0, s.FragmentationRatio, "ratio defined as 0 when peak is 0")
}

func TestFreeErrors(t *testing.T) {
	tr := New()

	assert.ErrorIs(t, tr.Free(nil), ErrNilInput)

	// A buffer the tracker never handed out.
	foreign := make([]byte, 16)
	assert.ErrorIs(t, tr.Free(foreign), ErrInvalidArgument)

	// Double free.
	buf, err := tr.Alloc(16, 8)
	require.NoError(t, err)
	require.NoError(t, tr.Free(buf))
	assert.ErrorIs(t, tr.Free(buf), ErrInvalidArgument)
}

func TestAllocErrors(t *testing.T) {
	tr := New()

	_, err := tr.Alloc(0, 8)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tr.Alloc(-5, 8)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tr.Alloc(16, 24)
	assert.ErrorIs(t, err, ErrInvalidArgument, "alignment must be a power of two")
}

func TestAllocFloat64(t *testing.T) {
	tr := New()

	xs, err := tr.AllocFloat64(33)
	require.NoError(t, err)
	require.Len(t, xs, 33)

	addr := uintptr(unsafe.Pointer(&xs[0]))
	assert.Zero(t, int(addr)&31, "float64 buffers are 32-byte aligned")

	for _, x := range xs {
		require.Zero(t, x)
	}

	s := tr.Stats()
	assert.Equal(t, uint64(33*8), s.InUse)

	require.NoError(t, tr.FreeFloat64(xs))
	assert.Zero(t, tr.Stats().InUse)
}

func TestConcurrentAllocFree(t *testing.T) {
	tr := New()

	const workers = 8
	const iters = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				buf, err := tr.Alloc(256, 32)
				if err != nil {
					t.Error(err)
					return
				}
				if err := tr.Free(buf); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	s := tr.Stats()
	assert.Equal(t, uint64(workers*iters), s.Allocations)
	assert.Equal(t, uint64(workers*iters), s.Deallocations)
	assert.Zero(t, s.InUse)
	assert.Equal(t, 0, tr.Live())
}

func TestSnapshotIsolation(t *testing.T) {
	tr := New()
	buf, err := tr.Alloc(128, 8)
	require.NoError(t, err)

	before := tr.Stats()
	require.NoError(t, tr.Free(buf))

	// The earlier snapshot must not observe the free.
	assert.Equal(t, uint64(128), before.InUse)
}

func TestOptimizeNoop(t *testing.T) {
	assert.NoError(t, New().Optimize())
}
