// Package parallel partitions independent batch elements across worker
// goroutines. Workers operate on disjoint index ranges and are always joined
// before return; the engine guarantees no shared mutable element ranges.
package parallel

import (
	"runtime"
	"sync"

	"github.com/cortex-ml/cortex/internal/hardware"
)

// Config controls batch partitioning.
type Config struct {
	Enabled  bool // whether to fan out at all
	Workers  int  // goroutines to use
	MinChunk int  // minimum elements per worker to justify the fan-out
}

// DefaultConfig derives worker settings from the process optimization
// configuration and CPU count.
func DefaultConfig() Config {
	hc := hardware.GetConfig()
	workers := hc.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return Config{
		Enabled:  hc.UseParallel && workers > 1,
		Workers:  workers,
		MinChunk: 4,
	}
}

// For executes f(i) for i in [0, n), fanning out across workers when the
// batch is large enough. Falls back to a sequential loop otherwise. All
// workers are joined before For returns.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunk*2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.Workers - 1) / cfg.Workers
	if chunk < cfg.MinChunk {
		chunk = cfg.MinChunk
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForChunks executes f(start, end) over contiguous disjoint ranges covering
// [0, n). Used when a worker wants one slice per range instead of a call per
// element (e.g. per-worker scratch allocation).
func ForChunks(n int, f func(start, end int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunk*2 {
		f(0, n)
		return
	}

	chunk := (n + cfg.Workers - 1) / cfg.Workers
	if chunk < cfg.MinChunk {
		chunk = cfg.MinChunk
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}
