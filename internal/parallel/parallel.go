// Package parallel provides parallel execution utilities for gradtape.
//
// Within one computation chain the engine is single-threaded. Parallelism
// comes from two places: independent batch elements of a kernel (For) and
// independent chains, each with its own tape (RunChains).
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// WithWorkers returns a copy of cfg limited to n workers. n <= 0 keeps the
// current value.
func (c Config) WithWorkers(n int) Config {
	if n > 0 {
		c.NumWorkers = n
		c.Enabled = n > 1
	}
	return c
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
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

// ChainFunc builds and differentiates one independent computation chain.
// It must create its own tensors and tape and must not share either with
// other chains.
type ChainFunc func(ctx context.Context, index int) error

// RunChains runs fn for every index in [0, n) with at most cfg.NumWorkers
// chains in flight. The first error cancels the context passed to the
// remaining chains and is returned; chains that have not started are
// skipped.
func RunChains(ctx context.Context, cfg Config, n int, fn ChainFunc) error {
	workers := cfg.NumWorkers
	if !cfg.Enabled || workers < 1 {
		workers = 1
	}

	start := time.Now()
	klog.V(2).InfoS("Running chains", "chains", n, "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	klog.V(2).InfoS("Chains finished", "chains", n, "duration", time.Since(start), "err", err)
	return err
}
