package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), DefaultConfig().WithWorkers(4), {Enabled: false}} {
		var counter int64
		n := 1000

		For(n, func(_ int) {
			atomic.AddInt64(&counter, 1)
		}, cfg)

		assert.Equal(t, int64(n), counter)
	}
}

func TestFor_CoversEveryIndex(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 2}
	seen := make([]int32, 10)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)
	for i, v := range seen {
		assert.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestRunChains(t *testing.T) {
	const n = 50
	var ran [n]atomic.Bool
	var inFlight, peak atomic.Int32

	cfg := Config{Enabled: true, NumWorkers: 4}
	err := RunChains(context.Background(), cfg, n, func(_ context.Context, i int) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		ran[i].Store(true)
		inFlight.Add(-1)
		return nil
	})
	require.NoError(t, err)

	for i := range ran {
		assert.True(t, ran[i].Load(), "chain %d did not run", i)
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestRunChains_FirstErrorCancels(t *testing.T) {
	errBoom := errors.New("boom")
	var started atomic.Int32

	cfg := Config{Enabled: false}
	err := RunChains(context.Background(), cfg, 10, func(ctx context.Context, i int) error {
		started.Add(1)
		if i == 2 {
			return errBoom
		}
		return ctx.Err()
	})
	require.ErrorIs(t, err, errBoom)
	// A single worker runs chains in order, so nothing after the failure starts.
	assert.Equal(t, int32(3), started.Load())
}

func TestRunChains_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	err := RunChains(ctx, DefaultConfig(), 5, func(context.Context, int) error {
		ran.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ran.Load())
}
