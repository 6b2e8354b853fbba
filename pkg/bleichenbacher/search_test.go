package bleichenbacher

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

// multipleOf builds a fake oracle accepting multiples of m, with the
// identity blinding so candidates can be checked directly.
func multipleOf(m int64) (Oracle, func(*big.Int) *big.Int) {
	mod := big.NewInt(m)
	oracle := func(c *big.Int) bool {
		return new(big.Int).Mod(c, mod).Sign() == 0
	}
	blind := func(s *big.Int) *big.Int { return s }
	return oracle, blind
}

func TestSearchersFindSmallestHit(t *testing.T) {
	oracle, blind := multipleOf(97)
	ctx := context.Background()

	searchers := map[string]Searcher{
		"sequential": SequentialSearcher{},
		"parallel":   ParallelSearcher{Workers: 4},
	}
	for name, searcher := range searchers {
		t.Run(name, func(t *testing.T) {
			s, err := searcher.Search(ctx, oracle, blind, big.NewInt(5), 1000)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if s.Int64() != 97 {
				t.Errorf("Found s = %v, want 97", s)
			}

			// Starting just past a hit must yield the next one.
			s, err = searcher.Search(ctx, oracle, blind, big.NewInt(98), 1000)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if s.Int64() != 194 {
				t.Errorf("Found s = %v, want 194", s)
			}
		})
	}
}

func TestSearchersExhaustLimit(t *testing.T) {
	oracle := Oracle(func(c *big.Int) bool { return false })
	blind := func(s *big.Int) *big.Int { return s }
	ctx := context.Background()

	for name, searcher := range map[string]Searcher{
		"sequential": SequentialSearcher{},
		"parallel":   ParallelSearcher{Workers: 4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := searcher.Search(ctx, oracle, blind, big.NewInt(1), 200)
			if !errors.Is(err, ErrAttackFailed) {
				t.Errorf("Expected ErrAttackFailed, got %v", err)
			}
		})
	}
}

func TestSearchersHonorCancellation(t *testing.T) {
	oracle := Oracle(func(c *big.Int) bool { return false })
	blind := func(s *big.Int) *big.Int { return s }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, searcher := range map[string]Searcher{
		"sequential": SequentialSearcher{},
		"parallel":   ParallelSearcher{Workers: 4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := searcher.Search(ctx, oracle, blind, big.NewInt(1), 1<<30)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got %v", err)
			}
		})
	}
}
