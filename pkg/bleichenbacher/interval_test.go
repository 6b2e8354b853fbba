package bleichenbacher

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func iv(start, end int64) Interval {
	return NewInterval(big.NewInt(start), big.NewInt(end))
}

func bounds(s *IntervalSet) [][2]int64 {
	out := make([][2]int64, 0, s.Len())
	for _, iv := range s.Intervals() {
		out = append(out, [2]int64{iv.Start.Int64(), iv.End.Int64()})
	}
	return out
}

func TestIntervalSetFusion(t *testing.T) {
	s := NewIntervalSet()
	require.Empty(t, s.Intervals())

	s.Insert(iv(5, 10))
	require.Equal(t, [][2]int64{{5, 10}}, bounds(s))

	s.Insert(iv(12, 13))
	require.Equal(t, [][2]int64{{5, 10}, {12, 13}}, bounds(s))

	s.Insert(iv(11, 15))
	require.Equal(t, [][2]int64{{5, 15}}, bounds(s))

	s.Insert(iv(2, 6))
	require.Equal(t, [][2]int64{{2, 15}}, bounds(s))
}

func TestIntervalSetAdjacentSingletons(t *testing.T) {
	s := NewIntervalSet()
	s.Insert(iv(5, 5))
	s.Insert(iv(6, 6))
	require.Equal(t, [][2]int64{{5, 6}}, bounds(s))
}

func TestIntervalSetIdempotentInsert(t *testing.T) {
	s := NewIntervalSet()
	s.Insert(iv(5, 10))
	s.Insert(iv(20, 30))
	before := bounds(s)

	s.Insert(iv(5, 10))
	s.Insert(iv(20, 30))
	require.Equal(t, before, bounds(s))
}

func TestIntervalSetContainment(t *testing.T) {
	s := NewIntervalSet()
	s.Insert(iv(5, 6))
	s.Insert(iv(8, 9))
	s.Insert(iv(11, 12))
	s.Insert(iv(40, 50))

	s.Insert(iv(3, 20))
	require.Equal(t, [][2]int64{{3, 20}, {40, 50}}, bounds(s))
}

func TestIntervalSetSubsetOfExisting(t *testing.T) {
	s := NewIntervalSet()
	s.Insert(iv(5, 10))
	s.Insert(iv(6, 9))
	require.Equal(t, [][2]int64{{5, 10}}, bounds(s))
}

func TestIntervalSetBridgesTwoIntervals(t *testing.T) {
	s := NewIntervalSet()
	s.Insert(iv(5, 10))
	s.Insert(iv(14, 20))
	s.Insert(iv(8, 15))
	require.Equal(t, [][2]int64{{5, 20}}, bounds(s))
}

func TestIntervalSetDisjointInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := NewIntervalSet()

	// Model coverage with a plain bitmap and compare after every insert.
	const span = 1000
	var covered [span]bool

	for i := 0; i < 300; i++ {
		lo := rng.Int63n(span - 1)
		hi := lo + rng.Int63n(span-lo)
		s.Insert(iv(lo, hi))
		for v := lo; v <= hi; v++ {
			covered[v] = true
		}

		ivs := s.Intervals()
		for j, cur := range ivs {
			require.LessOrEqual(t, cur.Start.Int64(), cur.End.Int64())
			if j > 0 {
				prev := ivs[j-1]
				require.Less(t, prev.End.Int64()+1, cur.Start.Int64(),
					"intervals %v and %v overlap or touch", prev, cur)
			}
		}
	}

	inSet := func(v int64) bool {
		for _, cur := range s.Intervals() {
			if cur.Contains(big.NewInt(v)) {
				return true
			}
		}
		return false
	}
	for v := int64(0); v < span; v++ {
		require.Equal(t, covered[v], inSet(v), "coverage mismatch at %d", v)
	}
}

func TestNewIntervalPanicsOnInvertedBounds(t *testing.T) {
	require.Panics(t, func() {
		NewInterval(big.NewInt(10), big.NewInt(5))
	})
	require.Panics(t, func() {
		NewIntervalSet().Insert(Interval{Start: big.NewInt(10), End: big.NewInt(5)})
	})
}
