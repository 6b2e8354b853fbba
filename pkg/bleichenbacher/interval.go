package bleichenbacher

import (
	"fmt"
	"math/big"
	"sort"
)

// Interval is a closed range of integers [Start, End].
// It represents "the blinded plaintext lies somewhere in this range".
// Intervals are never mutated after construction; narrowing replaces them.
type Interval struct {
	Start *big.Int
	End   *big.Int
}

// NewInterval creates an interval with its own copies of the bounds.
// Start > End is a programming error and panics.
func NewInterval(start, end *big.Int) Interval {
	if start.Cmp(end) > 0 {
		panic(fmt.Sprintf("bleichenbacher: interval start %s > end %s", start, end))
	}
	return Interval{
		Start: new(big.Int).Set(start),
		End:   new(big.Int).Set(end),
	}
}

// Contains reports whether v lies inside the interval.
func (iv Interval) Contains(v *big.Int) bool {
	return iv.Start.Cmp(v) <= 0 && iv.End.Cmp(v) >= 0
}

// IsPoint reports whether the interval holds exactly one integer.
func (iv Interval) IsPoint() bool {
	return iv.Start.Cmp(iv.End) == 0
}

// IntervalSet maintains an ordered collection of pairwise-disjoint,
// non-adjacent intervals. Inserting an interval that overlaps or touches
// existing ones fuses them, so the set is always the smallest disjoint
// cover of everything inserted so far.
type IntervalSet struct {
	ivs []Interval // sorted by Start; disjoint and non-adjacent
}

// NewIntervalSet returns an empty set.
func NewIntervalSet() *IntervalSet {
	return &IntervalSet{}
}

// Len returns the number of disjoint intervals currently stored.
func (s *IntervalSet) Len() int {
	return len(s.ivs)
}

// Intervals returns the stored intervals in ascending order.
// Callers must not mutate the returned bounds.
func (s *IntervalSet) Intervals() []Interval {
	out := make([]Interval, len(s.ivs))
	copy(out, s.ivs)
	return out
}

// Insert adds iv to the set, fusing it with every stored interval it
// overlaps or touches. Because the stored intervals are disjoint and
// sorted by Start, their End values are sorted too, so both fusion
// boundaries can be located with a binary search.
func (s *IntervalSet) Insert(iv Interval) {
	if iv.Start == nil || iv.End == nil {
		panic("bleichenbacher: interval with nil bound")
	}
	if iv.Start.Cmp(iv.End) > 0 {
		panic(fmt.Sprintf("bleichenbacher: interval start %s > end %s", iv.Start, iv.End))
	}

	// An interval touching iv.Start-1 or iv.End+1 fuses as well.
	touchLo := new(big.Int).Sub(iv.Start, one)
	touchHi := new(big.Int).Add(iv.End, one)

	// [i, j) is the run of stored intervals that overlap or touch iv.
	i := sort.Search(len(s.ivs), func(k int) bool {
		return s.ivs[k].End.Cmp(touchLo) >= 0
	})
	j := sort.Search(len(s.ivs), func(k int) bool {
		return s.ivs[k].Start.Cmp(touchHi) > 0
	})

	start := new(big.Int).Set(iv.Start)
	end := new(big.Int).Set(iv.End)
	if i < j {
		if s.ivs[i].Start.Cmp(start) < 0 {
			start.Set(s.ivs[i].Start)
		}
		if s.ivs[j-1].End.Cmp(end) > 0 {
			end.Set(s.ivs[j-1].End)
		}
	}

	merged := Interval{Start: start, End: end}
	s.ivs = append(s.ivs[:i], append([]Interval{merged}, s.ivs[j:]...)...)
}
