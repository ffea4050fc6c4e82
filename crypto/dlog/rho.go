// Package dlog computes discrete logarithms in subgroups of Z_p^* whose order
// is known and smooth: Pollard's rho for prime order subgroups and
// Pohlig-Hellman on top of it for composite orders.
package dlog

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	// ErrNoLog is returned when beta is not in the subgroup generated by alpha.
	ErrNoLog = errors.New("dlog: no logarithm exists")

	// ErrRunsExhausted is returned when every rho run ended in a degenerate
	// collision. It wraps ErrNoLog.
	ErrRunsExhausted = fmt.Errorf("%w: rho restarts exhausted", ErrNoLog)

	ErrBadOrder = errors.New("dlog: group order must be positive")
)

// bruteForceLimit is the largest prime order solved by exhaustive search.
const bruteForceLimit = 11

// maxRhoRuns bounds the number of random restarts before giving up.
var maxRhoRuns = 64

var (
	big1 = big.NewInt(1)
	big3 = big.NewInt(3)
)

// Solver holds the scratch values used by the logarithm algorithms so that
// repeated calls do not allocate. A Solver is not safe for concurrent use.
type Solver struct {
	rng io.Reader

	x, a, b    *big.Int
	x1, a1, b1 *big.Int
	tmp        *big.Int

	// Restarts counts rho runs that hit a degenerate collision.
	Restarts int
}

// NewSolver creates a solver drawing random restart points from rng. A nil
// rng selects crypto/rand.
func NewSolver(rng io.Reader) *Solver {
	if rng == nil {
		rng = rand.Reader
	}
	return &Solver{
		rng: rng,
		x:   new(big.Int), a: new(big.Int), b: new(big.Int),
		x1: new(big.Int), a1: new(big.Int), b1: new(big.Int),
		tmp: new(big.Int),
	}
}

// step applies the pseudo random walk of HAC algorithm 3.60, partitioning
// the group by x mod 3.
func (s *Solver) step(x, a, b, alpha, beta, p, n *big.Int) {
	switch s.tmp.Mod(x, big3).Int64() {
	case 1:
		x.Mul(x, beta).Mod(x, p)
		b.Add(b, big1).Mod(b, n)
	case 0:
		x.Mul(x, x).Mod(x, p)
		a.Lsh(a, 1).Mod(a, n)
		b.Lsh(b, 1).Mod(b, n)
	default:
		x.Mul(x, alpha).Mod(x, p)
		a.Add(a, big1).Mod(a, n)
	}
}

// rhoRun runs a single Floyd cycle search. It reports false if the
// collision found gives no information about the logarithm.
func (s *Solver) rhoRun(result, alpha, beta, p, n *big.Int, randomStart bool) (bool, error) {
	if randomStart {
		// a, b uniform in [1, n-1]
		nm1 := new(big.Int).Sub(n, big1)
		ra, err := rand.Int(s.rng, nm1)
		if err != nil {
			return false, err
		}
		rb, err := rand.Int(s.rng, nm1)
		if err != nil {
			return false, err
		}
		s.a.Add(ra, big1)
		s.b.Add(rb, big1)
		s.x.Exp(alpha, s.a, p)
		s.x.Mul(s.x, s.tmp.Exp(beta, s.b, p)).Mod(s.x, p)
	} else {
		s.x.SetInt64(1)
		s.a.SetInt64(0)
		s.b.SetInt64(0)
	}
	s.x1.Set(s.x)
	s.a1.Set(s.a)
	s.b1.Set(s.b)

	for {
		s.step(s.x, s.a, s.b, alpha, beta, p, n)
		s.step(s.x1, s.a1, s.b1, alpha, beta, p, n)
		s.step(s.x1, s.a1, s.b1, alpha, beta, p, n)
		if s.x.Cmp(s.x1) == 0 {
			break
		}
	}
	s.b.Sub(s.b, s.b1).Mod(s.b, n)
	if s.b.Sign() == 0 {
		return false, nil
	}
	s.a.Sub(s.a1, s.a).Mod(s.a, n)
	if s.b.ModInverse(s.b, n) == nil {
		// n is not prime
		return false, nil
	}
	result.Mul(s.a, s.b).Mod(result, n)
	return true, nil
}

// PollardRho computes log_alpha(beta) in Z_p^*, where alpha has prime order
// n. The result lies in [0, n).
func (s *Solver) PollardRho(alpha, beta, p, n *big.Int) (*big.Int, error) {
	if n.Sign() <= 0 {
		return nil, ErrBadOrder
	}
	result := new(big.Int)
	if n.Cmp(big.NewInt(bruteForceLimit)) <= 0 {
		return s.bruteForce(result, alpha, beta, p, n)
	}
	for run := 0; run < maxRhoRuns; run++ {
		ok, err := s.rhoRun(result, alpha, beta, p, n, run > 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.Restarts++
			continue
		}
		// a useful collision in a group of prime order pins the log down,
		// so a failed check means beta lies outside <alpha>
		if s.tmp.Exp(alpha, result, p).Cmp(new(big.Int).Mod(beta, p)) != 0 {
			return nil, ErrNoLog
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w after %d runs", ErrRunsExhausted, maxRhoRuns)
}

func (s *Solver) bruteForce(result, alpha, beta, p, n *big.Int) (*big.Int, error) {
	target := new(big.Int).Mod(beta, p)
	if target.Cmp(big1) == 0 {
		return result.SetInt64(0), nil
	}
	s.tmp.Mod(alpha, p)
	for power := int64(1); power < n.Int64(); power++ {
		if s.tmp.Cmp(target) == 0 {
			return result.SetInt64(power), nil
		}
		s.tmp.Mul(s.tmp, alpha).Mod(s.tmp, p)
	}
	return nil, ErrNoLog
}

// PollardRho is a convenience wrapper running a fresh Solver backed by
// crypto/rand.
func PollardRho(alpha, beta, p, n *big.Int) (*big.Int, error) {
	return NewSolver(nil).PollardRho(alpha, beta, p, n)
}
