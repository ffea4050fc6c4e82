// Package factor represents integers together with their prime-power
// factorization, as required by Pohlig-Hellman style algorithms.
package factor

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

var (
	ErrNonPositive = errors.New("factor: value must be positive")
	ErrBadBits     = errors.New("factor: invalid bit length")
)

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
)

// PrimePower is a single factor Prime^Power; Value caches the power.
type PrimePower struct {
	Prime *big.Int
	Power uint
	Value *big.Int
}

// Integer is a factored integer. Value is the product of all factor values.
type Integer struct {
	Factors []PrimePower
	Value   *big.Int
}

// One returns the empty factorization.
func One() *Integer {
	return &Integer{Value: big.NewInt(1)}
}

// Compose builds a factored integer from (prime, power) pairs. Primes are
// not verified; repeated primes are merged.
func Compose(primes []*big.Int, powers []uint) *Integer {
	n := One()
	for i, p := range primes {
		n.mulPrime(p, powers[i])
	}
	n.computeValues()
	return n
}

// mulPrime folds prime^power into the factor list without updating values.
func (n *Integer) mulPrime(prime *big.Int, power uint) {
	if power == 0 {
		return
	}
	for i := range n.Factors {
		if n.Factors[i].Prime.Cmp(prime) == 0 {
			n.Factors[i].Power += power
			return
		}
	}
	n.Factors = append(n.Factors, PrimePower{Prime: new(big.Int).Set(prime), Power: power})
}

func (n *Integer) computeValues() {
	n.Value = big.NewInt(1)
	for i := range n.Factors {
		f := &n.Factors[i]
		f.Value = new(big.Int).Exp(f.Prime, big.NewInt(int64(f.Power)), nil)
		n.Value.Mul(n.Value, f.Value)
	}
}

// Factor factors n by trial division. If bitLimit is non-zero, trial
// division stops once the candidate divisor exceeds bitLimit bits and the
// returned Value is only the bitLimit-smooth part of n.
func Factor(n *big.Int, bitLimit uint) (*Integer, error) {
	if n.Sign() <= 0 {
		return nil, ErrNonPositive
	}
	out := One()
	if n.Cmp(big1) == 0 {
		return out, nil
	}
	if n.ProbablyPrime(20) {
		if bitLimit == 0 || uint(n.BitLen()) <= bitLimit {
			out.mulPrime(n, 1)
		}
		out.computeValues()
		return out, nil
	}
	y := new(big.Int).Set(n)

	// powers of two
	if tz := y.TrailingZeroBits(); tz > 0 {
		y.Rsh(y, tz)
		out.mulPrime(big2, tz)
	}
	var (
		p = big.NewInt(3)
		q = new(big.Int)
		r = new(big.Int)
	)
	for y.Cmp(big1) > 0 {
		if bitLimit > 0 && uint(p.BitLen()) > bitLimit {
			break
		}
		// the cofactor left over is prime, no need to keep dividing
		if new(big.Int).Mul(p, p).Cmp(y) > 0 {
			if bitLimit == 0 || uint(y.BitLen()) <= bitLimit {
				out.mulPrime(y, 1)
			}
			break
		}
		q.QuoRem(y, p, r)
		if r.Sign() == 0 {
			y.Set(q)
			out.mulPrime(p, 1)
			continue
		}
		p.Add(p, big2)
	}
	out.computeValues()
	return out, nil
}

// randomFactored draws a random factored integer in [1, max] using Shoup's
// RFN algorithm: a random non-increasing sequence whose primes are kept,
// accepted with probability proportional to its value.
func randomFactored(rng io.Reader, max *big.Int) (*Integer, error) {
	for {
		out := One()
		v := big.NewInt(1)
		cur := new(big.Int).Set(max)
		tooBig := false
		for cur.Cmp(big1) > 0 {
			n, err := rand.Int(rng, cur)
			if err != nil {
				return nil, err
			}
			n.Add(n, big1)
			if n.ProbablyPrime(10) {
				v.Mul(v, n)
				if v.Cmp(max) > 0 {
					tooBig = true
					break
				}
				out.mulPrime(n, 1)
			}
			cur = n
		}
		if tooBig {
			continue
		}
		x, err := rand.Int(rng, max)
		if err != nil {
			return nil, err
		}
		x.Add(x, big1)
		if v.Cmp(x) >= 0 {
			out.computeValues()
			return out, nil
		}
	}
}

// RandomSmoothExactBits returns a random integer of exactly bits bits
// whose prime factors all have at most factorBitLimit bits. The
// distribution is not uniform and favours smaller factors.
func RandomSmoothExactBits(rng io.Reader, bits, factorBitLimit uint) (*Integer, error) {
	if bits == 0 || factorBitLimit == 0 {
		return nil, ErrBadBits
	}
	out := One()
	bitsLeft := bits
	limit := factorBitLimit
	for bitsLeft > 0 {
		if bitsLeft < limit {
			limit = bitsLeft
		}
		max := new(big.Int).Lsh(big1, limit)
		chunk, err := randomFactored(rng, max)
		if err != nil {
			return nil, err
		}
		// keep the total within bits bits
		if uint(new(big.Int).Mul(out.Value, chunk.Value).BitLen()) > bits {
			continue
		}
		for _, f := range chunk.Factors {
			out.mulPrime(f.Prime, f.Power)
		}
		out.computeValues()
		bitsLeft = bits - uint(out.Value.BitLen())
	}
	return out, nil
}

// Bits returns the bit length of the factored value.
func (n *Integer) Bits() int {
	return n.Value.BitLen()
}

// Copy returns a deep copy of n.
func (n *Integer) Copy() *Integer {
	cpy := &Integer{Value: new(big.Int).Set(n.Value), Factors: make([]PrimePower, len(n.Factors))}
	for i, f := range n.Factors {
		cpy.Factors[i] = PrimePower{
			Prime: new(big.Int).Set(f.Prime),
			Power: f.Power,
			Value: new(big.Int).Set(f.Value),
		}
	}
	return cpy
}

func (n *Integer) String() string {
	if len(n.Factors) == 0 {
		return n.Value.String()
	}
	parts := make([]string, len(n.Factors))
	for i, f := range n.Factors {
		if f.Power == 1 {
			parts[i] = f.Prime.String()
		} else {
			parts[i] = fmt.Sprintf("%v^%d", f.Prime, f.Power)
		}
	}
	return fmt.Sprintf("%v = %s", n.Value, strings.Join(parts, " * "))
}
