package elgamal

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/tos-network/gmim/crypto/factor"
	"github.com/tos-network/gmim/log"
)

// GenerateParams selects the shape of a generated cryptosystem.
type GenerateParams struct {
	PrimeBits     uint // bits of p
	BaseOrderBits uint // bits of q; equal to PrimeBits for a full-order base

	// SmoothBits is the exact size of the smooth cofactor s, zero to skip it.
	SmoothBits uint
	// SmoothLimit bounds the bit length of each prime factor of s.
	SmoothLimit uint
}

// DefaultGenerateParams mirrors the parameters used for attack experiments.
var DefaultGenerateParams = GenerateParams{
	PrimeBits:     1024,
	BaseOrderBits: 512,
	SmoothLimit:   16,
}

// Generate creates a fresh cryptosystem. When BaseOrderBits equals PrimeBits
// the base generates all of Z_p^*; otherwise p = q*r*s + 1 with q prime, r
// even and s smooth.
func Generate(rng io.Reader, params GenerateParams) (*Cryptosystem, error) {
	if rng == nil {
		rng = rand.Reader
	}
	if params.PrimeBits < 8 || params.BaseOrderBits < 2 || params.BaseOrderBits > params.PrimeBits {
		return nil, fmt.Errorf("%w: prime bits %d, base order bits %d", ErrInvalidParams, params.PrimeBits, params.BaseOrderBits)
	}
	if params.PrimeBits == params.BaseOrderBits {
		return generateFullOrder(rng, params.PrimeBits)
	}
	if params.SmoothBits > 0 && params.SmoothLimit == 0 {
		return nil, fmt.Errorf("%w: smooth bits without a smoothness limit", ErrInvalidParams)
	}
	// leave at least two bits of r
	if params.BaseOrderBits+params.SmoothBits+3 > params.PrimeBits {
		return nil, fmt.Errorf("%w: no room for cofactor r", ErrInvalidParams)
	}
	return generateSplit(rng, params)
}

// randomBits returns a random integer of exactly bits bits.
func randomBits(rng io.Reader, bits uint) (*big.Int, error) {
	x, err := rand.Int(rng, new(big.Int).Lsh(big1, bits-1))
	if err != nil {
		return nil, err
	}
	return x.SetBit(x, int(bits-1), 1), nil
}

// randomUnit returns a random integer in [1, max].
func randomUnit(rng io.Reader, max *big.Int) (*big.Int, error) {
	x, err := rand.Int(rng, max)
	if err != nil {
		return nil, err
	}
	return x.Add(x, big1), nil
}

func generateSplit(rng io.Reader, params GenerateParams) (*Cryptosystem, error) {
	var (
		c = &Cryptosystem{
			Prime: new(big.Int),
			S:     factor.One(),
		}
		y     = new(big.Int)
		tries int
	)
	for {
		tries++
		q, err := rand.Prime(rng, int(params.BaseOrderBits))
		if err != nil {
			return nil, err
		}
		c.BaseOrder = q

		var rbits uint
		if params.SmoothBits == 0 {
			c.S = factor.One()
			rbits = params.PrimeBits - params.BaseOrderBits - 2
		} else {
			if c.S, err = factor.RandomSmoothExactBits(rng, params.SmoothBits, params.SmoothLimit); err != nil {
				return nil, err
			}
			rbits = params.PrimeBits - params.BaseOrderBits - uint(c.S.Bits()) - 2
		}
		// r is even with rbits+2 bits
		r, err := randomBits(rng, rbits+1)
		if err != nil {
			return nil, err
		}
		c.R = r.Lsh(r, 1)
		y.Mul(c.R, c.S.Value)

		c.Prime.Mul(y, q).Add(c.Prime, big1)
		if uint(c.Prime.BitLen()) >= params.PrimeBits && c.Prime.ProbablyPrime(20) {
			break
		}
	}
	log.Debug("Found prime", "bits", c.Prime.BitLen(), "tries", tries)

	// an element of order q: any y-th power other than one
	for {
		g, err := randomUnit(rng, new(big.Int).Sub(c.Prime, big1))
		if err != nil {
			return nil, err
		}
		g.Exp(g, y, c.Prime)
		if g.Cmp(big1) != 0 {
			c.Base = g
			break
		}
	}
	if err := c.newKeyPair(rng); err != nil {
		return nil, err
	}
	c.SGenerator = new(big.Int)
	if params.SmoothBits > 0 {
		gen, err := findSGenerator(rng, c)
		if err != nil {
			return nil, err
		}
		c.SGenerator = gen
	}
	return c, nil
}

func generateFullOrder(rng io.Reader, bits uint) (*Cryptosystem, error) {
	var (
		n     *factor.Integer
		prime = new(big.Int)
		err   error
	)
	// p = n+1 with n smooth and of known factorization
	for {
		if n, err = factor.RandomSmoothExactBits(rng, bits, 16); err != nil {
			return nil, err
		}
		prime.Add(n.Value, big1)
		if uint(prime.BitLen()) == bits && prime.ProbablyPrime(20) {
			break
		}
	}
	base, err := subgroupGenerator(rng, prime, n, new(big.Int).Sub(prime, big1), big1)
	if err != nil {
		return nil, err
	}
	c := &Cryptosystem{
		Prime:      prime,
		Base:       base,
		BaseOrder:  new(big.Int).Set(n.Value),
		R:          big.NewInt(1),
		S:          factor.One(),
		SGenerator: new(big.Int),
	}
	if err := c.newKeyPair(rng); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cryptosystem) newKeyPair(rng io.Reader) error {
	dec, err := randomUnit(rng, new(big.Int).Sub(c.BaseOrder, big1))
	if err != nil {
		return err
	}
	c.Dec = dec
	c.Enc = new(big.Int).Exp(c.Base, dec, c.Prime)
	return nil
}

// findSGenerator returns a generator of the subgroup of order s.
func findSGenerator(rng io.Reader, c *Cryptosystem) (*big.Int, error) {
	z := new(big.Int).Mul(c.R, c.BaseOrder)
	return subgroupGenerator(rng, c.Prime, c.S, new(big.Int).Sub(c.Prime, big1), z)
}

// subgroupGenerator builds an element of order n in Z_p^* one prime power at
// a time: for each q^c it finds gamma = u^z with gamma^(n/q) != 1 and
// multiplies in gamma^(n/q^c), which has order exactly q^c.
func subgroupGenerator(rng io.Reader, p *big.Int, n *factor.Integer, max, z *big.Int) (*big.Int, error) {
	var (
		gen   = big.NewInt(1)
		e     = new(big.Int)
		delta = new(big.Int)
	)
	for _, f := range n.Factors {
		e.Quo(n.Value, f.Prime)
		var gamma *big.Int
		for {
			u, err := randomUnit(rng, max)
			if err != nil {
				return nil, err
			}
			gamma = u.Exp(u, z, p)
			if delta.Exp(gamma, e, p).Cmp(big1) != 0 {
				break
			}
		}
		e.Quo(n.Value, f.Value)
		delta.Exp(gamma, e, p)
		gen.Mul(gen, delta).Mod(gen, p)
	}
	return gen, nil
}

// NewSplitMessage draws m = d1*d2 with d1 and d2 of exactly ceil(bits/2)
// bits each and encrypts it. Such messages are recoverable by a
// meet-in-the-middle search with bits1 = bits2 = ceil(bits/2).
func (c *Cryptosystem) NewSplitMessage(rng io.Reader, bits uint) (msg *Message, d1, d2 *big.Int, err error) {
	if rng == nil {
		rng = rand.Reader
	}
	half := (bits + 1) / 2
	if half < 1 {
		return nil, nil, nil, ErrMessageRange
	}
	if d1, err = randomBits(rng, half); err != nil {
		return nil, nil, nil, err
	}
	if d2, err = randomBits(rng, half); err != nil {
		return nil, nil, nil, err
	}
	m := new(big.Int).Mul(d1, d2)
	ct, err := c.Encrypt(rng, m)
	if err != nil {
		return nil, nil, nil, err
	}
	return &Message{M: m, Ciphertext: *ct}, d1, d2, nil
}
