// Package elgamal implements textbook ElGamal over a prime field whose
// multiplicative group order is split as p-1 = q*r*s, with q the order of
// the base and s a smooth cofactor.
package elgamal

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/tos-network/gmim/crypto/factor"
)

var (
	ErrInvalidParams     = errors.New("elgamal: invalid cryptosystem parameters")
	ErrMessageRange      = errors.New("elgamal: message out of range")
	ErrInvalidCiphertext = errors.New("elgamal: invalid ciphertext")
)

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
)

// Cryptosystem holds the public parameters together with the key pair.
// Only Prime, BaseOrder, R, S and SGenerator are needed by the attacks.
type Cryptosystem struct {
	Prime     *big.Int // p
	Base      *big.Int // g, of order BaseOrder
	BaseOrder *big.Int // q
	R         *big.Int
	S         *factor.Integer // smooth part of p-1, empty if unused
	Enc       *big.Int        // y = g^x mod p
	Dec       *big.Int        // x

	// SGenerator generates the subgroup of order S.Value. Zero if S is one.
	SGenerator *big.Int
}

// Ciphertext is the pair (g^k mod p, m*y^k mod p).
type Ciphertext struct {
	GK  *big.Int
	MYK *big.Int
}

// New builds a cryptosystem from an explicit prime, base and secret key.
// The base order is taken to be p-1 and no smooth split is recorded.
func New(prime, base, dec *big.Int) (*Cryptosystem, error) {
	if prime.Cmp(big2) <= 0 || base.Sign() <= 0 || base.Cmp(prime) >= 0 || dec.Sign() <= 0 {
		return nil, ErrInvalidParams
	}
	order := new(big.Int).Sub(prime, big1)
	return &Cryptosystem{
		Prime:      new(big.Int).Set(prime),
		Base:       new(big.Int).Set(base),
		BaseOrder:  order,
		R:          big.NewInt(1),
		S:          factor.One(),
		Enc:        new(big.Int).Exp(base, dec, prime),
		Dec:        new(big.Int).Set(dec),
		SGenerator: new(big.Int),
	}, nil
}

// Y returns the cofactor y = r*s of the base order, p-1 = q*y.
func (c *Cryptosystem) Y() *big.Int {
	return new(big.Int).Mul(c.R, c.S.Value)
}

// Smooth reports whether the cryptosystem carries a smooth cofactor usable
// for discrete-log based attacks.
func (c *Cryptosystem) Smooth() bool {
	return len(c.S.Factors) > 0 && c.SGenerator.Cmp(big1) > 0
}

// Validate checks that the recorded parameters are mutually consistent.
func (c *Cryptosystem) Validate() error {
	if c.Prime == nil || c.Base == nil || c.BaseOrder == nil || c.R == nil || c.S == nil {
		return ErrInvalidParams
	}
	pm1 := new(big.Int).Sub(c.Prime, big1)
	if new(big.Int).Mod(pm1, c.BaseOrder).Sign() != 0 {
		return ErrInvalidParams
	}
	if len(c.S.Factors) > 0 {
		if new(big.Int).Mul(c.BaseOrder, c.Y()).Cmp(pm1) != 0 {
			return ErrInvalidParams
		}
	}
	if new(big.Int).Exp(c.Base, c.BaseOrder, c.Prime).Cmp(big1) != 0 {
		return ErrInvalidParams
	}
	return nil
}

// EncryptWithK encrypts m using the given ephemeral exponent.
func (c *Cryptosystem) EncryptWithK(m, k *big.Int) (*Ciphertext, error) {
	if m.Sign() <= 0 || m.Cmp(c.Prime) >= 0 {
		return nil, ErrMessageRange
	}
	ct := &Ciphertext{
		GK:  new(big.Int).Exp(c.Base, k, c.Prime),
		MYK: new(big.Int).Exp(c.Enc, k, c.Prime),
	}
	ct.MYK.Mul(ct.MYK, m).Mod(ct.MYK, c.Prime)
	return ct, nil
}

// Encrypt encrypts m with an ephemeral k drawn uniformly from [1, q-1].
func (c *Cryptosystem) Encrypt(rng io.Reader, m *big.Int) (*Ciphertext, error) {
	if rng == nil {
		rng = rand.Reader
	}
	k, err := rand.Int(rng, new(big.Int).Sub(c.BaseOrder, big1))
	if err != nil {
		return nil, err
	}
	return c.EncryptWithK(m, k.Add(k, big1))
}

// Decrypt recovers m = (g^k)^-x * m*y^k mod p.
func (c *Cryptosystem) Decrypt(ct *Ciphertext) (*big.Int, error) {
	m := new(big.Int).ModInverse(ct.GK, c.Prime)
	if m == nil {
		return nil, ErrInvalidCiphertext
	}
	m.Exp(m, c.Dec, c.Prime)
	m.Mul(m, ct.MYK).Mod(m, c.Prime)
	return m, nil
}

// Target returns (myk)^q mod p, the value every split-message candidate is
// matched against: (d1*d2)^q == (myk)^q since y^(kq) == 1.
func (c *Cryptosystem) Target(ct *Ciphertext) *big.Int {
	return new(big.Int).Exp(ct.MYK, c.BaseOrder, c.Prime)
}

// Verify reports whether m is consistent with the ciphertext, that is
// m^q == (myk)^q mod p.
func (c *Cryptosystem) Verify(ct *Ciphertext, m *big.Int) bool {
	return new(big.Int).Exp(m, c.BaseOrder, c.Prime).Cmp(c.Target(ct)) == 0
}
