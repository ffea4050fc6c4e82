package attack

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/gmim/crypto/elgamal"
)

// truncatedHash keys the hash tables with the low bits of a value.
type truncatedHash uint32

func newTruncatedHash(bits uint) truncatedHash {
	return truncatedHash(uint64(1)<<bits - 1)
}

func (mask truncatedHash) sum(x *big.Int) uint32 {
	words := x.Bits()
	if len(words) == 0 {
		return 0
	}
	return uint32(words[0]) & uint32(mask)
}

// verifier re-checks hash matches exactly, memoizing d1^q mod p.
type verifier struct {
	cs    *elgamal.Cryptosystem
	cache *lru.ARCCache // nil if memoization is disabled
}

func newVerifier(cs *elgamal.Cryptosystem, size int) *verifier {
	v := &verifier{cs: cs}
	if size > 0 {
		v.cache, _ = lru.NewARC(size)
	}
	return v
}

// power returns delta^q mod p. The result must not be modified.
func (v *verifier) power(delta uint64) *big.Int {
	if v.cache != nil {
		if cached, ok := v.cache.Get(delta); ok {
			return cached.(*big.Int)
		}
	}
	x := new(big.Int).SetUint64(delta)
	x.Exp(x, v.cs.BaseOrder, v.cs.Prime)
	if v.cache != nil {
		v.cache.Add(delta, x)
	}
	return x
}

// matches reports whether delta^q == target mod p.
func (v *verifier) matches(delta uint64, target *big.Int) bool {
	return v.power(delta).Cmp(target) == 0
}
