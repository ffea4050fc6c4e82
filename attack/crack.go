package attack

import (
	"math/big"

	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/log"
)

// searcher drives the second phase shared by the exponentiation based
// variants: for every d2 in [1, 2^bits2] it derives the table value a
// matching d1 must have, t = (d2^q)^-1 * (myk)^q mod p.
type searcher struct {
	cs     *elgamal.Cryptosystem
	bits1  uint
	bits2  uint
	cache  *cacheReader // optional replay of d^q for d <= 2^bits1
	target *big.Int
	pow    *big.Int
	uq     *big.Int
}

func newSearcher(cs *elgamal.Cryptosystem, bits1, bits2 uint, ct *elgamal.Ciphertext, cache *cacheReader) *searcher {
	s := &searcher{
		cs:     cs,
		bits1:  bits1,
		bits2:  bits2,
		cache:  cache,
		target: new(big.Int),
		pow:    new(big.Int),
		uq:     cs.Target(ct),
	}
	if s.uq.Cmp(big.NewInt(1)) == 0 {
		log.Warn("Ciphertext target is one, every q-th root pairing matches")
	}
	return s
}

// run calls fn with each d2 and its target until fn returns false. The
// target is reused between calls.
func (s *searcher) run(fn func(delta2 uint64, target *big.Int) bool) {
	var (
		max      = uint64(1) << s.bits2
		maxTable = uint64(1) << s.bits1
		d        = new(big.Int)
	)
	for delta2 := uint64(1); delta2 <= max; delta2++ {
		if s.cache == nil || delta2 > maxTable || !s.cache.next(s.pow, delta2) {
			d.SetUint64(delta2)
			s.pow.Exp(d, s.cs.BaseOrder, s.cs.Prime)
		}
		if s.target.ModInverse(s.pow, s.cs.Prime) == nil {
			continue
		}
		s.target.Mul(s.target, s.uq).Mod(s.target, s.cs.Prime)
		if !fn(delta2, s.target) {
			return
		}
	}
}

// emitter appends d1*d2 products to a result list, honouring the cap.
type emitter struct {
	results *ResultList
	max     int
	count   int
	product *big.Int
}

func newEmitter(results *ResultList, max int) *emitter {
	return &emitter{results: results, max: max, product: new(big.Int)}
}

// emit appends d1*d2 and reports whether more results are wanted.
func (e *emitter) emit(delta1, delta2 uint64) bool {
	e.product.SetUint64(delta1)
	e.product.Mul(e.product, new(big.Int).SetUint64(delta2))
	return e.emitProduct(e.product)
}

func (e *emitter) emitProduct(m *big.Int) bool {
	e.results.Append(m)
	e.count++
	return !e.full()
}

func (e *emitter) full() bool {
	return e.max > 0 && e.count >= e.max
}
