package attack

import (
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/tos-network/gmim/crypto/dlog"
	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/metrics"
)

type dlogEntry struct {
	key   *big.Int // log of d^(r*q) to the base of the s generator, mod s
	value uint32   // d
}

// TwoTable replaces the per-d2 exponentiation of the other variants with
// additive matching in discrete-log space. With p-1 = q*r*s and s smooth,
// L(d) = log_h(d^(r*q)) mod s is cheap to compute, and a split message
// satisfies L(d1) + L(d2) = L(myk) mod s. Both halves are tabulated once;
// a crack is a single merge of the ascending d1 table against the circular
// sequence L(myk) - L(d2).
type TwoTable struct {
	statsCounter
	cs  *elgamal.Cryptosystem
	cfg Config

	t1 []dlogEntry // ascending by key
	t2 []dlogEntry // descending by key, or nil when shared with t1
}

// NewTwoTable creates the discrete-log attack. The cryptosystem must carry
// a smooth cofactor and its generator.
func NewTwoTable(cs *elgamal.Cryptosystem, cfg Config) (*TwoTable, error) {
	if !cs.Smooth() {
		return nil, ErrNotSmooth
	}
	return &TwoTable{cs: cs, cfg: cfg}, nil
}

func (a *TwoTable) Name() string { return "2table" }

// shared reports whether one physical array serves both tables.
func (a *TwoTable) shared() bool {
	return a.cfg.Bits1 == a.cfg.Bits2
}

func (a *TwoTable) BuildTable(rng io.Reader) (BuildStatus, error) {
	if a.cfg.Bits1 > maxMimBits || a.cfg.Bits2 > maxMimBits {
		return BuildFailed, fmt.Errorf("%w: bits %d/%d exceed %d", ErrTableTooLarge, a.cfg.Bits1, a.cfg.Bits2, maxMimBits)
	}
	var (
		len1 = uint64(1) << a.cfg.Bits1
		len2 = uint64(1) << a.cfg.Bits2
		size = len1
	)
	if !a.shared() {
		size += len2
	}
	if err := checkMemory(a.Name(), size*(16+bigIntFootprint(a.cs.S.Bits()))); err != nil {
		return BuildFailed, err
	}
	var (
		sw     = metrics.NewStopwatch(a.cfg.Timing)
		solver = dlog.NewSolver(rng)
		z      = new(big.Int).Mul(a.cs.R, a.cs.BaseOrder)
		d      = new(big.Int)
		gamma  = new(big.Int)
		max    = len1
		t1     = make([]dlogEntry, len1)
		t2     []dlogEntry
	)
	if len2 > max {
		max = len2
	}
	if a.shared() {
		log.Info("Using one table for both halves", "bits", a.cfg.Bits1)
	} else {
		t2 = make([]dlogEntry, len2)
	}
	for delta := uint64(1); delta <= max; delta++ {
		d.SetUint64(delta)
		gamma.Exp(d, z, a.cs.Prime)
		key, err := solver.PohligHellman(a.cs.SGenerator, gamma, a.cs.Prime, a.cs.S)
		if err != nil {
			return BuildFailed, fmt.Errorf("attack: logarithm of %d: %w", delta, err)
		}
		if delta <= len1 {
			t1[delta-1] = dlogEntry{key: key, value: uint32(delta)}
		}
		if t2 != nil && delta <= len2 {
			t2[delta-1] = dlogEntry{key: key, value: uint32(delta)}
		}
	}
	log.Info("Generated tables", "attack", a.Name(), "entries", max, "restarts", solver.Restarts, "elapsed", sw.Stop().Wall)

	sw = metrics.NewStopwatch(a.cfg.Timing)
	sort.Slice(t1, func(i, j int) bool { return t1[i].key.Cmp(t1[j].key) < 0 })
	if t2 != nil {
		sort.Slice(t2, func(i, j int) bool { return t2[i].key.Cmp(t2[j].key) > 0 })
	}
	log.Info("Sorted tables", "attack", a.Name(), "time", sw.Stop())

	a.t1, a.t2 = t1, t2
	return BuildSuccess, nil
}

// descending is the second table viewed in descending key order. When the
// tables are shared it walks the ascending array backwards.
type descending struct {
	entries  []dlogEntry
	reversed bool
}

func (v descending) at(i int) dlogEntry {
	if v.reversed {
		return v.entries[len(v.entries)-1-i]
	}
	return v.entries[i]
}

// pivot returns the position of the largest key not exceeding n, that is
// the first key below n+1 in descending order. It wraps to zero if every
// key exceeds n.
func (v descending) pivot(n *big.Int) int {
	l := len(v.entries)
	var i int
	if v.reversed {
		// last ascending index holding a key below n+1
		j := sort.Search(l, func(j int) bool { return v.entries[j].key.Cmp(n) > 0 }) - 1
		if j < 0 {
			return 0
		}
		i = l - 1 - j
	} else {
		i = sort.Search(l, func(i int) bool { return v.entries[i].key.Cmp(n) <= 0 })
	}
	return i % l
}

func (a *TwoTable) view() descending {
	if a.t2 == nil {
		return descending{entries: a.t1, reversed: true}
	}
	return descending{entries: a.t2}
}

func (a *TwoTable) CrackMessage(results *ResultList, ct *elgamal.Ciphertext, rng io.Reader, maxResults int) (int, error) {
	if a.t1 == nil {
		return 0, nil
	}
	var (
		p     = a.cs.Prime
		s     = a.cs.S.Value
		z     = new(big.Int).Mul(a.cs.R, a.cs.BaseOrder)
		gamma = new(big.Int).Exp(ct.MYK, z, p)
	)
	n, err := dlog.NewSolver(rng).PohligHellman(a.cs.SGenerator, gamma, p, a.cs.S)
	if err != nil {
		return 0, fmt.Errorf("attack: logarithm of ciphertext: %w", err)
	}
	var (
		t2     = a.view()
		l2     = len(t2.entries)
		start  = t2.pivot(n)
		i1, i2 = 0, start
		out    = newEmitter(results, maxResults)
		target = a.cs.Target(ct)
		prod   = new(big.Int)
		pow    = new(big.Int)

		hits, verified uint64
	)
	// gamma walks n - key2 mod s, which is ascending from the pivot on
	complement := func(i int) {
		gamma.Sub(n, t2.at(i).key)
		if gamma.Sign() < 0 {
			gamma.Add(gamma, s)
		}
	}
	advance := func() bool {
		i2 = (i2 + 1) % l2
		if i2 == start {
			return false
		}
		complement(i2)
		return true
	}
	complement(i2)
merge:
	for i1 < len(a.t1) {
		switch a.t1[i1].key.Cmp(gamma) {
		case -1:
			i1++
		case 1:
			if !advance() {
				break merge
			}
		default:
			// pair every d1 of the run with every d2 sharing its log
			j1 := i1 + 1
			for j1 < len(a.t1) && a.t1[j1].key.Cmp(gamma) == 0 {
				j1++
			}
			key := a.t1[i1].key
			more := true
			for more && key.Cmp(gamma) == 0 {
				d2 := uint64(t2.at(i2).value)
				for _, e := range a.t1[i1:j1] {
					hits++
					prod.SetUint64(uint64(e.value)).Mul(prod, pow.SetUint64(d2))
					// equal logs only prove (d1*d2/m)^(r*q) = 1
					if pow.Exp(prod, a.cs.BaseOrder, p).Cmp(target) != 0 {
						continue
					}
					verified++
					if !out.emitProduct(prod) {
						break merge
					}
				}
				more = advance()
			}
			if !more {
				break merge
			}
			i1 = j1
		}
	}
	log.Debug("Crack finished", "attack", a.Name(), "log", n, "pivot", start, "matches", hits, "verified", verified)
	a.add(hits, verified)
	return out.count, nil
}

func (a *TwoTable) Close() error {
	a.t1, a.t2 = nil, nil
	return nil
}
