package attack

import (
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/metrics"
)

// maxMimBits bounds the exact-value table, whose entries hold full
// exponentiations.
const maxMimBits = 25

type mimEntry struct {
	key   *big.Int // d1^q mod p
	value uint32   // d1
}

// Mim is the basic attack: a table of exact d1^q values sorted for binary
// search.
type Mim struct {
	statsCounter
	cs    *elgamal.Cryptosystem
	cfg   Config
	table []mimEntry
}

// NewMim creates the exact sorted-array attack.
func NewMim(cs *elgamal.Cryptosystem, cfg Config) *Mim {
	return &Mim{cs: cs, cfg: cfg}
}

func (a *Mim) Name() string { return "mim" }

func (a *Mim) BuildTable(rng io.Reader) (BuildStatus, error) {
	if a.cfg.Bits1 > maxMimBits {
		return BuildFailed, fmt.Errorf("%w: bits1 %d exceeds %d", ErrTableTooLarge, a.cfg.Bits1, maxMimBits)
	}
	length := uint64(1) << a.cfg.Bits1
	if err := checkMemory(a.Name(), length*(16+bigIntFootprint(a.cs.Prime.BitLen()))); err != nil {
		return BuildFailed, err
	}
	sw := metrics.NewStopwatch(a.cfg.Timing)
	table := make([]mimEntry, length)
	d := new(big.Int)
	for i := range table {
		delta := uint64(i) + 1
		d.SetUint64(delta)
		table[i] = mimEntry{key: new(big.Int).Exp(d, a.cs.BaseOrder, a.cs.Prime), value: uint32(delta)}
	}
	log.Info("Generated table", "attack", a.Name(), "entries", length, "elapsed", sw.Stop().Wall)

	sw = metrics.NewStopwatch(a.cfg.Timing)
	sort.Slice(table, func(i, j int) bool { return table[i].key.Cmp(table[j].key) < 0 })
	log.Info("Sorted table", "attack", a.Name(), "time", sw.Stop())

	a.table = table
	return BuildSuccess, nil
}

func (a *Mim) CrackMessage(results *ResultList, ct *elgamal.Ciphertext, rng io.Reader, maxResults int) (int, error) {
	if a.table == nil {
		return 0, nil
	}
	var (
		out  = newEmitter(results, maxResults)
		hits uint64
	)
	newSearcher(a.cs, a.cfg.Bits1, a.cfg.Bits2, ct, nil).run(func(delta2 uint64, target *big.Int) bool {
		i := sort.Search(len(a.table), func(i int) bool { return a.table[i].key.Cmp(target) >= 0 })
		for ; i < len(a.table) && a.table[i].key.Cmp(target) == 0; i++ {
			hits++
			if !out.emit(uint64(a.table[i].value), delta2) {
				return false
			}
		}
		return true
	})
	a.add(hits, hits)
	return out.count, nil
}

func (a *Mim) Close() error {
	a.table = nil
	return nil
}
