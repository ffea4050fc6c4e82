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

// maxHashBits bounds the in-memory hash variants, whose values are stored
// as 32 bit integers.
const maxHashBits = 31

type hashEntry struct {
	key   uint32 // truncated hash of d1^q mod p
	value uint32 // d1
}

// HashMim keys a sorted table with truncated hashes of d1^q. Because hashes
// collide, every match is re-verified against the exact value. With a cache
// path configured, the exponentiations of the build are written to disk and
// replayed by cracks for d2 <= 2^bits1.
type HashMim struct {
	statsCounter
	name   string
	cs     *elgamal.Cryptosystem
	cfg    Config
	hash   truncatedHash
	verify *verifier
	cache  string
	table  []hashEntry
}

func newHashMim(name string, cs *elgamal.Cryptosystem, cfg Config, cachePath string) *HashMim {
	return &HashMim{
		name:   name,
		cs:     cs,
		cfg:    cfg,
		hash:   newTruncatedHash(cfg.HashBits),
		verify: newVerifier(cs, cfg.VerifyCacheSize),
		cache:  cachePath,
	}
}

// NewHashMim creates the sorted hash attack without an exponentiation cache.
func NewHashMim(cs *elgamal.Cryptosystem, cfg Config) *HashMim {
	return newHashMim("hashmim", cs, cfg, "")
}

// NewCachedHashMim creates the sorted hash attack with an exponentiation
// cache.
func NewCachedHashMim(cs *elgamal.Cryptosystem, cfg Config) *HashMim {
	return newHashMim("hashmim2", cs, cfg, cfg.cachePath("hashmim2"))
}

func (a *HashMim) Name() string { return a.name }

// tableGenerator computes d^q mod p for d in [1, 2^bits], optionally
// recording each value in a cache.
func tableGenerator(cs *elgamal.Cryptosystem, bits uint, cache *cacheWriter, fn func(delta uint64, pow *big.Int) error) error {
	var (
		d   = new(big.Int)
		pow = new(big.Int)
		max = uint64(1) << bits
	)
	for delta := uint64(1); delta <= max; delta++ {
		d.SetUint64(delta)
		pow.Exp(d, cs.BaseOrder, cs.Prime)
		if cache != nil {
			if err := cache.append(pow); err != nil {
				return err
			}
		}
		if err := fn(delta, pow); err != nil {
			return err
		}
	}
	return nil
}

func (a *HashMim) BuildTable(rng io.Reader) (BuildStatus, error) {
	if a.cfg.Bits1 > maxHashBits {
		return BuildFailed, fmt.Errorf("%w: bits1 %d exceeds %d", ErrTableTooLarge, a.cfg.Bits1, maxHashBits)
	}
	length := uint64(1) << a.cfg.Bits1
	if err := checkMemory(a.name, length*8); err != nil {
		return BuildFailed, err
	}
	var (
		cache *cacheWriter
		err   error
	)
	if a.cache != "" {
		if cache, err = createCache(a.cache); err != nil {
			return BuildFailed, err
		}
	}
	sw := metrics.NewStopwatch(a.cfg.Timing)
	table := make([]hashEntry, 0, length)
	err = tableGenerator(a.cs, a.cfg.Bits1, cache, func(delta uint64, pow *big.Int) error {
		table = append(table, hashEntry{key: a.hash.sum(pow), value: uint32(delta)})
		return nil
	})
	if cache != nil {
		if err != nil {
			cache.abort()
			return BuildFailed, err
		}
		if err := cache.close(); err != nil {
			return BuildFailed, err
		}
	}
	log.Info("Generated table", "attack", a.name, "entries", length, "cache", a.cache, "elapsed", sw.Stop().Wall)

	sw = metrics.NewStopwatch(a.cfg.Timing)
	sort.Slice(table, func(i, j int) bool { return table[i].key < table[j].key })
	log.Info("Sorted table", "attack", a.name, "time", sw.Stop())

	a.table = table
	return BuildSuccess, nil
}

// searchHash binary searches the sorted table for any entry with the given
// key.
func searchHash(table []hashEntry, key uint32) (int, bool) {
	lo, hi := 0, len(table)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch k := table[mid].key; {
		case k == key:
			return mid, true
		case k < key:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false
}

func (a *HashMim) CrackMessage(results *ResultList, ct *elgamal.Ciphertext, rng io.Reader, maxResults int) (int, error) {
	if a.table == nil {
		return 0, nil
	}
	var cache *cacheReader
	if a.cache != "" {
		cache = openCache(a.cache)
		defer cache.close()
	}
	var (
		out            = newEmitter(results, maxResults)
		hits, verified uint64
	)
	// check verifies one candidate, reporting false once enough results
	// were collected.
	check := func(i int, target *big.Int, delta2 uint64) bool {
		hits++
		if !a.verify.matches(uint64(a.table[i].value), target) {
			return true
		}
		verified++
		return out.emit(uint64(a.table[i].value), delta2)
	}
	newSearcher(a.cs, a.cfg.Bits1, a.cfg.Bits2, ct, cache).run(func(delta2 uint64, target *big.Int) bool {
		key := a.hash.sum(target)
		start, ok := searchHash(a.table, key)
		if !ok {
			return true
		}
		// colliding keys are contiguous, walk left then right of the hit
		for i := start; i >= 0 && a.table[i].key == key; i-- {
			if !check(i, target, delta2) {
				return false
			}
		}
		for i := start + 1; i < len(a.table) && a.table[i].key == key; i++ {
			if !check(i, target, delta2) {
				return false
			}
		}
		return true
	})
	log.Debug("Crack finished", "attack", a.name, "hashHits", hits, "verified", verified)
	a.add(hits, verified)
	return out.count, nil
}

func (a *HashMim) Close() error {
	a.table = nil
	return nil
}
