package attack

import (
	"fmt"
	"io"
	"math/big"

	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/metrics"
)

// chainedTable is an open hash table with index based chaining. Slot 0 is
// the "no link" sentinel; a key's primary slot is (key & indexMask) + 1 and
// collisions are chained into free slots taken from the top of the array
// downward. A slot is occupied iff its value is non-zero. The short form
// keeps no keys and relies on recomputation to compare candidates.
type chainedTable struct {
	keys      []uint32 // nil for the short form
	values    []uint32
	links     []uint32
	indexMask uint32
	fullFrom  int
}

func newChainedTable(indexBits uint, short bool) *chainedTable {
	length := 1<<indexBits + 1
	t := &chainedTable{
		values:    make([]uint32, length),
		links:     make([]uint32, length),
		indexMask: uint32(1<<indexBits - 1),
		fullFrom:  length,
	}
	if !short {
		t.keys = make([]uint32, length)
	}
	return t
}

func (t *chainedTable) primary(key uint32) uint32 {
	return key&t.indexMask + 1
}

// insert stores value under key, failing once no free slot is left.
func (t *chainedTable) insert(key, value uint32) error {
	index := t.primary(key)
	if t.values[index] != 0 {
		for t.links[index] != 0 {
			index = t.links[index]
		}
		// find a free overflow slot
		for {
			t.fullFrom--
			if t.fullFrom <= 0 {
				t.fullFrom = 0
				return ErrTableOverflow
			}
			if t.values[t.fullFrom] == 0 {
				break
			}
		}
		t.links[index] = uint32(t.fullFrom)
		index = uint32(t.fullFrom)
	}
	t.values[index] = value
	if t.keys != nil {
		t.keys[index] = key
	}
	return nil
}

// walk calls fn with the value of every slot on key's chain whose stored key
// matches (every slot for the short form), until fn returns false.
func (t *chainedTable) walk(key uint32, fn func(value uint32) bool) {
	index := t.primary(key)
	if t.values[index] == 0 {
		return
	}
	for {
		if t.keys == nil || t.keys[index] == key {
			if !fn(t.values[index]) {
				return
			}
		}
		if t.links[index] == 0 {
			return
		}
		index = t.links[index]
	}
}

// footprint returns the table size in bytes.
func (t *chainedTable) footprint() uint64 {
	per := uint64(8)
	if t.keys != nil {
		per = 12
	}
	return uint64(len(t.values)) * per
}

// ChainedHashMim keys an open chained hash table with truncated hashes,
// avoiding the sort and binary search of HashMim. The short form drops the
// stored hash and verifies every chained value exactly.
type ChainedHashMim struct {
	statsCounter
	name      string
	short     bool
	cs        *elgamal.Cryptosystem
	cfg       Config
	hash      truncatedHash
	verify    *verifier
	cache     string
	indexBits uint
	table     *chainedTable
}

func newChainedHashMim(name string, short bool, cs *elgamal.Cryptosystem, cfg Config) *ChainedHashMim {
	return &ChainedHashMim{
		name:      name,
		short:     short,
		cs:        cs,
		cfg:       cfg,
		hash:      newTruncatedHash(cfg.HashBits),
		verify:    newVerifier(cs, cfg.VerifyCacheSize),
		cache:     cfg.cachePath(name),
		indexBits: cfg.Bits1,
	}
}

// NewChainedHashMim creates the chained hash table attack.
func NewChainedHashMim(cs *elgamal.Cryptosystem, cfg Config) *ChainedHashMim {
	return newChainedHashMim("hashmim3", false, cs, cfg)
}

// NewShortChainedHashMim creates the chained hash table attack storing only
// values and links.
func NewShortChainedHashMim(cs *elgamal.Cryptosystem, cfg Config) *ChainedHashMim {
	return newChainedHashMim("hashmim4", true, cs, cfg)
}

func (a *ChainedHashMim) Name() string { return a.name }

func (a *ChainedHashMim) BuildTable(rng io.Reader) (BuildStatus, error) {
	if a.cfg.Bits1 > maxHashBits {
		return BuildFailed, fmt.Errorf("%w: bits1 %d exceeds %d", ErrTableTooLarge, a.cfg.Bits1, maxHashBits)
	}
	per := uint64(12)
	if a.short {
		per = 8
	}
	if err := checkMemory(a.name, (uint64(1)<<a.indexBits+1)*per); err != nil {
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
	table := newChainedTable(a.indexBits, a.short)
	err = tableGenerator(a.cs, a.cfg.Bits1, cache, func(delta uint64, pow *big.Int) error {
		if err := table.insert(a.hash.sum(pow), uint32(delta)); err != nil {
			return fmt.Errorf("%w: inserting delta %d", err, delta)
		}
		return nil
	})
	if err != nil {
		if cache != nil {
			cache.abort()
		}
		log.Error("Table build failed", "attack", a.name, "err", err)
		return BuildFailed, err
	}
	if cache != nil {
		if err := cache.close(); err != nil {
			return BuildFailed, err
		}
	}
	log.Info("Generated table", "attack", a.name, "slots", len(table.values), "bytes", table.footprint(),
		"overflowFrom", table.fullFrom, "elapsed", sw.Stop().Wall)

	a.table = table
	return BuildSuccess, nil
}

func (a *ChainedHashMim) CrackMessage(results *ResultList, ct *elgamal.Ciphertext, rng io.Reader, maxResults int) (int, error) {
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
	newSearcher(a.cs, a.cfg.Bits1, a.cfg.Bits2, ct, cache).run(func(delta2 uint64, target *big.Int) bool {
		more := true
		a.table.walk(a.hash.sum(target), func(value uint32) bool {
			hits++
			if !a.verify.matches(uint64(value), target) {
				return true
			}
			verified++
			more = out.emit(uint64(value), delta2)
			return more
		})
		return more
	})
	log.Debug("Crack finished", "attack", a.name, "hashHits", hits, "verified", verified)
	a.add(hits, verified)
	return out.count, nil
}

func (a *ChainedHashMim) Close() error {
	a.table = nil
	return nil
}
