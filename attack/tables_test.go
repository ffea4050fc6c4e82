package attack

import (
	"errors"
	mrand "math/rand"
	"os"
	"sort"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHash(t *testing.T) {
	f := fuzz.NewWithSeed(1).NilChance(0).NumElements(1, 200)
	for i := 0; i < 50; i++ {
		var keys []uint32
		f.Fuzz(&keys)
		table := make([]hashEntry, len(keys))
		present := make(map[uint32]bool)
		for j, k := range keys {
			k %= 512
			table[j] = hashEntry{key: k, value: uint32(j + 1)}
			present[k] = true
		}
		sort.Slice(table, func(a, b int) bool { return table[a].key < table[b].key })

		for k := uint32(0); k < 512; k++ {
			idx, ok := searchHash(table, k)
			require.Equal(t, present[k], ok, "key %d", k)
			if ok {
				assert.Equal(t, k, table[idx].key)
			}
		}
	}
	_, ok := searchHash(nil, 0)
	assert.False(t, ok)
}

func TestChainedTable(t *testing.T) {
	f := fuzz.NewWithSeed(2).NilChance(0)
	for _, short := range []bool{false, true} {
		table := newChainedTable(10, short)
		want := make(map[uint32][]uint32)
		for value := uint32(1); value <= 1<<10; value++ {
			var key uint32
			f.Fuzz(&key)
			key &= 0xfff // beyond the index mask, and colliding
			require.NoError(t, table.insert(key, value))
			want[key] = append(want[key], value)
		}
		for key, values := range want {
			var have []uint32
			table.walk(key, func(value uint32) bool {
				have = append(have, value)
				return true
			})
			if short {
				// every value of the key must be on its chain
				assert.Subset(t, have, values)
			} else {
				assert.ElementsMatch(t, values, have)
			}
		}
		// walking stops when asked to
		for key := range want {
			calls := 0
			table.walk(key, func(uint32) bool { calls++; return false })
			assert.Equal(t, 1, calls)
			break
		}
	}
}

func TestChainedTableOverflow(t *testing.T) {
	table := newChainedTable(2, false)
	for value := uint32(1); value <= 4; value++ {
		require.NoError(t, table.insert(7, value))
	}
	assert.ErrorIs(t, table.insert(7, 5), ErrTableOverflow)
	assert.ErrorIs(t, table.insert(1, 6), ErrTableOverflow)

	var have []uint32
	table.walk(7, func(value uint32) bool { have = append(have, value); return true })
	assert.Equal(t, []uint32{1, 2, 3, 4}, have)
}

func TestChainedAttackOverflow(t *testing.T) {
	cs := testSystem(t, 1)
	for _, short := range []bool{false, true} {
		cfg := testConfig(t)
		a := NewChainedHashMim(cs, cfg)
		if short {
			a = NewShortChainedHashMim(cs, cfg)
		}
		a.indexBits = cfg.Bits1 - 1

		status, err := a.BuildTable(nil)
		assert.Equal(t, BuildFailed, status)
		assert.ErrorIs(t, err, ErrTableOverflow)

		// the partial cache is removed
		_, err = os.Stat(cfg.cachePath(a.Name()))
		assert.True(t, errors.Is(err, os.ErrNotExist), "cache left behind: %v", err)
	}
}

func TestCacheDesync(t *testing.T) {
	var (
		cs  = testSystem(t, 1)
		msg = testMessage(t, cs, 9)
		cfg = testConfig(t)
	)
	for _, name := range []string{"hashmim2", "hashmim3"} {
		a := newAttack(t, name, cs, cfg)
		_, err := a.BuildTable(nil)
		require.NoError(t, err)
		want := crackAll(t, a, &msg.Ciphertext)

		path := cfg.cachePath(name)
		info, err := os.Stat(path)
		require.NoError(t, err)

		// a truncated cache falls back to recomputation midway
		require.NoError(t, os.Truncate(path, info.Size()/3))
		assert.Equal(t, want, crackAll(t, a, &msg.Ciphertext), name)

		// a corrupt length prefix is a read failure, not a crash
		require.NoError(t, os.WriteFile(path, []byte{0x80, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}, 0o644))
		assert.Equal(t, want, crackAll(t, a, &msg.Ciphertext), name)

		// so does a missing one
		require.NoError(t, os.Remove(path))
		assert.Equal(t, want, crackAll(t, a, &msg.Ciphertext), name)
	}
}

func TestCacheContents(t *testing.T) {
	cs := testSystem(t, 1)
	cfg := testConfig(t)
	a := NewCachedHashMim(cs, cfg)
	_, err := a.BuildTable(nil)
	require.NoError(t, err)

	r := openCache(cfg.cachePath(a.Name()))
	defer r.close()
	v := newVerifier(cs, 0)
	x := v.power(1)
	for delta := uint64(1); delta <= 1<<cfg.Bits1; delta++ {
		require.True(t, r.next(x, delta))
		require.Zero(t, x.Cmp(v.power(delta)), "delta %d", delta)
	}
	assert.False(t, r.next(x, 0))
	assert.False(t, r.next(x, 0), "failed reader must stay failed")
}

func TestVerifierCache(t *testing.T) {
	cs := testSystem(t, 1)
	cached, plain := newVerifier(cs, 16), newVerifier(cs, 0)
	rng := mrand.New(mrand.NewSource(1))
	for i := 0; i < 100; i++ {
		delta := uint64(rng.Intn(40) + 1)
		assert.Zero(t, cached.power(delta).Cmp(plain.power(delta)))
		assert.True(t, cached.matches(delta, plain.power(delta)))
	}
	assert.LessOrEqual(t, cached.cache.Len(), 16)
}

func TestTruncatedHash(t *testing.T) {
	cs := testSystem(t, 1)
	h := newTruncatedHash(12)
	v := newVerifier(cs, 0)
	for delta := uint64(1); delta < 64; delta++ {
		x := v.power(delta)
		assert.Equal(t, uint32(x.Uint64()&0xfff), h.sum(x))
	}
	assert.Equal(t, uint32(0xffffffff), uint32(newTruncatedHash(32)))
}
