package attack

import (
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(keys ...int64) []dlogEntry {
	out := make([]dlogEntry, len(keys))
	for i, k := range keys {
		out[i] = dlogEntry{key: big.NewInt(k), value: uint32(i + 1)}
	}
	return out
}

func TestDescendingPivot(t *testing.T) {
	var (
		asc  = descending{entries: entries(2, 5, 5, 9), reversed: true}
		desc = descending{entries: entries(9, 5, 5, 2)}
	)
	for _, v := range []descending{asc, desc} {
		var keys []int64
		for i := range v.entries {
			keys = append(keys, v.at(i).key.Int64())
		}
		assert.Equal(t, []int64{9, 5, 5, 2}, keys)

		tests := []struct {
			n    int64
			want int
		}{
			{0, 0}, {1, 0}, {2, 3}, {4, 3}, {5, 1}, {8, 1}, {9, 0}, {100, 0},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, v.pivot(big.NewInt(tt.n)), "n=%d reversed=%v", tt.n, v.reversed)
		}
	}
}

func TestTwoTableSharedAndSeparate(t *testing.T) {
	var (
		cs  = testSystem(t, 3)
		rng = mrand.New(mrand.NewSource(4))
	)
	shared := testConfig(t)
	separate := testConfig(t)
	separate.Bits2 = shared.Bits2 + 1

	var tables []*TwoTable
	for _, cfg := range []Config{shared, separate} {
		a, err := NewTwoTable(cs, cfg)
		require.NoError(t, err)
		defer a.Close()
		_, err = a.BuildTable(rng)
		require.NoError(t, err)
		tables = append(tables, a)
	}
	assert.Nil(t, tables[0].t2)
	require.NotNil(t, tables[1].t2)
	assert.Len(t, tables[1].t2, 512)
	for i := 1; i < len(tables[1].t2); i++ {
		assert.GreaterOrEqual(t, tables[1].t2[i-1].key.Cmp(tables[1].t2[i].key), 0)
	}
	for i := 1; i < len(tables[0].t1); i++ {
		assert.LessOrEqual(t, tables[0].t1[i-1].key.Cmp(tables[0].t1[i].key), 0)
	}

	reference := NewMim(cs, separate)
	_, err := reference.BuildTable(nil)
	require.NoError(t, err)

	for seed := int64(20); seed < 26; seed++ {
		msg := testMessage(t, cs, seed)
		for i, a := range tables {
			results := NewResultList(1)
			_, err := a.CrackMessage(results, &msg.Ciphertext, rng, 0)
			require.NoError(t, err)
			_, found := results.Find(msg.M)
			assert.True(t, found, "table %d missed %v", i, msg.M)
		}
		// the separate tables cover d2 up to 2^9 like the reference
		assert.Equal(t, crackAll(t, reference, &msg.Ciphertext), crackAll(t, tables[1], &msg.Ciphertext))
	}
}

func TestTwoTableLogs(t *testing.T) {
	cs := testSystem(t, 3)
	a, err := NewTwoTable(cs, testConfig(t))
	require.NoError(t, err)
	_, err = a.BuildTable(mrand.New(mrand.NewSource(1)))
	require.NoError(t, err)

	z := new(big.Int).Mul(cs.R, cs.BaseOrder)
	for _, e := range a.t1[:32] {
		want := new(big.Int).Exp(big.NewInt(int64(e.value)), z, cs.Prime)
		have := new(big.Int).Exp(cs.SGenerator, e.key, cs.Prime)
		assert.Zero(t, want.Cmp(have), "d=%d", e.value)
		assert.Equal(t, -1, e.key.Cmp(cs.S.Value))
	}
}
