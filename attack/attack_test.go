package attack

import (
	"bytes"
	"math/big"
	mrand "math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/metrics"
)

// testSystem generates a small cryptosystem with a smooth cofactor, so that
// every variant including 2table can run against it.
func testSystem(t *testing.T, seed int64) *elgamal.Cryptosystem {
	t.Helper()
	rng := mrand.New(mrand.NewSource(seed))
	cs, err := elgamal.Generate(rng, elgamal.GenerateParams{PrimeBits: 96, BaseOrderBits: 32, SmoothBits: 24, SmoothLimit: 8})
	require.NoError(t, err)
	return cs
}

// testMessage encrypts a product of two 8 bit halves.
func testMessage(t *testing.T, cs *elgamal.Cryptosystem, seed int64) *elgamal.Message {
	t.Helper()
	msg, _, _, err := cs.NewSplitMessage(mrand.New(mrand.NewSource(seed)), 16)
	require.NoError(t, err)
	return msg
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig
	cfg.SetMessageBits(16)
	cfg.TableDir = t.TempDir()
	return cfg
}

func newAttack(t *testing.T, name string, cs *elgamal.Cryptosystem, cfg Config) Attack {
	t.Helper()
	a, err := New(name, cs, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func crackAll(t *testing.T, a Attack, ct *elgamal.Ciphertext) []string {
	t.Helper()
	results := NewResultList(4)
	n, err := a.CrackMessage(results, ct, mrand.New(mrand.NewSource(7)), 0)
	require.NoError(t, err)
	require.Equal(t, n, results.Len())

	values := make([]string, 0, n)
	for _, v := range results.Values() {
		values = append(values, v.String())
	}
	sort.Strings(values)
	return values
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"2table", "diskmim", "hashmim", "hashmim2", "hashmim3", "hashmim4", "mim"}, Names())
}

func TestNewErrors(t *testing.T) {
	cs := testSystem(t, 1)

	_, err := New("nosuchattack", cs, DefaultConfig)
	assert.ErrorIs(t, err, ErrUnknownAttack)

	_, err = New("diskmim", cs, DefaultConfig)
	assert.ErrorIs(t, err, ErrNoTablePath)

	cfg := DefaultConfig
	cfg.Bits1 = 0
	_, err = New("mim", cs, cfg)
	assert.ErrorIs(t, err, ErrInvalidBits)

	cfg = DefaultConfig
	cfg.HashBits = 33
	_, err = New("hashmim", cs, cfg)
	assert.ErrorIs(t, err, ErrInvalidBits)

	plain, err := elgamal.New(big.NewInt(2579), big.NewInt(2), big.NewInt(765))
	require.NoError(t, err)
	_, err = New("2table", plain, DefaultConfig)
	assert.ErrorIs(t, err, ErrNotSmooth)
}

func TestCrackBeforeBuild(t *testing.T) {
	cs := testSystem(t, 1)
	msg := testMessage(t, cs, 2)
	for _, name := range Names() {
		a := newAttack(t, name, cs, testConfig(t))
		n, err := a.CrackMessage(NewResultList(1), &msg.Ciphertext, nil, 0)
		assert.NoError(t, err, name)
		assert.Zero(t, n, name)
	}
}

func TestRecoverMessage(t *testing.T) {
	cs := testSystem(t, 1)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			a := newAttack(t, name, cs, testConfig(t))
			status, err := a.BuildTable(mrand.New(mrand.NewSource(3)))
			require.NoError(t, err)
			assert.Equal(t, BuildSuccess, status)

			for seed := int64(10); seed < 14; seed++ {
				msg := testMessage(t, cs, seed)
				results := NewResultList(1)
				_, err := a.CrackMessage(results, &msg.Ciphertext, mrand.New(mrand.NewSource(seed)), 0)
				require.NoError(t, err)
				_, found := results.Find(msg.M)
				assert.True(t, found, "message %v not among %s", msg.M, spew.Sdump(results.Values()))
				for _, m := range results.Values() {
					assert.True(t, cs.Verify(&msg.Ciphertext, m), "unverified result %v", m)
				}
			}
			assert.NotZero(t, a.Stats().Verified)
		})
	}
}

// Truncating hashes to a few bits floods the tables with collisions, all of
// which must be filtered by exact verification.
func TestCollisionsVerified(t *testing.T) {
	var (
		cs  = testSystem(t, 4)
		msg = testMessage(t, cs, 5)
	)
	reference := newAttack(t, "mim", cs, testConfig(t))
	_, err := reference.BuildTable(nil)
	require.NoError(t, err)
	want := crackAll(t, reference, &msg.Ciphertext)
	require.NotEmpty(t, want)

	for _, name := range []string{"hashmim", "hashmim2", "hashmim3", "hashmim4", "diskmim", "2table"} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.HashBits = 4
			cfg.VerifyCacheSize = 0
			a := newAttack(t, name, cs, cfg)
			_, err := a.BuildTable(mrand.New(mrand.NewSource(6)))
			require.NoError(t, err)
			assert.Equal(t, want, crackAll(t, a, &msg.Ciphertext))

			stats := a.Stats()
			assert.Equal(t, uint64(len(want)), stats.Verified)
			if name != "2table" {
				assert.Greater(t, stats.HashHits, stats.Verified)
			}
		})
	}
}

func TestMaxResults(t *testing.T) {
	var (
		cs  = testSystem(t, 1)
		msg = testMessage(t, cs, 8)
	)
	for _, name := range Names() {
		a := newAttack(t, name, cs, testConfig(t))
		_, err := a.BuildTable(mrand.New(mrand.NewSource(3)))
		require.NoError(t, err)

		all := crackAll(t, a, &msg.Ciphertext)
		require.NotEmpty(t, all, name)

		results := NewResultList(1)
		n, err := a.CrackMessage(results, &msg.Ciphertext, mrand.New(mrand.NewSource(3)), 1)
		require.NoError(t, err, name)
		assert.Equal(t, 1, n, name)
		assert.True(t, cs.Verify(&msg.Ciphertext, results.At(0)), name)

		m, err := CrackOne(a, &msg.Ciphertext, mrand.New(mrand.NewSource(3)))
		require.NoError(t, err, name)
		assert.Zero(t, m.Cmp(results.At(0)), name)
	}
}

// crackOrdered returns the results of a crack bounded by max, in emission
// order.
func crackOrdered(t *testing.T, a Attack, ct *elgamal.Ciphertext, max int) []string {
	t.Helper()
	results := NewResultList(4)
	n, err := a.CrackMessage(results, ct, mrand.New(mrand.NewSource(7)), max)
	require.NoError(t, err)
	require.Equal(t, n, results.Len())

	values := make([]string, 0, n)
	for _, v := range results.Values() {
		values = append(values, v.String())
	}
	return values
}

func TestBoundedCrackIsPrefix(t *testing.T) {
	splits := []struct{ bits1, bits2 uint }{{8, 8}, {7, 9}, {9, 7}}
	for _, seed := range []int64{1, 3, 4} {
		cs := testSystem(t, seed)
		msg := testMessage(t, cs, seed+20)
		for _, split := range splits {
			for _, name := range Names() {
				cfg := testConfig(t)
				cfg.Bits1, cfg.Bits2 = split.bits1, split.bits2
				a := newAttack(t, name, cs, cfg)
				_, err := a.BuildTable(mrand.New(mrand.NewSource(3)))
				require.NoError(t, err)

				all := crackOrdered(t, a, &msg.Ciphertext, 0)
				if split.bits1 == split.bits2 {
					require.NotEmpty(t, all, "%s seed %d", name, seed)
				}
				for k := 1; k <= len(all); k++ {
					assert.Equal(t, all[:k], crackOrdered(t, a, &msg.Ciphertext, k), "%s seed %d split %v k %d", name, seed, split, k)
				}
			}
		}
	}
}

// denseSystem has a tiny cofactor r, so that about one in every r products
// passes verification and a crack emits many distinct candidates.
func denseSystem(t *testing.T) *elgamal.Cryptosystem {
	t.Helper()
	cs, err := elgamal.Generate(mrand.New(mrand.NewSource(2)), elgamal.GenerateParams{PrimeBits: 40, BaseOrderBits: 35})
	require.NoError(t, err)
	return cs
}

// requireAscendingDelta2 checks that the results can be attributed to
// distinct (d1, d2) pairs with non-decreasing d2, d1 <= 2^bits1 and
// d2 <= 2^bits2.
func requireAscendingDelta2(t *testing.T, results []string, bits1, bits2 uint) {
	t.Helper()
	var (
		max1 = uint64(1) << bits1
		max2 = uint64(1) << bits2
		used = make(map[[2]uint64]bool)
		last = uint64(1)
	)
	for i, s := range results {
		m, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		require.True(t, m.IsUint64(), "result %s out of range", s)
		v := m.Uint64()

		found := false
		for d2 := last; d2 <= max2; d2++ {
			if v%d2 != 0 || v/d2 > max1 || used[[2]uint64{v, d2}] {
				continue
			}
			used[[2]uint64{v, d2}] = true
			last, found = d2, true
			break
		}
		require.True(t, found, "result %d (%s) breaks ascending d2 order after d2=%d", i, s, last)
	}
}

func TestResultsInDelta2Order(t *testing.T) {
	var (
		cs  = denseSystem(t)
		msg = testMessage(t, cs, 6)
	)
	for _, name := range Names() {
		if name == "2table" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			a := newAttack(t, name, cs, cfg)
			_, err := a.BuildTable(nil)
			require.NoError(t, err)

			all := crackOrdered(t, a, &msg.Ciphertext, 0)
			require.Greater(t, len(all), 1<<cfg.Bits2, "expected a dense result set")
			requireAscendingDelta2(t, all, cfg.Bits1, cfg.Bits2)

			for _, k := range []int{1, 2, len(all) / 2, len(all) - 1, len(all)} {
				assert.Equal(t, all[:k], crackOrdered(t, a, &msg.Ciphertext, k), "k %d", k)
			}
		})
	}
}

func TestBuildStatusString(t *testing.T) {
	assert.Equal(t, "failed", BuildFailed.String())
	assert.Equal(t, "built", BuildSuccess.String())
	assert.Equal(t, "reused", BuildReused.String())
}

func TestBuildTimingFollowsConfig(t *testing.T) {
	cs := testSystem(t, 1)
	saved := log.Root().GetHandler()
	defer log.Root().SetHandler(saved)

	for _, enabled := range []bool{false, true} {
		out := new(bytes.Buffer)
		log.Root().SetHandler(log.StreamHandler(out, log.LogfmtFormat()))

		cfg := testConfig(t)
		cfg.Timing = metrics.Config{Enabled: enabled}
		a := newAttack(t, "mim", cs, cfg)
		_, err := a.BuildTable(nil)
		require.NoError(t, err)

		var line string
		for _, l := range strings.Split(out.String(), "\n") {
			if strings.Contains(l, "msg=\"Generated table\"") {
				line = l
			}
		}
		require.NotEmpty(t, line, "no build record in %q", out.String())
		assert.Equal(t, !enabled, strings.Contains(line, "elapsed=0s"), line)
	}
}
