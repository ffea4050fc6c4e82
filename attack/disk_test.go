package attack

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskMimReuse(t *testing.T) {
	var (
		cs  = testSystem(t, 1)
		msg = testMessage(t, cs, 11)
		cfg = testConfig(t)
	)
	a, err := NewDiskMim(cs, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.TableDir, "diskmim-8-32"), a.Path())
	assert.Nil(t, a.Meta())

	status, err := a.BuildTable(nil)
	require.NoError(t, err)
	require.Equal(t, BuildSuccess, status)
	first := a.Meta()
	require.NotNil(t, first)
	assert.Equal(t, uint64(256), first.Entries)
	want := crackAll(t, a, &msg.Ciphertext)
	require.NotEmpty(t, want)

	stats, err := a.Inspect()
	require.NoError(t, err)
	assert.Equal(t, uint64(256), stats.Entries)
	assert.LessOrEqual(t, stats.Hashes, uint64(256))
	assert.GreaterOrEqual(t, stats.MaxBucket, uint64(1))

	// a second build on the same instance keeps the table
	status, err = a.BuildTable(nil)
	require.NoError(t, err)
	assert.Equal(t, BuildReused, status)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	// so does a fresh instance
	b, err := NewDiskMim(cs, cfg)
	require.NoError(t, err)
	status, err = b.BuildTable(nil)
	require.NoError(t, err)
	assert.Equal(t, BuildReused, status)
	assert.Equal(t, first.BuildID, b.Meta().BuildID)
	assert.Equal(t, want, crackAll(t, b, &msg.Ciphertext))
	require.NoError(t, b.Close())

	// cracking without a build opens the stored table read only
	c, err := NewDiskMim(cs, cfg)
	require.NoError(t, err)
	assert.Equal(t, want, crackAll(t, c, &msg.Ciphertext))
	assert.Equal(t, first.BuildID, c.Meta().BuildID)

	// and a forced build afterwards replaces it
	c.cfg.ForceRebuild = true
	status, err = c.BuildTable(nil)
	require.NoError(t, err)
	assert.Equal(t, BuildSuccess, status)
	assert.NotEqual(t, first.BuildID, c.Meta().BuildID)
	assert.Equal(t, want, crackAll(t, c, &msg.Ciphertext))
	require.NoError(t, c.Close())
}

func TestDiskMimMismatch(t *testing.T) {
	var (
		cs    = testSystem(t, 1)
		other = testSystem(t, 2)
		cfg   = testConfig(t)
	)
	a, err := NewDiskMim(cs, cfg)
	require.NoError(t, err)
	_, err = a.BuildTable(nil)
	require.NoError(t, err)
	id := a.Meta().BuildID
	require.NoError(t, a.Close())

	// a table built for another cryptosystem is neither used nor reused
	b, err := NewDiskMim(other, cfg)
	require.NoError(t, err)
	defer b.Close()
	msg := testMessage(t, other, 12)
	n, err := b.CrackMessage(NewResultList(1), &msg.Ciphertext, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	status, err := b.BuildTable(nil)
	require.NoError(t, err)
	assert.Equal(t, BuildSuccess, status)
	assert.NotEqual(t, id, b.Meta().BuildID)
	assert.True(t, b.Meta().Matches(other.Prime, other.BaseOrder, cfg.Bits1, cfg.HashBits))
	assert.NotEmpty(t, crackAll(t, b, &msg.Ciphertext))
}

func TestDiskMimInspectSmallHash(t *testing.T) {
	cs := testSystem(t, 1)
	cfg := testConfig(t)
	cfg.HashBits = 3

	a, err := NewDiskMim(cs, cfg)
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Inspect()
	assert.ErrorIs(t, err, ErrTableMissing)

	_, err = a.BuildTable(nil)
	require.NoError(t, err)
	stats, err := a.Inspect()
	require.NoError(t, err)
	assert.Equal(t, uint64(256), stats.Entries)
	assert.LessOrEqual(t, stats.Hashes, uint64(8))
	// pigeonhole: some hash holds at least 256/8 entries
	assert.GreaterOrEqual(t, stats.MaxBucket, uint64(32))
}
