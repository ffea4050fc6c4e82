package main

import (
	"bytes"
	"math/big"
	mrand "math/rand"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/gmim/attack"
	"github.com/tos-network/gmim/crypto/elgamal"
)

// writeFixtures stores a small smooth cryptosystem and a few 16 bit
// messages for it.
func writeFixtures(t *testing.T, dir string, messages int) (string, []string) {
	rng := mrand.New(mrand.NewSource(1))
	cs, err := elgamal.Generate(rng, elgamal.GenerateParams{PrimeBits: 96, BaseOrderBits: 32, SmoothBits: 24, SmoothLimit: 8})
	require.NoError(t, err)
	csPath := filepath.Join(dir, "test.elg")
	require.NoError(t, cs.SaveFile(csPath))

	var paths []string
	for i := 0; i < messages; i++ {
		msg, _, _, err := cs.NewSplitMessage(rng, 16)
		require.NoError(t, err)
		path := filepath.Join(dir, "m"+strconv.Itoa(i)+".msg")
		require.NoError(t, msg.SaveFile(path))
		paths = append(paths, path)
	}
	return csPath, paths
}

func TestCrackCommand(t *testing.T) {
	dir := t.TempDir()
	csPath, msgs := writeFixtures(t, dir, 3)

	for _, name := range attack.Names() {
		for _, parallel := range []string{"1", "3"} {
			args := []string{"mimattack", "--verbosity", "0", "--seed", "5", "crack",
				"--attack", name, "--messagebits", "16", "--tabledir", dir, "--parallel", parallel, csPath}
			require.NoError(t, app.Run(append(args, msgs...)), "attack %s", name)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	csPath, _ := writeFixtures(t, dir, 0)
	args := []string{"mimattack", "--verbosity", "0", "build", "--attack", "diskmim", "--messagebits", "16", "--tabledir", dir, csPath}
	require.NoError(t, app.Run(args))
	// the second build reuses the persisted table
	require.NoError(t, app.Run(args))
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	rng := mrand.New(mrand.NewSource(2))
	cs, err := elgamal.Generate(rng, elgamal.GenerateParams{PrimeBits: 64, BaseOrderBits: 24})
	require.NoError(t, err)
	m := big.NewInt(2035)
	ct, err := cs.Encrypt(rng, m)
	require.NoError(t, err)

	report := &crackReport{
		file:    "m.msg",
		msg:     &elgamal.Message{M: m, Ciphertext: *ct},
		results: attack.NewResultList(3),
	}
	report.results.Append(m)
	report.results.Append(m)
	report.results.Append(big.NewInt(2036))

	var buf bytes.Buffer
	printReport(&buf, cs, report)
	out := buf.String()
	assert.Contains(t, out, "RESULTS[file=m.msg]: 3")
	assert.Contains(t, out, "URESULTS[file=m.msg]: 2")
	assert.Contains(t, out, "correct")
	assert.Contains(t, out, "INVALID")
	assert.NotContains(t, out, "message not found")
}
