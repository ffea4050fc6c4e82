package utils

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/gmim/crypto/elgamal"
)

func TestPrintCryptosystem(t *testing.T) {
	cs, err := elgamal.New(big.NewInt(2579), big.NewInt(2), big.NewInt(765))
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintCryptosystem(&buf, cs, false)
	assert.Contains(t, buf.String(), "2579")
	assert.Contains(t, buf.String(), "949")
	assert.NotContains(t, buf.String(), "765")

	buf.Reset()
	PrintCryptosystem(&buf, cs, true)
	assert.Contains(t, buf.String(), "765")
}

func TestPrintMessage(t *testing.T) {
	msg := &elgamal.Message{
		M:          big.NewInt(1299),
		Ciphertext: elgamal.Ciphertext{GK: big.NewInt(1430), MYK: big.NewInt(697)},
	}
	var buf bytes.Buffer
	PrintMessage(&buf, msg)
	for _, want := range []string{"1299", "1430", "697"} {
		assert.Contains(t, buf.String(), want)
	}
}
