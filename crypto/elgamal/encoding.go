package elgamal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/tos-network/gmim/common"
	"github.com/tos-network/gmim/crypto/factor"
)

// maxFactors bounds the factor count accepted when decoding.
const maxFactors = 1 << 16

func writeFactored(w io.Writer, n *factor.Integer) error {
	if _, err := common.WriteRawBig(w, n.Value); err != nil {
		return err
	}
	if _, err := w.Write(common.Uint32Bytes(uint32(len(n.Factors)))); err != nil {
		return err
	}
	for _, f := range n.Factors {
		if _, err := w.Write(common.Uint32Bytes(uint32(f.Power))); err != nil {
			return err
		}
		if _, err := common.WriteRawBig(w, f.Prime); err != nil {
			return err
		}
	}
	return nil
}

func readFactored(r io.Reader) (*factor.Integer, error) {
	value := new(big.Int)
	if err := common.ReadRawBig(r, value); err != nil {
		return nil, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(buf[:])
	if count > maxFactors {
		return nil, fmt.Errorf("%w: %d factors", ErrInvalidParams, count)
	}
	primes := make([]*big.Int, count)
	powers := make([]uint, count)
	for i := range primes {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		powers[i] = uint(binary.BigEndian.Uint32(buf[:]))
		primes[i] = new(big.Int)
		if err := common.ReadRawBig(r, primes[i]); err != nil {
			return nil, err
		}
	}
	n := factor.Compose(primes, powers)
	if count > 0 && n.Value.Cmp(value) != 0 {
		return nil, fmt.Errorf("%w: factorization does not match value", ErrInvalidParams)
	}
	return n, nil
}

// Write serializes the cryptosystem: prime, base, base order, r, enc, dec,
// the factored s and the s generator, in that order.
func (c *Cryptosystem) Write(w io.Writer) error {
	for _, x := range []*big.Int{c.Prime, c.Base, c.BaseOrder, c.R, c.Enc, c.Dec} {
		if _, err := common.WriteRawBig(w, x); err != nil {
			return err
		}
	}
	if err := writeFactored(w, c.S); err != nil {
		return err
	}
	_, err := common.WriteRawBig(w, c.SGenerator)
	return err
}

// Read decodes a cryptosystem written by Write.
func Read(r io.Reader) (*Cryptosystem, error) {
	c := &Cryptosystem{
		Prime:      new(big.Int),
		Base:       new(big.Int),
		BaseOrder:  new(big.Int),
		R:          new(big.Int),
		Enc:        new(big.Int),
		Dec:        new(big.Int),
		SGenerator: new(big.Int),
	}
	for _, x := range []*big.Int{c.Prime, c.Base, c.BaseOrder, c.R, c.Enc, c.Dec} {
		if err := common.ReadRawBig(r, x); err != nil {
			return nil, err
		}
	}
	s, err := readFactored(r)
	if err != nil {
		return nil, err
	}
	c.S = s
	if err := common.ReadRawBig(r, c.SGenerator); err != nil {
		return nil, err
	}
	return c, nil
}

// Message is the content of a message file: the plaintext, kept for test
// harnesses, and its encryption.
type Message struct {
	M *big.Int
	Ciphertext
}

// Write serializes the message as m, gk, myk.
func (m *Message) Write(w io.Writer) error {
	for _, x := range []*big.Int{m.M, m.GK, m.MYK} {
		if _, err := common.WriteRawBig(w, x); err != nil {
			return err
		}
	}
	return nil
}

// ReadMessage decodes a message written by Message.Write.
func ReadMessage(r io.Reader) (*Message, error) {
	m := &Message{M: new(big.Int), Ciphertext: Ciphertext{GK: new(big.Int), MYK: new(big.Int)}}
	for _, x := range []*big.Int{m.M, m.GK, m.MYK} {
		if err := common.ReadRawBig(r, x); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadFile reads a cryptosystem file from disk.
func LoadFile(path string) (*Cryptosystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading cryptosystem %s: %w", path, err)
	}
	return c, nil
}

// SaveFile writes the cryptosystem to path, truncating any existing file.
func (c *Cryptosystem) SaveFile(path string) error {
	return writeFile(path, c.Write)
}

// LoadMessageFile reads a message file from disk.
func LoadMessageFile(path string) (*Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadMessage(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading message %s: %w", path, err)
	}
	return m, nil
}

// SaveFile writes the message to path, truncating any existing file.
func (m *Message) SaveFile(path string) error {
	return writeFile(path, m.Write)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
