// Package common contains helpers shared by the attack engine, the
// cryptosystem tooling and the command line programs.
package common

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// MaxRawBigSize bounds the magnitude length accepted by ReadRawBig so a
// corrupted length prefix cannot trigger an enormous allocation.
const MaxRawBigSize = 1 << 20

var ErrRawBigTooLarge = errors.New("raw integer exceeds maximum size")

// WriteRawBig writes x using the raw integer layout: a 4-byte big-endian
// signed byte count (negative for negative values) followed by the
// big-endian magnitude. It returns the number of bytes written.
func WriteRawBig(w io.Writer, x *big.Int) (int, error) {
	mag := x.Bytes()
	size := int32(len(mag))
	if x.Sign() < 0 {
		size = -size
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(size))
	n, err := w.Write(hdr[:])
	if err != nil {
		return n, err
	}
	m, err := w.Write(mag)
	return n + m, err
}

// ReadRawBig reads one raw integer into x. It returns io.EOF only if no
// bytes at all could be read, and io.ErrUnexpectedEOF on a truncated value.
func ReadRawBig(r io.Reader, x *big.Int) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	size := int64(int32(binary.BigEndian.Uint32(hdr[:])))
	neg := size < 0
	if neg {
		size = -size
	}
	if size > MaxRawBigSize {
		return fmt.Errorf("%w: %d bytes", ErrRawBigTooLarge, size)
	}
	mag := make([]byte, size)
	if _, err := io.ReadFull(r, mag); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	x.SetBytes(mag)
	if neg {
		x.Neg(x)
	}
	return nil
}

// Uint32Bytes encodes v as 4 big-endian bytes.
func Uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// Uint64Bytes encodes v as 8 big-endian bytes.
func Uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
