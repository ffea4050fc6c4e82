// Package attack implements the meet-in-the-middle attack of Boneh, Joux and
// Nguyen against textbook ElGamal.
//
// A message m that splits as m = d1*d2 with d1 <= 2^bits1 and d2 <= 2^bits2
// is recovered from its ciphertext (g^k, m*y^k) by observing that
// (m*y^k)^q = (d1*d2)^q mod p, where q is the order of g. A table of
// d1^q is built once per cryptosystem, and each ciphertext is then cracked by
// searching it for (d2^q)^-1 * (m*y^k)^q over all d2.
package attack

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/tos-network/gmim/crypto/elgamal"
)

// BuildStatus is the outcome of a table build.
type BuildStatus int

const (
	BuildFailed  BuildStatus = iota // the table could not be built, see the error
	BuildSuccess                    // a fresh table was built
	BuildReused                     // a persisted table for the same parameters was reused
)

func (s BuildStatus) String() string {
	switch s {
	case BuildSuccess:
		return "built"
	case BuildReused:
		return "reused"
	default:
		return "failed"
	}
}

var (
	// ErrTableTooLarge is returned when the requested table exceeds the
	// hard size bound of the variant.
	ErrTableTooLarge = errors.New("attack: table too large")

	// ErrInsufficientMemory is returned when the estimated table footprint
	// exceeds the available memory.
	ErrInsufficientMemory = errors.New("attack: insufficient memory for table")

	// ErrTableOverflow is returned when a chained hash table runs out of
	// overflow slots.
	ErrTableOverflow = errors.New("attack: hash table overflow")

	// ErrNotSmooth is returned by discrete-log variants for cryptosystems
	// without a smooth cofactor.
	ErrNotSmooth = errors.New("attack: cryptosystem has no smooth subgroup")

	ErrUnknownAttack = errors.New("attack: unknown attack")
	ErrNoTablePath   = errors.New("attack: no table path configured")
	ErrTableMissing  = errors.New("attack: no stored table")
	ErrInvalidBits   = errors.New("attack: invalid table bits")
)

// StorageError reports a failed file or database operation.
type StorageError struct {
	Op   string // operation that failed, e.g. "open" or "write"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("attack: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Attack is the two-phase protocol shared by all variants: a table is built
// once, then any number of ciphertexts are cracked against it.
//
// CrackMessage appends up to maxResults candidate messages (all of them if
// maxResults is zero) to results and returns how many it appended. Cracking
// against a table that was never built yields no results and no error.
// Concurrent CrackMessage calls on a built table are safe.
type Attack interface {
	Name() string
	BuildTable(rng io.Reader) (BuildStatus, error)
	CrackMessage(results *ResultList, ct *elgamal.Ciphertext, rng io.Reader, maxResults int) (int, error)
	Stats() Stats
	io.Closer
}

// Stats counts table matches across all cracks run by an attack.
type Stats struct {
	HashHits uint64 // table lookups that matched a key
	Verified uint64 // candidates that passed exact verification
}

type statsCounter struct {
	hashHits atomic.Uint64
	verified atomic.Uint64
}

func (s *statsCounter) add(hits, verified uint64) {
	s.hashHits.Add(hits)
	s.verified.Add(verified)
}

func (s *statsCounter) Stats() Stats {
	return Stats{HashHits: s.hashHits.Load(), Verified: s.verified.Load()}
}

// CrackOne returns the first candidate message for ct, or nil if none is
// found.
func CrackOne(a Attack, ct *elgamal.Ciphertext, rng io.Reader) (*big.Int, error) {
	results := NewResultList(1)
	if _, err := a.CrackMessage(results, ct, rng, 1); err != nil {
		return nil, err
	}
	if results.Len() == 0 {
		return nil, nil
	}
	return results.At(0), nil
}
