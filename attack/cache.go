package attack

import (
	"bufio"
	"math/big"
	"os"

	"github.com/tos-network/gmim/common"
	"github.com/tos-network/gmim/log"
)

// cacheWriter appends the exponentiations d^q mod p computed during a table
// build, in generation order, so that cracks can replay them for d2 values
// inside the table range instead of exponentiating again.
type cacheWriter struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func createCache(path string) (*cacheWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &StorageError{Op: "create cache", Path: path, Err: err}
	}
	return &cacheWriter{path: path, f: f, w: bufio.NewWriterSize(f, 1<<16)}, nil
}

func (c *cacheWriter) append(x *big.Int) error {
	if _, err := common.WriteRawBig(c.w, x); err != nil {
		return &StorageError{Op: "write cache", Path: c.path, Err: err}
	}
	return nil
}

func (c *cacheWriter) close() error {
	if err := c.w.Flush(); err != nil {
		c.f.Close()
		return &StorageError{Op: "write cache", Path: c.path, Err: err}
	}
	if err := c.f.Close(); err != nil {
		return &StorageError{Op: "close cache", Path: c.path, Err: err}
	}
	return nil
}

// abort closes and removes a partially written cache.
func (c *cacheWriter) abort() {
	c.f.Close()
	os.Remove(c.path)
}

// cacheReader replays a cache sequentially. Once a read fails it stays
// failed and the caller recomputes every remaining value.
type cacheReader struct {
	path   string
	f      *os.File
	r      *bufio.Reader
	failed bool
}

// openCache opens the cache at path. A missing cache is not an error: the
// returned reader is simply already failed.
func openCache(path string) *cacheReader {
	c := &cacheReader{path: path}
	if path == "" {
		c.failed = true
		return c
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn("Exponentiation cache unavailable, recomputing", "path", path, "err", err)
		c.failed = true
		return c
	}
	c.f, c.r = f, bufio.NewReaderSize(f, 1<<16)
	return c
}

// next reads the cached value for delta into x, reporting false if x must
// be recomputed.
func (c *cacheReader) next(x *big.Int, delta uint64) bool {
	if c.failed {
		return false
	}
	if err := common.ReadRawBig(c.r, x); err != nil {
		log.Warn("Exponentiation cache out of sync, recomputing", "path", c.path, "delta", delta, "err", err)
		c.failed = true
		return false
	}
	return true
}

func (c *cacheReader) close() {
	if c.f != nil {
		c.f.Close()
	}
}
