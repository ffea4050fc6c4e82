package attack

import (
	"io"
	"math/big"
	"os"
	"sync"

	"github.com/tos-network/gmim/attack/rawdb"
	"github.com/tos-network/gmim/crypto/elgamal"
	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/metrics"
	"github.com/tos-network/gmim/tabledb"
	"github.com/tos-network/gmim/tabledb/leveldb"
)

// DiskMim stores the truncated hash table in a leveldb database, where
// entries sharing a hash coexist as distinct keys. The table survives the
// process and is reused by later builds for the same parameters.
type DiskMim struct {
	statsCounter
	cs     *elgamal.Cryptosystem
	cfg    Config
	path   string
	hash   truncatedHash
	verify *verifier

	lock     sync.Mutex
	db       tabledb.KeyValueStore
	readonly bool
	meta     *rawdb.TableMeta
}

// NewDiskMim creates the persisted table attack. The table lives at
// cfg.TablePath, or under cfg.TableDir.
func NewDiskMim(cs *elgamal.Cryptosystem, cfg Config) (*DiskMim, error) {
	path := cfg.tablePath("diskmim")
	if path == "" {
		return nil, ErrNoTablePath
	}
	return &DiskMim{
		cs:     cs,
		cfg:    cfg,
		path:   path,
		hash:   newTruncatedHash(cfg.HashBits),
		verify: newVerifier(cs, cfg.VerifyCacheSize),
	}, nil
}

func (a *DiskMim) Name() string { return "diskmim" }

// Path returns the location of the persisted table.
func (a *DiskMim) Path() string { return a.path }

// Meta returns the metadata of the open table, nil if none is open.
func (a *DiskMim) Meta() *rawdb.TableMeta {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.meta
}

func (a *DiskMim) open(readonly bool) (tabledb.KeyValueStore, error) {
	db, err := leveldb.New(a.path, a.cfg.DatabaseCache, a.cfg.DatabaseHandles, "diskmim", readonly)
	if err != nil {
		return nil, &StorageError{Op: "open table", Path: a.path, Err: err}
	}
	return db, nil
}

func (a *DiskMim) matches(meta *rawdb.TableMeta) bool {
	return meta != nil && meta.Matches(a.cs.Prime, a.cs.BaseOrder, a.cfg.Bits1, a.cfg.HashBits)
}

func (a *DiskMim) BuildTable(rng io.Reader) (BuildStatus, error) {
	if a.cfg.Bits1 > 63 {
		return BuildFailed, ErrTableTooLarge
	}
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.db == nil {
		_, statErr := os.Stat(a.path)
		db, err := a.open(false)
		if err != nil {
			return BuildFailed, err
		}
		a.db, a.readonly = db, false
		if statErr == nil {
			if meta := rawdb.ReadTableMeta(db); a.matches(meta) {
				a.meta = meta
			}
		}
	}
	if !a.cfg.ForceRebuild && a.meta != nil {
		log.Info("Using existing table", "path", a.path, "build", a.meta.BuildID, "entries", a.meta.Entries)
		return BuildReused, nil
	}
	if a.readonly {
		a.db.Close()
		db, err := a.open(false)
		if err != nil {
			a.db, a.meta = nil, nil
			return BuildFailed, err
		}
		a.db, a.readonly = db, false
	}
	return a.build()
}

// build (re)populates the open database. The metadata is removed first and
// written last, so an interrupted build is never mistaken for a table.
func (a *DiskMim) build() (BuildStatus, error) {
	fail := func(op string, err error) (BuildStatus, error) {
		return BuildFailed, &StorageError{Op: op, Path: a.path, Err: err}
	}
	if a.meta != nil || a.cfg.ForceRebuild {
		log.Info("Rebuilding stored table", "path", a.path, "force", a.cfg.ForceRebuild)
	}
	a.meta = nil
	if err := rawdb.DeleteTableMeta(a.db); err != nil {
		return fail("reset table", err)
	}
	if err := rawdb.DeleteEntries(a.db); err != nil {
		return fail("reset table", err)
	}
	var (
		sw    = metrics.NewStopwatch(a.cfg.Timing)
		meta  = rawdb.NewTableMeta(a.cs.Prime, a.cs.BaseOrder, a.cfg.Bits1, a.cfg.HashBits)
		batch = a.db.NewBatch()
	)
	err := tableGenerator(a.cs, a.cfg.Bits1, nil, func(delta uint64, pow *big.Int) error {
		if err := rawdb.WriteEntry(batch, a.hash.sum(pow), delta); err != nil {
			return err
		}
		meta.Entries++
		if batch.ValueSize() >= tabledb.IdealBatchSize {
			if err := batch.Write(); err != nil {
				return err
			}
			batch.Reset()
		}
		return nil
	})
	if err == nil {
		err = batch.Write()
	}
	if err != nil {
		return fail("write table", err)
	}
	if err := rawdb.WriteTableMeta(a.db, meta); err != nil {
		return fail("write table", err)
	}
	if c, ok := a.db.(tabledb.Compacter); ok {
		if err := c.Compact(nil, nil); err != nil {
			log.Warn("Failed to compact table", "path", a.path, "err", err)
		}
	}
	a.meta = meta
	log.Info("Stored table", "path", a.path, "build", meta.BuildID, "entries", meta.Entries, "elapsed", sw.Stop().Wall)
	return BuildSuccess, nil
}

// store returns the open table, opening a previously built one if needed.
// It returns nil if no usable table exists.
func (a *DiskMim) store() tabledb.KeyValueStore {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.db != nil {
		if a.meta == nil {
			return nil
		}
		return a.db
	}
	if _, err := os.Stat(a.path); err != nil {
		return nil
	}
	db, err := a.open(true)
	if err != nil {
		log.Warn("Failed to open stored table", "path", a.path, "err", err)
		return nil
	}
	meta := rawdb.ReadTableMeta(db)
	if !a.matches(meta) {
		db.Close()
		return nil
	}
	a.db, a.meta, a.readonly = db, meta, true
	return db
}

func (a *DiskMim) CrackMessage(results *ResultList, ct *elgamal.Ciphertext, rng io.Reader, maxResults int) (int, error) {
	db := a.store()
	if db == nil {
		return 0, nil
	}
	var (
		out            = newEmitter(results, maxResults)
		hits, verified uint64
		err            error
	)
	newSearcher(a.cs, a.cfg.Bits1, a.cfg.Bits2, ct, nil).run(func(delta2 uint64, target *big.Int) bool {
		var deltas []uint64
		if deltas, err = rawdb.ReadEntries(db, a.hash.sum(target)); err != nil {
			return false
		}
		for _, delta1 := range deltas {
			hits++
			if !a.verify.matches(delta1, target) {
				continue
			}
			verified++
			if !out.emit(delta1, delta2) {
				return false
			}
		}
		return true
	})
	a.add(hits, verified)
	if err != nil {
		return out.count, &StorageError{Op: "read table", Path: a.path, Err: err}
	}
	log.Debug("Crack finished", "attack", a.Name(), "hashHits", hits, "verified", verified)
	return out.count, nil
}

// TableStats summarises the hash distribution of a stored table.
type TableStats struct {
	Entries   uint64
	Hashes    uint64 // distinct hash values
	MaxBucket uint64 // most entries sharing one hash
}

// Inspect walks the stored table. It fails with ErrTableMissing if no
// table was built.
func (a *DiskMim) Inspect() (TableStats, error) {
	var stats TableStats
	db := a.store()
	if db == nil {
		return stats, ErrTableMissing
	}
	var (
		last   uint32
		bucket uint64
	)
	err := rawdb.IterateEntries(db, func(hash uint32, delta uint64) bool {
		if stats.Entries == 0 || hash != last {
			stats.Hashes++
			last, bucket = hash, 0
		}
		stats.Entries++
		if bucket++; bucket > stats.MaxBucket {
			stats.MaxBucket = bucket
		}
		return true
	})
	if err != nil {
		return stats, &StorageError{Op: "read table", Path: a.path, Err: err}
	}
	return stats, nil
}

// Close closes the underlying database, keeping the table on disk.
func (a *DiskMim) Close() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db, a.meta = nil, nil
	if err != nil {
		return &StorageError{Op: "close table", Path: a.path, Err: err}
	}
	return nil
}
