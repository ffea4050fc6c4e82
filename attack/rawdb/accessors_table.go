package rawdb

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/tos-network/gmim/log"
	"github.com/tos-network/gmim/tabledb"
)

// TableMeta describes a persisted attack table. It is written last, so a
// table without metadata is an interrupted build.
type TableMeta struct {
	BuildID   uuid.UUID `json:"buildId"`
	Prime     *big.Int  `json:"prime"`
	BaseOrder *big.Int  `json:"baseOrder"`
	Bits1     uint      `json:"bits1"`
	HashBits  uint      `json:"hashBits"`
	Entries   uint64    `json:"entries"`
	Created   time.Time `json:"created"`
}

// NewTableMeta creates metadata with a fresh build identifier.
func NewTableMeta(prime, baseOrder *big.Int, bits1, hashBits uint) *TableMeta {
	return &TableMeta{
		BuildID:   uuid.New(),
		Prime:     new(big.Int).Set(prime),
		BaseOrder: new(big.Int).Set(baseOrder),
		Bits1:     bits1,
		HashBits:  hashBits,
		Created:   time.Now().UTC(),
	}
}

// Matches reports whether the table was built for the given parameters.
func (m *TableMeta) Matches(prime, baseOrder *big.Int, bits1, hashBits uint) bool {
	return m.Prime != nil && m.BaseOrder != nil &&
		m.Prime.Cmp(prime) == 0 && m.BaseOrder.Cmp(baseOrder) == 0 &&
		m.Bits1 == bits1 && m.HashBits == hashBits
}

// ReadTableMeta retrieves the table metadata, nil if absent or corrupt.
func ReadTableMeta(db tabledb.KeyValueReader) *TableMeta {
	data, _ := db.Get(tableMetaKey)
	if len(data) == 0 {
		return nil
	}
	var meta TableMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		log.Error("Invalid table metadata", "err", err)
		return nil
	}
	return &meta
}

// WriteTableMeta stores the table metadata.
func WriteTableMeta(db tabledb.KeyValueWriter, meta *TableMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return db.Put(tableMetaKey, data)
}

// DeleteTableMeta removes the table metadata, marking the table incomplete.
func DeleteTableMeta(db tabledb.KeyValueWriter) error {
	return db.Delete(tableMetaKey)
}

// WriteEntry stores one (hash, delta) pair. Pairs sharing a hash coexist.
func WriteEntry(db tabledb.KeyValueWriter, hash uint32, delta uint64) error {
	return db.Put(entryKey(hash, delta), nil)
}

// ReadEntries returns all deltas stored under the given hash in ascending
// order.
func ReadEntries(db tabledb.Iteratee, hash uint32) ([]uint64, error) {
	it := NewKeyLengthIterator(db.NewIterator(entryHashPrefix(hash), nil), EntryKeyLength)
	defer it.Release()

	var deltas []uint64
	for it.Next() {
		if _, delta, ok := splitEntryKey(it.Key()); ok {
			deltas = append(deltas, delta)
		}
	}
	return deltas, it.Error()
}

// IterateEntries walks every stored entry in (hash, delta) order until fn
// returns false.
func IterateEntries(db tabledb.Iteratee, fn func(hash uint32, delta uint64) bool) error {
	it := NewKeyLengthIterator(db.NewIterator(entryPrefix, nil), EntryKeyLength)
	defer it.Release()

	for it.Next() {
		hash, delta, ok := splitEntryKey(it.Key())
		if !ok {
			continue
		}
		if !fn(hash, delta) {
			break
		}
	}
	return it.Error()
}

// DeleteEntries removes all table entries.
func DeleteEntries(db tabledb.KeyValueStore) error {
	it := db.NewIterator(entryPrefix, nil)
	defer it.Release()

	batch := db.NewBatch()
	for it.Next() {
		if err := batch.Delete(append([]byte{}, it.Key()...)); err != nil {
			return err
		}
		if batch.ValueSize() >= tabledb.IdealBatchSize {
			if err := batch.Write(); err != nil {
				return err
			}
			batch.Reset()
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	return batch.Write()
}
