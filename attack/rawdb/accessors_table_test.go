package rawdb

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/tos-network/gmim/tabledb/memorydb"
)

func TestEntries(t *testing.T) {
	db := memorydb.New()
	entries := map[uint32][]uint64{
		0:          {1, 2},
		0xdeadbeef: {7, 3, 300},
		0xffffffff: {1 << 40},
	}
	for hash, deltas := range entries {
		for _, d := range deltas {
			if err := WriteEntry(db, hash, d); err != nil {
				t.Fatal(err)
			}
		}
	}
	// unrelated keys must be skipped
	db.Put([]byte("e-short"), []byte{1})

	tests := []struct {
		hash uint32
		want []uint64
	}{
		{0, []uint64{1, 2}},
		{0xdeadbeef, []uint64{3, 7, 300}},
		{0xffffffff, []uint64{1 << 40}},
		{12345, nil},
	}
	for _, tt := range tests {
		have, err := ReadEntries(db, tt.hash)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(have, tt.want) {
			t.Errorf("hash %x: have %v want %v", tt.hash, have, tt.want)
		}
	}

	var count int
	var last uint32
	if err := IterateEntries(db, func(hash uint32, delta uint64) bool {
		if hash < last {
			t.Errorf("entries out of order: %x after %x", hash, last)
		}
		last = hash
		count++
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if count != 6 {
		t.Fatalf("entry count mismatch: have %d want 6", count)
	}

	if err := DeleteEntries(db); err != nil {
		t.Fatal(err)
	}
	if have, _ := ReadEntries(db, 0); len(have) != 0 {
		t.Fatalf("entries left after delete: %v", have)
	}
}

func TestTableMeta(t *testing.T) {
	db := memorydb.New()
	if meta := ReadTableMeta(db); meta != nil {
		t.Fatalf("unexpected metadata in empty db: %+v", meta)
	}
	p, q := big.NewInt(2579), big.NewInt(1289)
	meta := NewTableMeta(p, q, 10, 32)
	meta.Entries = 1024
	if err := WriteTableMeta(db, meta); err != nil {
		t.Fatal(err)
	}
	have := ReadTableMeta(db)
	if have == nil {
		t.Fatal("metadata missing")
	}
	if have.BuildID != meta.BuildID || have.Entries != 1024 {
		t.Fatalf("metadata mismatch: have %+v want %+v", have, meta)
	}
	if !have.Matches(p, q, 10, 32) {
		t.Fatal("metadata should match its own parameters")
	}
	if have.Matches(p, q, 11, 32) || have.Matches(big.NewInt(2357), q, 10, 32) {
		t.Fatal("metadata matched different parameters")
	}
	if NewTableMeta(p, q, 10, 32).BuildID == meta.BuildID {
		t.Fatal("build identifiers should be unique")
	}

	db.Put(tableMetaKey, []byte("{not json"))
	if ReadTableMeta(db) != nil {
		t.Fatal("corrupt metadata should read as absent")
	}
	if err := DeleteTableMeta(db); err != nil {
		t.Fatal(err)
	}
}
