package memorydb

import (
	"testing"

	"github.com/tos-network/gmim/tabledb"
	"github.com/tos-network/gmim/tabledb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() tabledb.KeyValueStore {
			return New()
		})
	})
}

func TestClosed(t *testing.T) {
	db := New()
	db.Close()
	if err := db.Put([]byte("a"), nil); err != errMemorydbClosed {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := db.Get([]byte("a")); err != errMemorydbClosed {
		t.Fatalf("expected closed error, got %v", err)
	}
}
