// Package rawdb contains the low level layout of persisted attack tables.
package rawdb

import (
	"encoding/binary"

	"github.com/tos-network/gmim/common"
)

// The fields below define the low level database schema prefixing.
var (
	// tableMetaKey tracks the parameters and identity of the stored table.
	tableMetaKey = []byte("TableMeta")

	// entryPrefix + hash (uint32 big endian) + delta (uint64 big endian) -> empty
	entryPrefix = []byte("e")
)

const (
	hashLength  = 4
	deltaLength = 8

	// EntryKeyLength is the length of a full table entry key.
	EntryKeyLength = 1 + hashLength + deltaLength
)

// entryHashPrefix = entryPrefix + hash
func entryHashPrefix(hash uint32) []byte {
	return append(append([]byte{}, entryPrefix...), common.Uint32Bytes(hash)...)
}

// entryKey = entryPrefix + hash + delta
func entryKey(hash uint32, delta uint64) []byte {
	return append(entryHashPrefix(hash), common.Uint64Bytes(delta)...)
}

// splitEntryKey decodes an entry key. ok is false for keys of other tables.
func splitEntryKey(key []byte) (hash uint32, delta uint64, ok bool) {
	if len(key) != EntryKeyLength || key[0] != entryPrefix[0] {
		return 0, 0, false
	}
	hash = binary.BigEndian.Uint32(key[1 : 1+hashLength])
	delta = binary.BigEndian.Uint64(key[1+hashLength:])
	return hash, delta, true
}
