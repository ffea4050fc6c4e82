package attack

import (
	"fmt"

	"github.com/shirou/gopsutil/mem"

	"github.com/tos-network/gmim/log"
)

// checkMemory fails if a table of the given size would not fit in the
// memory currently available. The check is skipped if the available memory
// cannot be determined.
func checkMemory(name string, bytes uint64) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Debug("Failed to retrieve available memory", "err", err)
		return nil
	}
	log.Debug("Table memory estimate", "attack", name, "need", bytes, "available", vm.Available)
	if bytes > vm.Available {
		return fmt.Errorf("%w: %s needs %d bytes, %d available", ErrInsufficientMemory, name, bytes, vm.Available)
	}
	return nil
}

// bigIntFootprint approximates the memory held by a big.Int of the given
// bit length, header included.
func bigIntFootprint(bits int) uint64 {
	return uint64(32 + (bits+63)/64*8)
}
